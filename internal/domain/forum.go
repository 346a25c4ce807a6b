package domain

import "time"

// Post is a discussion entry, optionally attached to a book.
type Post struct {
	Record
	Content  string `json:"content"`
	AuthorID string `json:"author_id"`
	BookID   string `json:"book_id,omitempty"`
}

// Comment is a reply to a post.
type Comment struct {
	Record
	Content  string `json:"content"`
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
}

// Like marks that a user liked a post. At most one exists per (post, user).
type Like struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedItem is a post with the denormalized data the feed displays.
type FeedItem struct {
	Post
	Author       UserSummary  `json:"author"`
	Book         *BookSummary `json:"book,omitempty"`
	CommentCount int          `json:"comment_count"`
	LikeCount    int          `json:"like_count"`
	LikerIDs     []string     `json:"liker_ids"`
}

// LikedBy reports whether userID is among the post's likers.
func (f *FeedItem) LikedBy(userID string) bool {
	for _, id := range f.LikerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CommentView is a comment with its author.
type CommentView struct {
	Comment
	Author UserSummary `json:"author"`
}

// Thread is a post with all of its comments, oldest first.
type Thread struct {
	FeedItem
	Comments []CommentView `json:"comments"`
}

// Contributor is an author of posts about a book.
type Contributor struct {
	User      UserSummary `json:"user"`
	PostCount int         `json:"post_count"`
}
