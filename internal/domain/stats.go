package domain

// AdminStats are the headline counts on the admin dashboard.
type AdminStats struct {
	Users    int `json:"users"`
	Books    int `json:"books"`
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

// BookDiscussion is a book with the size of its discussion.
type BookDiscussion struct {
	Book
	PostCount    int `json:"post_count"`
	CommentCount int `json:"comment_count"`
}

// ProfileStats counts a user's activity.
type ProfileStats struct {
	BooksAccessed int `json:"books_accessed"`
	Posts         int `json:"posts"`
	Comments      int `json:"comments"`
}

// Profile is a user with their activity counts.
type Profile struct {
	User  *User        `json:"user"`
	Stats ProfileStats `json:"stats"`
}
