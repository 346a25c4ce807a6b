package domain

import (
	"strings"
	"time"
)

// DefaultAuthor is recorded when an upload does not name an author.
const DefaultAuthor = "Unknown Author"

// Book is an uploaded EPUB.
type Book struct {
	Record
	Title            string `json:"title"`
	Author           string `json:"author"`
	FileURL          string `json:"file_url"`
	FileSize         int64  `json:"file_size"`
	OriginalFileName string `json:"original_file_name"`
	CoverURL         string `json:"cover_url,omitempty"`
	CoverBlurHash    string `json:"cover_blur_hash,omitempty"`
	UploaderID       string `json:"uploader_id"`

	// LastAccessedAt is the requesting user's last open time; nil when never opened.
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// RecencyTime is the time a book is sorted by in a user's library.
func (b *Book) RecencyTime() time.Time {
	if b.LastAccessedAt != nil {
		return *b.LastAccessedAt
	}
	return b.CreatedAt
}

// TitleFromFileName derives a default title from an uploaded file name.
func TitleFromFileName(name string) string {
	if len(name) >= 5 && strings.EqualFold(name[len(name)-5:], ".epub") {
		return name[:len(name)-5]
	}
	return name
}

// BookSummary is the book block embedded in feed items.
type BookSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// BookAccess records when a user last opened a book.
type BookAccess struct {
	UserID     string    `json:"user_id"`
	BookID     string    `json:"book_id"`
	AccessedAt time.Time `json:"accessed_at"`
}
