package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfside/shelfside/internal/domain"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns every book, most recently opened by the caller first",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Full-text search over titles and authors",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "findDuplicateBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/duplicate",
		Summary:     "Find duplicate upload",
		Description: "Reports whether a file with this name and size was already uploaded",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFindDuplicate)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with the caller's last access time",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordBookAccess",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/access",
		Summary:     "Record book access",
		Description: "Marks that the caller opened the book now",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRecordAccess)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookContributors",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/contributors",
		Summary:     "List book contributors",
		Description: "Returns the users who posted about the book, most active first",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListContributors)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Deletes a book with its files and discussion (admin only)",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)
}

// === DTOs ===

// BookIDInput identifies a book.
type BookIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
}

// BooksResponse contains a list of books.
type BooksResponse struct {
	Books []*domain.Book `json:"books" doc:"Books"`
}

// BooksOutput wraps a list of books for Huma.
type BooksOutput struct {
	Body BooksResponse
}

// BookOutput wraps one book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// SearchBooksInput contains search parameters.
type SearchBooksInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" doc:"Search text"`
	Limit         int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum results"`
}

// FindDuplicateInput identifies an upload by file name and size.
type FindDuplicateInput struct {
	Authorization string `header:"Authorization"`
	FileName      string `query:"file_name" required:"true" doc:"Original file name"`
	FileSize      int64  `query:"file_size" required:"true" minimum:"0" doc:"File size in bytes"`
}

// DuplicateResponse reports an existing upload.
type DuplicateResponse struct {
	Exists bool         `json:"exists" doc:"Whether a matching book exists"`
	Book   *domain.Book `json:"book,omitempty" doc:"The matching book"`
}

// DuplicateOutput wraps the duplicate check for Huma.
type DuplicateOutput struct {
	Body DuplicateResponse
}

// AccessResponse reports a recorded access.
type AccessResponse struct {
	BookID     string    `json:"book_id" doc:"Book ID"`
	AccessedAt time.Time `json:"accessed_at" doc:"Recorded access time"`
}

// AccessOutput wraps the access response for Huma.
type AccessOutput struct {
	Body AccessResponse
}

// ContributorsResponse lists the users who posted about a book.
type ContributorsResponse struct {
	Contributors []domain.Contributor `json:"contributors" doc:"Contributors, most posts first"`
}

// ContributorsOutput wraps the contributors for Huma.
type ContributorsOutput struct {
	Body ContributorsResponse
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *AuthenticatedInput) (*BooksOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Books.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &BooksOutput{Body: BooksResponse{Books: books}}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*BooksOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Books.Search(ctx, user.ID, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	return &BooksOutput{Body: BooksResponse{Books: books}}, nil
}

func (s *Server) handleFindDuplicate(ctx context.Context, input *FindDuplicateInput) (*DuplicateOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	book, found, err := s.services.Books.FindDuplicate(ctx, input.FileName, input.FileSize)
	if err != nil {
		return nil, err
	}
	return &DuplicateOutput{Body: DuplicateResponse{Exists: found, Book: book}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Books.Get(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleRecordAccess(ctx context.Context, input *BookIDInput) (*AccessOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	at, err := s.services.Books.RecordAccess(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}
	return &AccessOutput{Body: AccessResponse{BookID: input.ID, AccessedAt: at}}, nil
}

func (s *Server) handleListContributors(ctx context.Context, input *BookIDInput) (*ContributorsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	contributors, err := s.services.Books.Contributors(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if contributors == nil {
		contributors = []domain.Contributor{}
	}
	return &ContributorsOutput{Body: ContributorsResponse{Contributors: contributors}}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	admin, err := s.authenticateAndRequireAdmin(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Admin.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}
	s.logger.Info("book deleted via API", "book_id", input.ID, "by", admin.ID)
	return nil, nil
}
