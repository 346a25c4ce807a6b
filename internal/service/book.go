package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfside/shelfside/internal/domain"
	domainerrors "github.com/shelfside/shelfside/internal/errors"
	"github.com/shelfside/shelfside/internal/id"
	"github.com/shelfside/shelfside/internal/media"
	"github.com/shelfside/shelfside/internal/search"
	"github.com/shelfside/shelfside/internal/store"
	"github.com/shelfside/shelfside/internal/store/sqlite"
)

// BookLimits bounds upload sizes in bytes. Zero disables a limit.
type BookLimits struct {
	MaxBookBytes  int64
	MaxCoverBytes int64
}

// BookService manages the shared library.
type BookService struct {
	store  *sqlite.Store
	index  *search.BookIndex
	files  *media.Storage
	limits BookLimits
	logger *slog.Logger
	now    Clock
}

// NewBookService creates a book service.
func NewBookService(st *sqlite.Store, index *search.BookIndex, files *media.Storage, limits BookLimits, logger *slog.Logger) *BookService {
	return &BookService{store: st, index: index, files: files, limits: limits, logger: logger, now: time.Now}
}

// List returns every book, most recently opened by userID first.
func (s *BookService) List(ctx context.Context, userID string) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}

// Get returns one book with userID's last access time.
func (s *BookService) Get(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	b, err := s.store.GetBook(ctx, bookID, userID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return b, nil
}

// Search returns books matching q by title or author, best match first.
func (s *BookService) Search(ctx context.Context, userID, q string, limit int) ([]*domain.Book, error) {
	hits, err := s.index.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}

	books := make([]*domain.Book, 0, len(hits))
	for _, h := range hits {
		b, err := s.store.GetBook(ctx, h.ID, userID)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("search hit for missing book", "book_id", h.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// UploadRequest is a new EPUB and its optional metadata.
type UploadRequest struct {
	FileName   string
	FileSize   int64
	Content    io.Reader
	Title      string
	Author     string
	CoverData  string // data:image/...;base64 URL extracted by the client
	UploaderID string
}

// FindDuplicate returns a book uploaded from the same file name with the same
// size, if any.
func (s *BookService) FindDuplicate(ctx context.Context, fileName string, fileSize int64) (*domain.Book, bool, error) {
	b, err := s.store.FindDuplicateBook(ctx, fileName, fileSize)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Upload stores an EPUB with its cover and adds it to the library and the
// search index. A file already uploaded under the same name and size is
// rejected with a conflict naming the existing book.
func (s *BookService) Upload(ctx context.Context, req UploadRequest) (*domain.Book, error) {
	if req.FileName == "" || req.Content == nil {
		return nil, domainerrors.Validation("No file uploaded")
	}
	if !strings.EqualFold(fileExt(req.FileName), ".epub") {
		return nil, domainerrors.Validation("Only EPUB files can be uploaded")
	}

	if dup, found, err := s.FindDuplicate(ctx, req.FileName, req.FileSize); err != nil {
		return nil, err
	} else if found {
		return nil, domainerrors.Conflict("This book has already been uploaded").
			WithDetails(map[string]string{"book_id": dup.ID, "title": dup.Title})
	}

	stored, err := s.files.Save(media.KindBooks, s.files.StampedName(req.FileName), req.Content, s.limits.MaxBookBytes)
	if errors.Is(err, media.ErrTooLarge) {
		return nil, domainerrors.Validationf("Book file exceeds %d bytes", s.limits.MaxBookBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("save book file: %w", err)
	}

	now := s.now()
	book := &domain.Book{
		Record:           domain.Record{ID: id.MustGenerate(id.PrefixBook), CreatedAt: now, UpdatedAt: now},
		Title:            strings.TrimSpace(req.Title),
		Author:           strings.TrimSpace(req.Author),
		FileURL:          stored.URL,
		FileSize:         stored.Size,
		OriginalFileName: req.FileName,
		UploaderID:       req.UploaderID,
	}
	if book.Title == "" {
		book.Title = domain.TitleFromFileName(req.FileName)
	}
	if book.Author == "" {
		book.Author = domain.DefaultAuthor
	}

	if req.CoverData != "" {
		s.saveCover(book, req.CoverData)
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		s.removeFiles(book)
		return nil, translateStoreError(err)
	}

	if err := s.index.Index(search.FromBook(book)); err != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}

	s.logger.Info("book uploaded",
		"book_id", book.ID,
		"title", book.Title,
		"size", book.FileSize,
		"uploader_id", req.UploaderID,
	)
	return book, nil
}

// saveCover stores a cover sent as a data URL. A bad cover is logged and
// skipped; the book is still created.
func (s *BookService) saveCover(book *domain.Book, dataURL string) {
	data, _, err := media.DecodeDataURL(dataURL)
	if err != nil {
		s.logger.Warn("ignoring invalid cover", "book_id", book.ID, "error", err)
		return
	}
	if s.limits.MaxCoverBytes > 0 && int64(len(data)) > s.limits.MaxCoverBytes {
		s.logger.Warn("ignoring oversized cover", "book_id", book.ID, "size", len(data))
		return
	}

	stored, err := s.files.SaveBytes(media.KindCovers, s.files.StampedName("cover.jpg"), data)
	if err != nil {
		s.logger.Warn("failed to save cover", "book_id", book.ID, "error", err)
		return
	}
	book.CoverURL = stored.URL

	if hash, err := media.ComputeBlurHash(data); err != nil {
		s.logger.Debug("failed to compute cover blurhash", "book_id", book.ID, "error", err)
	} else {
		book.CoverBlurHash = hash
	}
}

// Delete removes a book, its discussion, its access records, its files and
// its search entry. File and index cleanup is best-effort.
func (s *BookService) Delete(ctx context.Context, bookID string) error {
	book, err := s.store.GetBook(ctx, bookID, "")
	if err != nil {
		return translateStoreError(err)
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return translateStoreError(err)
	}

	s.removeFiles(book)
	if err := s.index.Delete(bookID); err != nil {
		s.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
	}

	s.logger.Info("book deleted", "book_id", bookID, "title", book.Title)
	return nil
}

func (s *BookService) removeFiles(book *domain.Book) {
	for _, u := range []string{book.FileURL, book.CoverURL} {
		if u == "" {
			continue
		}
		if err := s.files.DeleteByURL(u); err != nil {
			s.logger.Warn("failed to delete book file", "book_id", book.ID, "url", u, "error", err)
		}
	}
}

// RecordAccess marks that userID opened bookID now.
func (s *BookService) RecordAccess(ctx context.Context, userID, bookID string) (time.Time, error) {
	if _, err := s.store.GetBook(ctx, bookID, ""); err != nil {
		return time.Time{}, translateStoreError(err)
	}
	now := s.now()
	if err := s.store.RecordBookAccess(ctx, userID, bookID, now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// Contributors returns who has posted about bookID, most active first.
func (s *BookService) Contributors(ctx context.Context, bookID string) ([]domain.Contributor, error) {
	if _, err := s.store.GetBook(ctx, bookID, ""); err != nil {
		return nil, translateStoreError(err)
	}
	return s.store.ListContributors(ctx, bookID)
}

// ReindexIfEmpty rebuilds the search index from the database when the index
// holds no documents but books exist.
func (s *BookService) ReindexIfEmpty(ctx context.Context) error {
	n, err := s.index.Count()
	if err != nil {
		return fmt.Errorf("count index: %w", err)
	}
	if n > 0 {
		return nil
	}

	books, err := s.store.ListBooks(ctx, "")
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return nil
	}

	docs := make([]search.Document, len(books))
	for i, b := range books {
		docs[i] = search.FromBook(b)
	}
	if err := s.index.IndexAll(docs); err != nil {
		return fmt.Errorf("reindex books: %w", err)
	}
	s.logger.Info("search index rebuilt", "books", len(docs))
	return nil
}

func fileExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
