// Package search provides full-text search over book titles and authors.
package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// BookIndex wraps a Bleve index of books.
// All methods are safe for concurrent use.
type BookIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the index.
type Options struct {
	DataPath string       // directory holding the index
	Logger   *slog.Logger // discards when nil
}

// mappingVersion changes whenever buildIndexMapping does; a mismatch on
// startup recreates the index.
const mappingVersion = "1"

const (
	indexDirName    = "books.bleve"
	versionFileName = "books.version"
)

// Open opens the index under opts.DataPath, creating it when missing,
// unreadable or built with an older mapping. Callers should reindex when
// Created reports true.
func Open(opts Options) (*BookIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create search directory: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, indexDirName)
	versionPath := filepath.Join(opts.DataPath, versionFileName)

	var index bleve.Index
	if _, err := os.Stat(indexPath); err == nil {
		v, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(v) != mappingVersion:
			logger.Info("search mapping changed, rebuilding", "old_version", string(v), "new_version", mappingVersion)
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open search index, recreating", "path", indexPath, "error", err)
				index = nil
			}
		}
	}

	b := &BookIndex{path: indexPath, logger: logger}
	if index != nil {
		b.index = index
		logger.Info("opened search index", "path", indexPath)
		return b, nil
	}

	if err := b.create(versionPath); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *BookIndex) create(versionPath string) error {
	if err := os.RemoveAll(b.path); err != nil {
		return fmt.Errorf("remove old index: %w", err)
	}
	index, err := bleve.New(b.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
		b.logger.Warn("failed to write search version file", "error", err)
	}
	b.index = index
	b.logger.Info("created search index", "path", b.path, "mapping_version", mappingVersion)
	return nil
}

// Close releases the index.
func (b *BookIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}

// Index adds or replaces a book.
func (b *BookIndex) Index(doc Document) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Index(doc.ID, doc.fields())
}

// IndexAll indexes docs in batches.
func (b *BookIndex) IndexAll(docs []Document) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	const batchSize = 500
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		batch := b.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.fields()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// Delete removes a book.
func (b *BookIndex) Delete(id string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Delete(id)
}

// Count returns the number of indexed books.
func (b *BookIndex) Count() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Rebuild empties the index and indexes docs.
func (b *BookIndex) Rebuild(docs []Document) error {
	b.mu.Lock()
	if err := b.index.Close(); err != nil {
		b.mu.Unlock()
		return fmt.Errorf("close index: %w", err)
	}
	err := b.create(filepath.Join(filepath.Dir(b.path), versionFileName))
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.IndexAll(docs)
}
