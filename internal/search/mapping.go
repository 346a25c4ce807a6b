package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/shelfside/shelfside/internal/domain"
)

// Document is the indexed form of a book.
type Document struct {
	ID     string
	Title  string
	Author string
}

// FromBook returns the document for b.
func FromBook(b *domain.Book) Document {
	return Document{ID: b.ID, Title: b.Title, Author: b.Author}
}

func (d Document) fields() map[string]any {
	return map[string]any{"id": d.ID, "title": d.Title, "author": d.Author}
}

// buildIndexMapping stems title and author with the English analyzer and
// keeps id as a single keyword term.
func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = en.AnalyzerName
	title.Store = true
	title.IncludeTermVectors = true
	doc.AddFieldMappingsAt("title", title)

	author := bleve.NewTextFieldMapping()
	author.Analyzer = en.AnalyzerName
	author.Store = true
	doc.AddFieldMappingsAt("author", author)

	id := bleve.NewTextFieldMapping()
	id.Analyzer = keyword.Name
	id.Store = true
	doc.AddFieldMappingsAt("id", id)

	im.AddDocumentMapping("_default", doc)
	return im
}
