package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Hit is one search result.
type Hit struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Score  float64 `json:"score"`
}

// Search returns books whose title or author matches q, best first. Title
// matches rank above author matches; a trailing partial word still matches.
func (b *BookIndex) Search(ctx context.Context, q string, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	req.Fields = []string{"title", "author"}
	req.SortBy([]string{"-_score", "title"})

	b.mu.RLock()
	res, err := b.index.SearchInContext(ctx, req)
	b.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		hit.Title, _ = h.Fields["title"].(string)
		hit.Author, _ = h.Fields["author"].(string)
		hits = append(hits, hit)
	}
	return hits, nil
}

func buildQuery(q string) query.Query {
	title := bleve.NewMatchQuery(q)
	title.SetField("title")
	title.SetBoost(3)

	author := bleve.NewMatchQuery(q)
	author.SetField("author")
	author.SetBoost(1.5)

	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
	fuzzy.SetField("title")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)

	queries := []query.Query{title, author, fuzzy}

	// Prefix on the last word for search-as-you-type.
	words := strings.Fields(strings.ToLower(q))
	if last := words[len(words)-1]; len(last) >= 2 {
		for _, field := range []string{"title", "author"} {
			p := bleve.NewPrefixQuery(last)
			p.SetField(field)
			p.SetBoost(0.5)
			queries = append(queries, p)
		}
	}

	return bleve.NewDisjunctionQuery(queries...)
}
