package postgres

import (
	"context"
	"fmt"
	"strings"

	"quadsync/internal/rdf"
	"quadsync/internal/store"
)

func (c *Client) Search(ctx context.Context, query, graph string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sql := `
SELECT graph, subject, predicate, value,
    ts_rank(search_vector, websearch_to_tsquery('simple', $1)) AS score,
    ts_headline('simple', value, websearch_to_tsquery('simple', $1),
        'MaxFragments=1, MaxWords=20, MinWords=5, StartSel=**, StopSel=**') AS snippet
FROM quads
WHERE search_vector @@ websearch_to_tsquery('simple', $1)
  AND ($2 = '' OR graph = $2)
ORDER BY score DESC, subject ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query, graph)
	if err != nil {
		return nil, fmt.Errorf("searching literals: %w", err)
	}
	defer rows.Close()

	results := make([]store.SearchResult, 0)
	for rows.Next() {
		var r store.SearchResult
		var subject, predicate string
		var score float32
		if err := rows.Scan(&r.Graph, &subject, &predicate, &r.Value, &score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = float64(score)
		r.Subject = termURI(subject)
		r.Predicate = termURI(predicate)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

func termURI(encoded string) string {
	t, err := rdf.ParseTerm(encoded)
	if err != nil {
		return encoded
	}
	return t.URI()
}
