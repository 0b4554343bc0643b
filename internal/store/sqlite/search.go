package sqlite

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

	ftsQuery := convertWebsearchToFTS5(query)

	sqlQuery := `
	SELECT q.graph, q.subject, q.predicate, q.value,
		   bm25(quads_fts) AS score,
		   snippet(quads_fts, 0, '**', '**', '...', 20) AS snippet
	FROM quads_fts
	JOIN quads q ON quads_fts.rowid = q.id
	WHERE quads_fts MATCH ?
	  AND (? = '' OR q.graph = ?)
	ORDER BY score ASC, q.subject ASC
	LIMIT 50
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery, graph, graph)
	if err != nil {
		return nil, fmt.Errorf("searching literals: %w", err)
	}
	defer rows.Close()

	results := make([]store.SearchResult, 0)
	for rows.Next() {
		var r store.SearchResult
		var subject, predicate string
		if err := rows.Scan(&r.Graph, &subject, &predicate, &r.Value, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
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

// convertWebsearchToFTS5 turns websearch syntax (bare words, "phrases",
// -exclusions, OR) into an FTS5 MATCH expression. Adjacent terms are ANDed.
func convertWebsearchToFTS5(query string) string {
	var out []string
	afterOperator := false
	for _, token := range websearchTokens(query) {
		switch upper := strings.ToUpper(token); upper {
		case "AND", "OR", "NOT":
			out = append(out, upper)
			afterOperator = true
			continue
		}
		if len(out) > 0 && !afterOperator {
			out = append(out, "AND")
		}
		if len(token) > 1 && token[0] == '-' {
			token = "NOT " + token[1:]
		}
		out = append(out, token)
		afterOperator = false
	}
	return strings.Join(out, " ")
}

// websearchTokens splits on whitespace, keeping quoted phrases whole and quoted.
func websearchTokens(query string) []string {
	var tokens []string
	var current strings.Builder
	inPhrase := false
	flush := func(quoted bool) {
		if current.Len() == 0 {
			return
		}
		if quoted {
			tokens = append(tokens, `"`+current.String()+`"`)
		} else {
			tokens = append(tokens, current.String())
		}
		current.Reset()
	}
	for _, r := range query {
		switch {
		case r == '"':
			flush(inPhrase)
			inPhrase = !inPhrase
		case inPhrase:
			current.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			flush(false)
		default:
			current.WriteRune(r)
		}
	}
	flush(inPhrase)
	return tokens
}
