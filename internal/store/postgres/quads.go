package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"quadsync/internal/rdf"
	"quadsync/internal/store"
)

const insertQuad = `
INSERT INTO quads (graph, subject, predicate, object, value)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (graph, subject, predicate, object) DO NOTHING
`

func (c *Client) AddQuads(ctx context.Context, graph string, quads []rdf.Quad) (int64, error) {
	var added int64
	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		var err error
		added, err = insertQuads(ctx, tx, graph, quads)
		return err
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func insertQuads(ctx context.Context, tx pgx.Tx, graph string, quads []rdf.Quad) (int64, error) {
	batch := &pgx.Batch{}
	for _, q := range quads {
		row := store.RowFor(q)
		batch.Queue(insertQuad, graph, row.Subject, row.Predicate, row.Object, store.SearchValue(q.Object))
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	var added int64
	for range quads {
		tag, err := results.Exec()
		if err != nil {
			return 0, fmt.Errorf("inserting quad: %w", err)
		}
		added += tag.RowsAffected()
	}
	return added, nil
}

func (c *Client) RemoveQuads(ctx context.Context, graph string, quads []rdf.Quad) (int64, error) {
	var removed int64
	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, q := range quads {
			row := store.RowFor(q)
			batch.Queue(`DELETE FROM quads WHERE graph = $1 AND subject = $2 AND predicate = $3 AND object = $4`,
				graph, row.Subject, row.Predicate, row.Object)
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range quads {
			tag, err := results.Exec()
			if err != nil {
				return fmt.Errorf("deleting quad: %w", err)
			}
			removed += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (c *Client) ReplaceSubject(ctx context.Context, graph string, subject rdf.Term, quads []rdf.Quad) error {
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM quads WHERE graph = $1 AND subject = $2`, graph, subject.String()); err != nil {
			return fmt.Errorf("clearing subject: %w", err)
		}
		_, err := insertQuads(ctx, tx, graph, quads)
		return err
	})
}

func (c *Client) RemoveGraph(ctx context.Context, graph string) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM quads WHERE graph = $1`, graph)
	if err != nil {
		return 0, fmt.Errorf("removing graph: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GraphQuads(ctx context.Context, graph string) ([]rdf.Quad, error) {
	rows, err := c.pool.Query(ctx, `SELECT subject, predicate, object FROM quads WHERE graph = $1 ORDER BY id`, graph)
	if err != nil {
		return nil, fmt.Errorf("querying graph: %w", err)
	}
	return scanQuads(rows)
}

func (c *Client) SubjectQuads(ctx context.Context, subject rdf.Term) ([]rdf.Quad, error) {
	rows, err := c.pool.Query(ctx, `
SELECT DISTINCT subject, predicate, object FROM quads WHERE subject = $1 ORDER BY predicate, object
`, subject.String())
	if err != nil {
		return nil, fmt.Errorf("querying subject: %w", err)
	}
	return scanQuads(rows)
}

func scanQuads(rows pgx.Rows) ([]rdf.Quad, error) {
	defer rows.Close()

	quads := make([]rdf.Quad, 0)
	for rows.Next() {
		var row store.Row
		if err := rows.Scan(&row.Subject, &row.Predicate, &row.Object); err != nil {
			return nil, fmt.Errorf("scanning quad: %w", err)
		}
		q, err := row.Quad()
		if err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quads: %w", err)
	}
	return quads, nil
}

func (c *Client) ListGraphs(ctx context.Context) ([]store.GraphSummary, error) {
	rows, err := c.pool.Query(ctx, `SELECT graph, COUNT(*) FROM quads GROUP BY graph ORDER BY graph`)
	if err != nil {
		return nil, fmt.Errorf("listing graphs: %w", err)
	}
	defer rows.Close()

	graphs := make([]store.GraphSummary, 0)
	for rows.Next() {
		var g store.GraphSummary
		if err := rows.Scan(&g.Name, &g.Quads); err != nil {
			return nil, fmt.Errorf("scanning graph: %w", err)
		}
		graphs = append(graphs, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating graphs: %w", err)
	}
	return graphs, nil
}

func (c *Client) SeedHashes(ctx context.Context, graph string) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, `SELECT path, hash FROM seed_files WHERE graph = $1`, graph)
	if err != nil {
		return nil, fmt.Errorf("query seed hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scanning seed hash: %w", err)
		}
		hashes[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating seed hashes: %w", err)
	}
	return hashes, nil
}

func (c *Client) RecordSeedHash(ctx context.Context, graph, path, hash string) error {
	_, err := c.pool.Exec(ctx, `
INSERT INTO seed_files (graph, path, hash) VALUES ($1, $2, $3)
ON CONFLICT (graph, path) DO UPDATE SET hash = EXCLUDED.hash, loaded = now()
`, graph, path, hash)
	if err != nil {
		return fmt.Errorf("recording seed hash: %w", err)
	}
	return nil
}
