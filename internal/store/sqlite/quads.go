package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"quadsync/internal/rdf"
	"quadsync/internal/store"
)

func (c *Client) AddQuads(ctx context.Context, graph string, quads []rdf.Quad) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	added, err := insertQuads(ctx, tx, graph, quads)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing quads: %w", err)
	}
	return added, nil
}

func insertQuads(ctx context.Context, tx *sql.Tx, graph string, quads []rdf.Quad) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO quads (graph, subject, predicate, object, value)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var added int64
	for _, q := range quads {
		row := store.RowFor(q)
		result, err := stmt.ExecContext(ctx, graph, row.Subject, row.Predicate, row.Object, store.SearchValue(q.Object))
		if err != nil {
			return 0, fmt.Errorf("inserting quad: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("getting rows affected: %w", err)
		}
		added += n
	}
	return added, nil
}

func (c *Client) RemoveQuads(ctx context.Context, graph string, quads []rdf.Quad) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	DELETE FROM quads WHERE graph = ? AND subject = ? AND predicate = ? AND object = ?
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing delete: %w", err)
	}
	defer stmt.Close()

	var removed int64
	for _, q := range quads {
		row := store.RowFor(q)
		result, err := stmt.ExecContext(ctx, graph, row.Subject, row.Predicate, row.Object)
		if err != nil {
			return 0, fmt.Errorf("deleting quad: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("getting rows affected: %w", err)
		}
		removed += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing removal: %w", err)
	}
	return removed, nil
}

func (c *Client) ReplaceSubject(ctx context.Context, graph string, subject rdf.Term, quads []rdf.Quad) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM quads WHERE graph = ? AND subject = ?", graph, subject.String()); err != nil {
		return fmt.Errorf("clearing subject: %w", err)
	}
	if _, err := insertQuads(ctx, tx, graph, quads); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing subject: %w", err)
	}
	return nil
}

func (c *Client) RemoveGraph(ctx context.Context, graph string) (int64, error) {
	result, err := c.db.ExecContext(ctx, "DELETE FROM quads WHERE graph = ?", graph)
	if err != nil {
		return 0, fmt.Errorf("removing graph: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}

func (c *Client) GraphQuads(ctx context.Context, graph string) ([]rdf.Quad, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT subject, predicate, object FROM quads WHERE graph = ? ORDER BY id
	`, graph)
	if err != nil {
		return nil, fmt.Errorf("querying graph: %w", err)
	}
	return scanQuads(rows)
}

func (c *Client) SubjectQuads(ctx context.Context, subject rdf.Term) ([]rdf.Quad, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT DISTINCT subject, predicate, object FROM quads WHERE subject = ? ORDER BY predicate, object
	`, subject.String())
	if err != nil {
		return nil, fmt.Errorf("querying subject: %w", err)
	}
	return scanQuads(rows)
}

func scanQuads(rows *sql.Rows) ([]rdf.Quad, error) {
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
	rows, err := c.db.QueryContext(ctx, "SELECT graph, COUNT(*) FROM quads GROUP BY graph ORDER BY graph")
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
	rows, err := c.db.QueryContext(ctx, "SELECT path, hash FROM seed_files WHERE graph = ?", graph)
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
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO seed_files (graph, path, hash) VALUES (?, ?, ?)
	ON CONFLICT (graph, path) DO UPDATE SET hash = excluded.hash, loaded = datetime('now')
	`, graph, path, hash)
	if err != nil {
		return fmt.Errorf("recording seed hash: %w", err)
	}
	return nil
}
