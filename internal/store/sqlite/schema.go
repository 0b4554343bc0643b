package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS quads (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		graph      TEXT NOT NULL,
		subject    TEXT NOT NULL,
		predicate  TEXT NOT NULL,
		object     TEXT NOT NULL,
		value      TEXT NOT NULL DEFAULT '',
		added      TEXT DEFAULT (datetime('now')),
		CONSTRAINT uq_quad UNIQUE (graph, subject, predicate, object)
	);

	CREATE TABLE IF NOT EXISTS seed_files (
		graph  TEXT NOT NULL,
		path   TEXT NOT NULL,
		hash   TEXT NOT NULL,
		loaded TEXT DEFAULT (datetime('now')),
		PRIMARY KEY (graph, path)
	);

	CREATE INDEX IF NOT EXISTS idx_quads_graph ON quads (graph);
	CREATE INDEX IF NOT EXISTS idx_quads_subject ON quads (subject);
	CREATE INDEX IF NOT EXISTS idx_quads_graph_subject ON quads (graph, subject);
	CREATE INDEX IF NOT EXISTS idx_quads_object ON quads (object);

	CREATE VIRTUAL TABLE IF NOT EXISTS quads_fts USING fts5(
		value,
		content=quads,
		content_rowid=id
	);

	CREATE TRIGGER IF NOT EXISTS quads_ai AFTER INSERT ON quads BEGIN
		INSERT INTO quads_fts(rowid, value) VALUES (new.id, new.value);
	END;

	CREATE TRIGGER IF NOT EXISTS quads_ad AFTER DELETE ON quads BEGIN
		INSERT INTO quads_fts(quads_fts, rowid, value) VALUES ('delete', old.id, old.value);
	END;
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// splitStatements cuts the DDL at lines ending in ";", keeping trigger
// bodies whole because their inner statements end mid-block.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(stripped), "CREATE TRIGGER") {
			inTrigger = true
		}
		current.WriteString(line)
		current.WriteString("\n")

		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && !strings.EqualFold(stripped, "END;") {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
