package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// A single multi-statement Exec runs in one implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS quads (
    id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    graph      TEXT NOT NULL,
    subject    TEXT NOT NULL,
    predicate  TEXT NOT NULL,
    object     TEXT NOT NULL,
    value      TEXT NOT NULL DEFAULT '',
    added      TIMESTAMPTZ DEFAULT now(),
    CONSTRAINT uq_quad UNIQUE (graph, subject, predicate, object)
);

ALTER TABLE quads ADD COLUMN IF NOT EXISTS search_vector TSVECTOR
    GENERATED ALWAYS AS (to_tsvector('simple', value)) STORED;

CREATE TABLE IF NOT EXISTS seed_files (
    graph  TEXT NOT NULL,
    path   TEXT NOT NULL,
    hash   TEXT NOT NULL,
    loaded TIMESTAMPTZ DEFAULT now(),
    PRIMARY KEY (graph, path)
);

CREATE INDEX IF NOT EXISTS idx_quads_graph ON quads (graph);
CREATE INDEX IF NOT EXISTS idx_quads_subject ON quads (subject);
CREATE INDEX IF NOT EXISTS idx_quads_graph_subject ON quads (graph, subject);
CREATE INDEX IF NOT EXISTS idx_quads_object ON quads (object);
CREATE INDEX IF NOT EXISTS idx_quads_search ON quads USING GIN (search_vector);
`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
