package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT,
	metadata    TEXT NOT NULL DEFAULT '{}',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS timelines (
	id                 TEXT PRIMARY KEY,
	project_id         TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	user_id            TEXT NOT NULL,
	name               TEXT NOT NULL,
	description        TEXT,
	parent_timeline_id TEXT REFERENCES timelines(id) ON DELETE CASCADE,
	status             TEXT NOT NULL,
	metadata           TEXT NOT NULL DEFAULT '{}',
	created_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id               TEXT PRIMARY KEY,
	timeline_id      TEXT NOT NULL REFERENCES timelines(id) ON DELETE CASCADE,
	timestamp        TEXT NOT NULL,
	end_timestamp    TEXT,
	event_type       TEXT NOT NULL,
	description      TEXT NOT NULL,
	importance_score TEXT NOT NULL,
	detail_level     INTEGER NOT NULL,
	state_delta      TEXT NOT NULL DEFAULT '{}',
	metadata         TEXT NOT NULL DEFAULT '{}',
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entities (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	entity_type TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	properties  TEXT NOT NULL DEFAULT '{}',
	created_at  TEXT NOT NULL
);

-- endpoints are polymorphic so they carry no foreign keys
CREATE TABLE IF NOT EXISTS relationships (
	id            TEXT PRIMARY KEY,
	source_id     TEXT NOT NULL,
	source_type   TEXT NOT NULL,
	target_id     TEXT NOT NULL,
	target_type   TEXT NOT NULL,
	relation_type TEXT NOT NULL,
	strength      TEXT NOT NULL,
	valid_from    TEXT,
	valid_until   TEXT,
	metadata      TEXT NOT NULL DEFAULT '{}',
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS state_snapshots (
	id          TEXT PRIMARY KEY,
	timeline_id TEXT NOT NULL REFERENCES timelines(id) ON DELETE CASCADE,
	timestamp   TEXT NOT NULL,
	state       TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_entity_links (
	event_id  TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
	role      TEXT NOT NULL,
	PRIMARY KEY (event_id, entity_id, role)
);

CREATE INDEX IF NOT EXISTS idx_projects_user ON projects (user_id);
CREATE INDEX IF NOT EXISTS idx_timelines_project ON timelines (project_id);
CREATE INDEX IF NOT EXISTS idx_timelines_parent ON timelines (parent_timeline_id);
CREATE INDEX IF NOT EXISTS idx_events_timeline ON events (timeline_id);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events (timestamp);
CREATE INDEX IF NOT EXISTS idx_entities_project ON entities (project_id);
CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships (source_id, source_type);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships (target_id, target_type);
CREATE INDEX IF NOT EXISTS idx_snapshots_timeline ON state_snapshots (timeline_id);
CREATE INDEX IF NOT EXISTS idx_links_event ON event_entity_links (event_id);
CREATE INDEX IF NOT EXISTS idx_links_entity ON event_entity_links (entity_id);
`

func (c *Client) Initialize(ctx context.Context) error {
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

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}
