package postgres

import (
	"context"
	"fmt"
)

// All DDL runs in one implicit transaction and is idempotent.
const ddl = `
CREATE TABLE IF NOT EXISTS projects (
    id          UUID PRIMARY KEY,
    user_id     UUID NOT NULL,
    name        TEXT NOT NULL,
    description TEXT,
    metadata    JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS timelines (
    id                 UUID PRIMARY KEY,
    project_id         UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    user_id            UUID NOT NULL,
    name               TEXT NOT NULL,
    description        TEXT,
    parent_timeline_id UUID REFERENCES timelines(id) ON DELETE CASCADE,
    status             TEXT NOT NULL,
    metadata           JSONB NOT NULL DEFAULT '{}',
    created_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    id               UUID PRIMARY KEY,
    timeline_id      UUID NOT NULL REFERENCES timelines(id) ON DELETE CASCADE,
    timestamp        TIMESTAMPTZ NOT NULL,
    end_timestamp    TIMESTAMPTZ,
    event_type       TEXT NOT NULL,
    description      TEXT NOT NULL,
    importance_score NUMERIC NOT NULL,
    detail_level     SMALLINT NOT NULL,
    state_delta      JSONB NOT NULL DEFAULT '{}',
    metadata         JSONB NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS entities (
    id          UUID PRIMARY KEY,
    project_id  UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    entity_type TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT NOT NULL,
    properties  JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS relationships (
    id            UUID PRIMARY KEY,
    source_id     UUID NOT NULL,
    source_type   TEXT NOT NULL,
    target_id     UUID NOT NULL,
    target_type   TEXT NOT NULL,
    relation_type TEXT NOT NULL,
    strength      NUMERIC NOT NULL,
    valid_from    TIMESTAMPTZ,
    valid_until   TIMESTAMPTZ,
    metadata      JSONB NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS state_snapshots (
    id          UUID PRIMARY KEY,
    timeline_id UUID NOT NULL REFERENCES timelines(id) ON DELETE CASCADE,
    timestamp   TIMESTAMPTZ NOT NULL,
    state       JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS event_entity_links (
    event_id   UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    entity_id  UUID NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    role       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (event_id, entity_id, role)
);

CREATE INDEX IF NOT EXISTS idx_projects_user ON projects (user_id);
CREATE INDEX IF NOT EXISTS idx_timelines_project ON timelines (project_id);
CREATE INDEX IF NOT EXISTS idx_timelines_parent ON timelines (parent_timeline_id);
CREATE INDEX IF NOT EXISTS idx_events_timeline ON events (timeline_id);
CREATE INDEX IF NOT EXISTS idx_events_timeline_ts ON events (timeline_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_entities_project ON entities (project_id);
CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships (source_id, source_type);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships (target_id, target_type);
CREATE INDEX IF NOT EXISTS idx_snapshots_timeline ON state_snapshots (timeline_id);
CREATE INDEX IF NOT EXISTS idx_links_entity ON event_entity_links (entity_id);
`

func (c *Client) Initialize(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
