package store

// Schema is the SQL schema of a project database. Row order (rowid) is the
// stable input order handed to the scheduler.
const Schema = `
CREATE TABLE IF NOT EXISTS work_items (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL DEFAULT '',
    duration_days INTEGER NULL CHECK(duration_days IS NULL OR duration_days >= 0),
    start_date    TEXT NULL,
    end_date      TEXT NULL,
    start_after   TEXT NULL,
    start_before  TEXT NULL,
    -- written by rescheduling; start_date and end_date stay as the user set them
    scheduled_start TEXT NULL,
    scheduled_end   TEXT NULL,
    status        TEXT NOT NULL DEFAULT 'not_started'
                  CHECK(status IN ('not_started', 'in_progress', 'completed', 'blocked')),
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS dependencies (
    predecessor_id  TEXT NOT NULL REFERENCES work_items(id) ON DELETE CASCADE,
    successor_id    TEXT NOT NULL REFERENCES work_items(id) ON DELETE CASCADE,
    dependency_type TEXT NOT NULL DEFAULT 'finish_to_start'
                    CHECK(dependency_type IN ('finish_to_start', 'start_to_start', 'finish_to_finish', 'start_to_finish')),
    lead_lag_days   INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (predecessor_id, successor_id),
    CHECK(predecessor_id <> successor_id)
);

CREATE INDEX IF NOT EXISTS idx_dependencies_successor ON dependencies(successor_id);

CREATE TABLE IF NOT EXISTS milestones (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    target_date  TEXT NOT NULL,
    is_completed INTEGER NOT NULL DEFAULT 0,
    completed_at TEXT NULL,
    created_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS milestone_links (
    milestone_id TEXT NOT NULL REFERENCES milestones(id) ON DELETE CASCADE,
    work_item_id TEXT NOT NULL REFERENCES work_items(id) ON DELETE CASCADE,
    role         TEXT NOT NULL CHECK(role IN ('contributor', 'dependent')),
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (milestone_id, work_item_id)
);

CREATE INDEX IF NOT EXISTS idx_milestone_links_item ON milestone_links(work_item_id);
`
