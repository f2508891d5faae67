package db

// SchemaVersion is the current database schema version
const SchemaVersion = 2

const schema = `
-- Sync operations table
CREATE TABLE IF NOT EXISTS sync_operations (
    id TEXT PRIMARY KEY,
    components_affected TEXT NOT NULL DEFAULT '[]',
    direction_modes TEXT NOT NULL DEFAULT '{}',
    diff_summary TEXT NOT NULL DEFAULT '{}',
    operation_hash TEXT NOT NULL UNIQUE,
    reversible_until DATETIME,
    status TEXT NOT NULL DEFAULT 'pending',
    duration_ms INTEGER DEFAULT 0,
    created_at DATETIME NOT NULL
);

-- Undo stack table, one entry per reversible operation
CREATE TABLE IF NOT EXISTS undo_stack (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    operation_id TEXT NOT NULL UNIQUE,
    pre_state_hash TEXT NOT NULL DEFAULT '',
    post_state_hash TEXT NOT NULL DEFAULT '',
    expiration DATETIME NOT NULL,
    undone_at DATETIME,
    created_at DATETIME NOT NULL,
    FOREIGN KEY (operation_id) REFERENCES sync_operations(id)
);

CREATE INDEX IF NOT EXISTS idx_sync_operations_created ON sync_operations(created_at);

-- Schema metadata
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
