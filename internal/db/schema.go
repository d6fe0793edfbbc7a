package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Auth tokens are deliberately absent:
// they live in the cache only.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS locations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    room_type  TEXT CHECK (room_type IS NULL OR room_type IN
                   ('living_room', 'kitchen', 'bedroom', 'office',
                    'attic', 'basement', 'garage', 'other')),
    parent_id  INTEGER REFERENCES locations(id),
    is_box     INTEGER NOT NULL DEFAULT 0,
    image      BLOB,
    image_mime TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_locations_parent ON locations(parent_id);
CREATE INDEX IF NOT EXISTS idx_locations_room_type ON locations(room_type);

CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT,
    quantity    INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1 AND quantity <= 10000),
    condition   TEXT NOT NULL DEFAULT 'good' CHECK (condition IN
                    ('excellent', 'good', 'fair', 'damaged', 'poor')),
    location_id INTEGER NOT NULL REFERENCES locations(id),
    image       BLOB,
    image_mime  TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_items_location ON items(location_id);
CREATE INDEX IF NOT EXISTS idx_items_condition ON items(condition);

CREATE TABLE IF NOT EXISTS item_logs (
    id        INTEGER PRIMARY KEY,
    item_id   INTEGER NOT NULL REFERENCES items(id),
    action    TEXT NOT NULL CHECK (action IN ('created', 'updated', 'moved', 'deleted')),
    details   TEXT,
    user_id   INTEGER REFERENCES users(id),
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_item_logs_item ON item_logs(item_id);
CREATE INDEX IF NOT EXISTS idx_item_logs_action ON item_logs(action);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
