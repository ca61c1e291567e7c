// Copyright 2026 The Dramaforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLArchive persists finished task snapshots to a SQL table. The db
// connection should be shared with other services using the same database
// to prevent SQLite "database is locked" errors.
type SQLArchive struct {
	db      *sql.DB
	dialect string
}

const (
	createArchiveTableSQL = `
CREATE TABLE IF NOT EXISTS task_archive (
    id VARCHAR(255) PRIMARY KEY,
    tenant_id VARCHAR(255) NOT NULL,
    status VARCHAR(32) NOT NULL,
    snapshot_json TEXT NOT NULL,
    completed_at TIMESTAMP,
    archived_at TIMESTAMP NOT NULL
)`

	createArchiveTenantIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_task_archive_tenant_id ON task_archive(tenant_id)`

	createArchiveCompletedAtIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_task_archive_completed_at ON task_archive(completed_at)`
)

// NewSQLArchive creates an archive backed by the given database.
// Supported dialects: postgres, mysql, sqlite.
func NewSQLArchive(db *sql.DB, dialect string) (*SQLArchive, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if dialect == "sqlite3" {
		dialect = "sqlite"
	}
	switch dialect {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	a := &SQLArchive{db: db, dialect: dialect}
	if err := a.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return a, nil
}

// initSchema creates the archive table and indexes. Separate statements
// keep SQLite happy.
func (a *SQLArchive) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := a.db.ExecContext(ctx, createArchiveTableSQL); err != nil {
		return fmt.Errorf("failed to create task_archive table: %w", err)
	}
	if _, err := a.db.ExecContext(ctx, createArchiveTenantIndexSQL); err != nil {
		return fmt.Errorf("failed to create tenant_id index: %w", err)
	}
	if _, err := a.db.ExecContext(ctx, createArchiveCompletedAtIndexSQL); err != nil {
		return fmt.Errorf("failed to create completed_at index: %w", err)
	}
	return nil
}

// Archive writes the snapshots, upserting on task ID so a re-archived task
// keeps a single row.
func (a *SQLArchive) Archive(ctx context.Context, snapshots []Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	query := `
INSERT INTO task_archive (id, tenant_id, status, snapshot_json, completed_at, archived_at)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    status = VALUES(status),
    snapshot_json = VALUES(snapshot_json),
    completed_at = VALUES(completed_at),
    archived_at = VALUES(archived_at)
`
	switch a.dialect {
	case "postgres":
		query = `
INSERT INTO task_archive (id, tenant_id, status, snapshot_json, completed_at, archived_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status,
    snapshot_json = EXCLUDED.snapshot_json,
    completed_at = EXCLUDED.completed_at,
    archived_at = EXCLUDED.archived_at
`
	case "sqlite":
		query = `
INSERT INTO task_archive (id, tenant_id, status, snapshot_json, completed_at, archived_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    status = excluded.status,
    snapshot_json = excluded.snapshot_json,
    completed_at = excluded.completed_at,
    archived_at = excluded.archived_at
`
	}

	now := time.Now()
	for _, snapshot := range snapshots {
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to serialize task %s: %w", snapshot.ID, err)
		}

		var completedAt interface{}
		if snapshot.CompletedAt != nil {
			completedAt = *snapshot.CompletedAt
		}

		if _, err := a.db.ExecContext(ctx, query,
			snapshot.ID, snapshot.TenantID, string(snapshot.Status),
			string(payload), completedAt, now,
		); err != nil {
			return fmt.Errorf("failed to archive task %s: %w", snapshot.ID, err)
		}
	}
	return nil
}

// Load reads one archived snapshot by task ID. Returns sql.ErrNoRows when
// the task was never archived.
func (a *SQLArchive) Load(ctx context.Context, taskID string) (*Snapshot, error) {
	query := `SELECT snapshot_json FROM task_archive WHERE id = ?`
	if a.dialect == "postgres" {
		query = `SELECT snapshot_json FROM task_archive WHERE id = $1`
	}

	var payload string
	if err := a.db.QueryRowContext(ctx, query, taskID).Scan(&payload); err != nil {
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to deserialize task %s: %w", taskID, err)
	}
	return &snapshot, nil
}
