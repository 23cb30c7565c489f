// Copyright 2025 Tom Barlow
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

package polling

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// StateManager handles persistence of polling state using SQLite.
type StateManager struct {
	db *sql.DB
}

// StateConfig contains configuration for the state manager.
type StateConfig struct {
	// Path is the filesystem path to the SQLite database file.
	// Default: ~/.local/share/pieces/poll-state.db
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int
}

// NewStateManager creates a new state manager with SQLite backend.
func NewStateManager(cfg StateConfig) (*StateManager, error) {
	if cfg.Path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfg.Path = filepath.Join(homeDir, ".local", "share", "pieces", "poll-state.db")
	}

	connStr := cfg.Path
	maxConns := cfg.MaxOpenConns
	if cfg.Path == ":memory:" {
		// Every connection to :memory: is a separate database.
		maxConns = 1
	} else {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		connStr += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	if maxConns == 0 {
		maxConns = 5
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sm := &StateManager{db: db}
	if err := sm.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return sm, nil
}

func (sm *StateManager) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS poll_state (
		trigger_id TEXT PRIMARY KEY,
		piece TEXT NOT NULL,
		trigger_name TEXT NOT NULL,
		last_fetch_epoch_ms INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		error_count INTEGER NOT NULL DEFAULT 0,
		paused INTEGER NOT NULL DEFAULT 0,
		created_at_ms INTEGER NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_poll_state_piece ON poll_state(piece);
	`

	if _, err := sm.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const stateColumns = `trigger_id, piece, trigger_name, last_fetch_epoch_ms, last_error,
	error_count, paused, created_at_ms, updated_at_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (*State, error) {
	var (
		state              State
		lastError          sql.NullString
		paused             int
		createdMS, updated int64
	)
	err := row.Scan(
		&state.TriggerID,
		&state.Piece,
		&state.Trigger,
		&state.LastFetchEpochMS,
		&lastError,
		&state.ErrorCount,
		&paused,
		&createdMS,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	state.LastError = lastError.String
	state.Paused = paused != 0
	state.CreatedAt = time.UnixMilli(createdMS)
	state.UpdatedAt = time.UnixMilli(updated)
	return &state, nil
}

// GetState retrieves the state for a trigger.
// Returns nil if the trigger has not been enabled.
func (sm *StateManager) GetState(ctx context.Context, triggerID string) (*State, error) {
	row := sm.db.QueryRowContext(ctx,
		`SELECT `+stateColumns+` FROM poll_state WHERE trigger_id = ?`, triggerID)

	state, err := scanState(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}
	return state, nil
}

// ListStates returns every stored state ordered by trigger id.
func (sm *StateManager) ListStates(ctx context.Context) ([]*State, error) {
	rows, err := sm.db.QueryContext(ctx,
		`SELECT `+stateColumns+` FROM poll_state ORDER BY trigger_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	var states []*State
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// SaveState creates or updates the state for a trigger.
func (sm *StateManager) SaveState(ctx context.Context, state *State) error {
	state.UpdatedAt = time.Now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = state.UpdatedAt
	}

	paused := 0
	if state.Paused {
		paused = 1
	}

	query := `
	INSERT INTO poll_state (` + stateColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(trigger_id) DO UPDATE SET
		piece = excluded.piece,
		trigger_name = excluded.trigger_name,
		last_fetch_epoch_ms = excluded.last_fetch_epoch_ms,
		last_error = excluded.last_error,
		error_count = excluded.error_count,
		paused = excluded.paused,
		updated_at_ms = excluded.updated_at_ms
	`

	_, err := sm.db.ExecContext(ctx, query,
		state.TriggerID,
		state.Piece,
		state.Trigger,
		state.LastFetchEpochMS,
		state.LastError,
		state.ErrorCount,
		paused,
		state.CreatedAt.UnixMilli(),
		state.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

// DeleteState removes the state for a trigger.
func (sm *StateManager) DeleteState(ctx context.Context, triggerID string) error {
	if _, err := sm.db.ExecContext(ctx, `DELETE FROM poll_state WHERE trigger_id = ?`, triggerID); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (sm *StateManager) Close() error {
	if sm.db != nil {
		return sm.db.Close()
	}
	return nil
}
