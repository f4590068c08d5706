// Package store provides SQLite-backed persistence for tool definitions,
// generation history, and invocation usage. All methods are safe for
// concurrent use; the store is optional and every caller tolerates its
// absence.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"toolforge/internal/spec"
)

// Store wraps the SQLite database.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tool_definitions (
			name TEXT PRIMARY KEY,
			description TEXT,
			inputs TEXT,
			outputs TEXT,
			logic TEXT,
			spec_path TEXT,
			artifact_path TEXT,
			generated_at DATETIME,
			last_error TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating tool_definitions table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS generation_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tool_name TEXT NOT NULL,
			success INTEGER NOT NULL,
			error TEXT,
			duration_ms INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating generation_history table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tool_usage (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tool_name TEXT NOT NULL,
			source TEXT NOT NULL,
			success INTEGER NOT NULL,
			duration_ms INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating tool_usage table: %w", err)
	}
	return nil
}

// SaveDefinition upserts a parsed definition.
func (s *Store) SaveDefinition(def *spec.ToolDefinition) error {
	inputs, err := json.Marshal(def.Inputs)
	if err != nil {
		return fmt.Errorf("encoding inputs: %w", err)
	}
	outputs, err := json.Marshal(def.Outputs)
	if err != nil {
		return fmt.Errorf("encoding outputs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`
		INSERT INTO tool_definitions
			(name, description, inputs, outputs, logic, spec_path, artifact_path, generated_at, last_error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			inputs = excluded.inputs,
			outputs = excluded.outputs,
			logic = excluded.logic,
			spec_path = excluded.spec_path,
			artifact_path = excluded.artifact_path,
			generated_at = excluded.generated_at,
			last_error = excluded.last_error,
			updated_at = CURRENT_TIMESTAMP
	`, def.Name, def.Description, string(inputs), string(outputs), def.Logic,
		def.SpecPath, def.ArtifactPath, nullTime(def.GeneratedAt), def.LastError)
	if err != nil {
		return fmt.Errorf("saving definition %s: %w", def.Name, err)
	}
	return nil
}

// DeleteDefinition removes a definition by name. Unknown names are no-ops.
func (s *Store) DeleteDefinition(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM tool_definitions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting definition %s: %w", name, err)
	}
	return nil
}

// ListDefinitions returns all persisted definitions.
func (s *Store) ListDefinitions() ([]*spec.ToolDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
		SELECT name, description, inputs, outputs, logic, spec_path, artifact_path, generated_at, last_error
		FROM tool_definitions ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing definitions: %w", err)
	}
	defer rows.Close()

	var defs []*spec.ToolDefinition
	for rows.Next() {
		var d spec.ToolDefinition
		var inputs, outputs string
		var generatedAt sql.NullTime
		if err := rows.Scan(&d.Name, &d.Description, &inputs, &outputs, &d.Logic,
			&d.SpecPath, &d.ArtifactPath, &generatedAt, &d.LastError); err != nil {
			return nil, fmt.Errorf("scanning definition: %w", err)
		}
		if err := json.Unmarshal([]byte(inputs), &d.Inputs); err != nil {
			return nil, fmt.Errorf("decoding inputs for %s: %w", d.Name, err)
		}
		if err := json.Unmarshal([]byte(outputs), &d.Outputs); err != nil {
			return nil, fmt.Errorf("decoding outputs for %s: %w", d.Name, err)
		}
		if generatedAt.Valid {
			d.GeneratedAt = generatedAt.Time
		}
		defs = append(defs, &d)
	}
	return defs, rows.Err()
}

// RecordGeneration appends one generation attempt to the history.
func (s *Store) RecordGeneration(toolName string, success bool, errMsg string, durationMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO generation_history (tool_name, success, error, duration_ms)
		VALUES (?, ?, ?, ?)
	`, toolName, boolInt(success), errMsg, durationMs)
	if err != nil {
		return fmt.Errorf("recording generation for %s: %w", toolName, err)
	}
	return nil
}

// RecordUsage appends one invocation record.
func (s *Store) RecordUsage(toolName string, source string, success bool, durationMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO tool_usage (tool_name, source, success, duration_ms)
		VALUES (?, ?, ?, ?)
	`, toolName, source, boolInt(success), durationMs)
	if err != nil {
		return fmt.Errorf("recording usage for %s: %w", toolName, err)
	}
	return nil
}

// GenerationHistory returns the most recent attempts for a tool, newest
// first, capped at limit.
func (s *Store) GenerationHistory(toolName string, limit int) ([]GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
		SELECT tool_name, success, error, duration_ms, created_at
		FROM generation_history WHERE tool_name = ?
		ORDER BY id DESC LIMIT ?
	`, toolName, limit)
	if err != nil {
		return nil, fmt.Errorf("querying generation history: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var r GenerationRecord
		var success int
		if err := rows.Scan(&r.ToolName, &success, &r.Error, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning generation record: %w", err)
		}
		r.Success = success != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// GenerationRecord is one persisted generation attempt.
type GenerationRecord struct {
	ToolName   string
	Success    bool
	Error      string
	DurationMs int64
	CreatedAt  time.Time
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
