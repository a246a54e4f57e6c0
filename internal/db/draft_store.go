// Package db holds the SQLite-backed local draft cache. Drafts are a
// write-through copy of auto-saved answers so an interrupted session can
// resume when the backend cannot serve prior responses.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisDonovan01/dva-survey/internal/services"
)

type DraftStore struct {
	db *sql.DB
}

var _ services.DraftStore = (*DraftStore)(nil)

// Open creates or opens the draft database at path and applies migrations.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*DraftStore, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open draft db: %w", err)
	}
	store, err := NewDraftStore(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

func NewDraftStore(sqlDB *sql.DB) (*DraftStore, error) {
	if sqlDB == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := sqlDB.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	if err := RunMigrations(sqlDB, ""); err != nil {
		return nil, err
	}
	return &DraftStore{db: sqlDB}, nil
}

func (s *DraftStore) Close() error { return s.db.Close() }

// SaveDraft upserts one answer. Last write wins, matching the in-memory
// response store.
func (s *DraftStore) SaveDraft(clientID string, st services.SurveyType, questionID string, v services.Value, at time.Time) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode draft value: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO survey_drafts (client_id, survey_type, question_id, value, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (client_id, survey_type, question_id)
		DO UPDATE SET value = excluded.value, saved_at = excluded.saved_at`,
		clientID, string(st), questionID, string(encoded), at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// LoadDrafts returns every cached answer for one (client, survey type)
// pair. Rows with undecodable values are skipped rather than failing the
// whole load.
func (s *DraftStore) LoadDrafts(clientID string, st services.SurveyType) (map[string]services.Value, error) {
	rows, err := s.db.Query(
		`SELECT question_id, value FROM survey_drafts WHERE client_id = ? AND survey_type = ?`,
		clientID, string(st))
	if err != nil {
		return nil, fmt.Errorf("load drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]services.Value{}
	for rows.Next() {
		var questionID, raw string
		if err := rows.Scan(&questionID, &raw); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		var v services.Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			continue
		}
		out[questionID] = v
	}
	return out, rows.Err()
}

// ClearDrafts removes the cached answers after a recorded completion.
func (s *DraftStore) ClearDrafts(clientID string, st services.SurveyType) error {
	_, err := s.db.Exec(
		`DELETE FROM survey_drafts WHERE client_id = ? AND survey_type = ?`,
		clientID, string(st))
	if err != nil {
		return fmt.Errorf("clear drafts: %w", err)
	}
	return nil
}
