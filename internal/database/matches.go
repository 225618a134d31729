package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/models"
)

// ErrMatchNotFound is returned when a match code does not exist.
var ErrMatchNotFound = errors.New("match not found")

// MatchStore persists match summaries for history queries. Live match
// state never touches the database.
type MatchStore struct{}

// NewMatchStore returns a store backed by the shared pool.
func NewMatchStore() *MatchStore { return &MatchStore{} }

// Create records a freshly created match.
func (s *MatchStore) Create(ctx context.Context, m *models.Match) error {
	_, err := DB.Exec(ctx, `
		INSERT INTO matches (code, mode, phase, host_id)
		VALUES ($1, $2, $3, $4)`,
		m.Code, m.Mode, m.Phase, nilUUID(m.HostID))
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// Get fetches one match summary by code.
func (s *MatchStore) Get(ctx context.Context, code string) (*models.Match, error) {
	row := DB.QueryRow(ctx, `
		SELECT code, mode, phase, COALESCE(host_id, $2), COALESCE(winner_id, $2),
			created_at, COALESCE(finished_at, 'epoch'::timestamptz)
		FROM matches WHERE code = $1`, code, uuid.Nil)
	var m models.Match
	err := row.Scan(&m.Code, &m.Mode, &m.Phase, &m.HostID, &m.WinnerID,
		&m.CreatedAt, &m.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns every match summary, newest first.
func (s *MatchStore) List(ctx context.Context) ([]*models.Match, error) {
	rows, err := DB.Query(ctx, `
		SELECT code, mode, phase, COALESCE(host_id, $1), COALESCE(winner_id, $1),
			created_at, COALESCE(finished_at, 'epoch'::timestamptz)
		FROM matches ORDER BY created_at DESC`, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.Code, &m.Mode, &m.Phase, &m.HostID, &m.WinnerID,
			&m.CreatedAt, &m.FinishedAt); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// SetPhase updates the stored phase as the live match advances.
func (s *MatchStore) SetPhase(ctx context.Context, code, phase string) error {
	_, err := DB.Exec(ctx, `UPDATE matches SET phase = $2 WHERE code = $1`, code, phase)
	return err
}

// Finish records the terminal state of a match.
func (s *MatchStore) Finish(ctx context.Context, code string, winner uuid.UUID, at time.Time) error {
	_, err := DB.Exec(ctx, `
		UPDATE matches SET phase = 'finished', winner_id = $2, finished_at = $3
		WHERE code = $1`, code, nilUUID(winner), at)
	return err
}

// nilUUID maps the zero uuid to NULL.
func nilUUID(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id
}
