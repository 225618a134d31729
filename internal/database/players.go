package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/engine"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/models"
)

// ErrPlayerNotFound is returned when a player id or name does not exist.
var ErrPlayerNotFound = errors.New("player not found")

// PlayerStore persists player accounts and their card collections.
type PlayerStore struct{}

// NewPlayerStore returns a store backed by the shared pool.
func NewPlayerStore() *PlayerStore { return &PlayerStore{} }

// Create inserts a new account. The caller hashes the password first.
func (s *PlayerStore) Create(ctx context.Context, p *models.Player) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := DB.Exec(ctx, `
		INSERT INTO players (id, name, password_hash)
		VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

// Get fetches one player by id.
func (s *PlayerStore) Get(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

// GetByName fetches one player by account name.
func (s *PlayerStore) GetByName(ctx context.Context, name string) (*models.Player, error) {
	return s.get(ctx, `WHERE name = $1`, name)
}

func (s *PlayerStore) get(ctx context.Context, where string, arg interface{}) (*models.Player, error) {
	row := DB.QueryRow(ctx, `
		SELECT id, name, password_hash, hand, wins, losses, created_at
		FROM players `+where, arg)
	var p models.Player
	err := row.Scan(&p.ID, &p.Name, &p.PasswordHash, &p.Hand, &p.Wins, &p.Losses, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every registered player.
func (s *PlayerStore) List(ctx context.Context) ([]*models.Player, error) {
	rows, err := DB.Query(ctx, `
		SELECT id, name, password_hash, hand, wins, losses, created_at
		FROM players ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.PasswordHash, &p.Hand,
			&p.Wins, &p.Losses, &p.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}

// SetHand replaces a player's collection, used when a fresh hand is
// dealt on joining a match.
func (s *PlayerStore) SetHand(ctx context.Context, id uuid.UUID, hand []uuid.UUID) error {
	tag, err := DB.Exec(ctx, `UPDATE players SET hand = $2 WHERE id = $1`, id, hand)
	if err != nil {
		return fmt.Errorf("set hand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// ApplyTransfers persists a resolution's card movements in one
// transaction. The source loses the card at most once; every listed
// destination gains it, which preserves the multi-winner payout.
func (s *PlayerStore) ApplyTransfers(ctx context.Context, transfers []engine.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range transfers {
		if _, err := tx.Exec(ctx,
			`UPDATE players SET hand = array_remove(hand, $2) WHERE id = $1`,
			t.From, t.CardID); err != nil {
			return fmt.Errorf("remove card: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE players SET hand = array_append(hand, $2) WHERE id = $1`,
			t.To, t.CardID); err != nil {
			return fmt.Errorf("add card: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// AddWin increments a player's lifetime win counter.
func (s *PlayerStore) AddWin(ctx context.Context, id uuid.UUID) error {
	_, err := DB.Exec(ctx, `UPDATE players SET wins = wins + 1 WHERE id = $1`, id)
	return err
}

// AddLoss increments a player's lifetime loss counter.
func (s *PlayerStore) AddLoss(ctx context.Context, id uuid.UUID) error {
	_, err := DB.Exec(ctx, `UPDATE players SET losses = losses + 1 WHERE id = $1`, id)
	return err
}
