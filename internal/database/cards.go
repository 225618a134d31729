package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/models"
)

// ErrCardNotFound is returned when a card id does not exist in the
// catalog.
var ErrCardNotFound = errors.New("card not found")

// CardStore persists the card catalog.
type CardStore struct{}

// NewCardStore returns a store backed by the shared pool.
func NewCardStore() *CardStore { return &CardStore{} }

// Create inserts a card. A zero ID is assigned.
func (s *CardStore) Create(ctx context.Context, c *models.Card) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := DB.Exec(ctx, `
		INSERT INTO cards (id, name, image, strength, speed, intelligence, rarity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Image, c.Strength, c.Speed, c.Intelligence, c.Rarity)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// Get fetches one card by id.
func (s *CardStore) Get(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	row := DB.QueryRow(ctx, `
		SELECT id, name, image, strength, speed, intelligence, rarity, created_at
		FROM cards WHERE id = $1`, id)
	c, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	return c, err
}

// List returns the full catalog.
func (s *CardStore) List(ctx context.Context) ([]*models.Card, error) {
	rows, err := DB.Query(ctx, `
		SELECT id, name, image, strength, speed, intelligence, rarity, created_at
		FROM cards ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Update overwrites the mutable fields of a card.
func (s *CardStore) Update(ctx context.Context, c *models.Card) error {
	tag, err := DB.Exec(ctx, `
		UPDATE cards SET name = $2, image = $3, strength = $4, speed = $5,
			intelligence = $6, rarity = $7
		WHERE id = $1`,
		c.ID, c.Name, c.Image, c.Strength, c.Speed, c.Intelligence, c.Rarity)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// Delete removes a card from the catalog.
func (s *CardStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := DB.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

func scanCard(row pgx.Row) (*models.Card, error) {
	var c models.Card
	err := row.Scan(&c.ID, &c.Name, &c.Image, &c.Strength, &c.Speed,
		&c.Intelligence, &c.Rarity, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
