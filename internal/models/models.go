// Package models defines the storage and wire representations shared by
// the HTTP handlers, the stores and the match runtime.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/engine"
)

// Card is a catalog card. The four attribute values are what battles
// compare; Image is a URL for clients.
type Card struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Image        string    `json:"image,omitempty"`
	Strength     int       `json:"strength"`
	Speed        int       `json:"speed"`
	Intelligence int       `json:"intelligence"`
	Rarity       int       `json:"rarity"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Engine converts the catalog record into the engine's card snapshot.
func (c *Card) Engine() engine.Card {
	return engine.Card{
		ID:           c.ID,
		Name:         c.Name,
		Image:        c.Image,
		Strength:     c.Strength,
		Speed:        c.Speed,
		Intelligence: c.Intelligence,
		Rarity:       c.Rarity,
	}
}

// EngineCards converts a slice of catalog records.
func EngineCards(cards []*Card) []engine.Card {
	out := make([]engine.Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Engine())
	}
	return out
}

// Player is a registered account plus its persistent collection. Hand
// holds the ids of the cards the player currently owns; Wins and Losses
// accumulate across matches.
type Player struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"-"`
	Hand         []uuid.UUID `json:"hand"`
	Wins         int         `json:"wins"`
	Losses       int         `json:"losses"`
	CreatedAt    time.Time   `json:"createdAt,omitempty"`
}

// Match is the persisted summary of a match. Live state lives in the
// runtime; this record survives it for history queries.
type Match struct {
	Code       string    `json:"code"`
	Mode       string    `json:"mode"`
	Phase      string    `json:"phase"`
	HostID     uuid.UUID `json:"hostId,omitempty"`
	WinnerID   uuid.UUID `json:"winnerId,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}
