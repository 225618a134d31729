// Package engine implements the card battle match rules.
//
// The engine is pure state-transition logic: every operation validates
// fully against the current match state before mutating anything, then
// returns the events the transition produced. It performs no I/O; the
// service layer owns locking, persistence and fan-out. All randomness
// (hand deals, tie re-draws, winning numbers) flows through a seeded
// xorshift64 generator embedded in the match state, so a given seed
// replays identically.
package engine

import (
	"time"

	"github.com/google/uuid"
)

// Attribute names one of the four numeric card attributes.
type Attribute string

const (
	AttrStrength     Attribute = "strength"
	AttrSpeed        Attribute = "speed"
	AttrIntelligence Attribute = "intelligence"
	AttrRarity       Attribute = "rarity"
)

// attributes is the fixed comparison attribute set, indexable by rng draws.
var attributes = [4]Attribute{AttrStrength, AttrSpeed, AttrIntelligence, AttrRarity}

// ParseAttribute returns the Attribute for s, or false when s is not one
// of the four known attribute names.
func ParseAttribute(s string) (Attribute, bool) {
	switch Attribute(s) {
	case AttrStrength, AttrSpeed, AttrIntelligence, AttrRarity:
		return Attribute(s), true
	}
	return "", false
}

// Phase is the match lifecycle state.
type Phase uint8

const (
	PhaseWaiting Phase = iota
	PhaseSelecting
	PhasePlaying
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseSelecting:
		return "selecting"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// Mode selects the round-resolution variant fixed at match creation.
type Mode uint8

const (
	// ModeAttribute compares a chosen card attribute; highest value wins
	// every card in battle, ties force an attribute re-draw.
	ModeAttribute Mode = iota
	// ModeBetting compares hidden number bets against a random draw;
	// no match is a push, multiple matches fan out losers' cards.
	ModeBetting
)

func (m Mode) String() string {
	if m == ModeBetting {
		return "betting"
	}
	return "attribute"
}

// ParseMode returns the Mode for s, defaulting to ModeAttribute for an
// empty string.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "attribute":
		return ModeAttribute, true
	case "betting":
		return ModeBetting, true
	}
	return ModeAttribute, false
}

// Rules holds the per-match configuration fixed at creation.
type Rules struct {
	Mode            Mode
	MaxPlayers      int
	CardsPerRound   int // K: cards each participant selects
	MaxRounds       int // round cap; 0 = unlimited
	InitialHandSize int // cards dealt to an empty-handed joiner
	StrictTurnOrder bool
	// WinHandFraction finishes the match early when one hand holds at
	// least this share of every card dealt into the match.
	WinHandFraction float64
	// MinBet/MaxBet bound the guessed number in ModeBetting.
	MinBet int
	MaxBet int
}

// DefaultRules returns the standard configuration.
func DefaultRules() Rules {
	return Rules{
		Mode:            ModeAttribute,
		MaxPlayers:      6,
		CardsPerRound:   4,
		MaxRounds:       3,
		InitialHandSize: 10,
		StrictTurnOrder: true,
		WinHandFraction: 0.7,
		MinBet:          1,
		MaxBet:          10,
	}
}

// Card is an immutable catalog entry snapshotted into the match.
type Card struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	Strength     int       `json:"strength"`
	Speed        int       `json:"speed"`
	Intelligence int       `json:"intelligence"`
	Rarity       int       `json:"rarity"`
}

// AttributeValue returns the card's value for the given attribute.
func (c Card) AttributeValue(a Attribute) int {
	switch a {
	case AttrStrength:
		return c.Strength
	case AttrSpeed:
		return c.Speed
	case AttrIntelligence:
		return c.Intelligence
	case AttrRarity:
		return c.Rarity
	}
	return 0
}

// Participant is one roster entry. Order within Match.Participants is
// join order and defines turn order.
type Participant struct {
	PlayerID uuid.UUID   `json:"playerId"`
	Hand     []uuid.UUID `json:"hand"`
	Selected []uuid.UUID `json:"selected"`
	Active   bool        `json:"active"`
}

// Submission is one card played (or wagered) in the current round.
type Submission struct {
	PlayerID uuid.UUID `json:"playerId"`
	CardID   uuid.UUID `json:"cardId"`
	Bet      int       `json:"bet,omitempty"` // ModeBetting only
}

// Match is the authoritative per-match aggregate. It must only ever be
// mutated while the owning runtime holds the per-match lock.
type Match struct {
	Code         string
	Phase        Phase
	Rules        Rules
	Participants []Participant
	Submissions  []Submission
	// CurrentAttribute is the attribute chosen for the round
	// (ModeAttribute only); empty when none is chosen.
	CurrentAttribute Attribute
	TurnIdx          int
	Round            int
	WinnerID         uuid.UUID
	FinishedAt       time.Time

	// cards snapshots every card dealt into this match so resolution
	// needs no external lookup.
	cards map[uuid.UUID]Card

	rng uint64
}

// NewMatch creates a match in PhaseWaiting with the given seed.
func NewMatch(code string, seed uint64, rules Rules) *Match {
	if seed == 0 {
		seed = 1 // xorshift can't start at 0
	}
	return &Match{
		Code:  code,
		Phase: PhaseWaiting,
		Rules: rules,
		cards: make(map[uuid.UUID]Card),
		rng:   seed,
	}
}

// ---------------------------------------------------------------------------
// xorshift64 RNG
// ---------------------------------------------------------------------------

func (m *Match) nextRand() uint64 {
	x := m.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	m.rng = x
	return x
}

// randN returns a random number in [0, n).
func (m *Match) randN(n int) int {
	return int(m.nextRand() % uint64(n))
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// Card returns the snapshot for a card dealt into this match.
func (m *Match) Card(id uuid.UUID) (Card, bool) {
	c, ok := m.cards[id]
	return c, ok
}

// CardCount returns how many distinct cards have been dealt into the match.
func (m *Match) CardCount() int { return len(m.cards) }

// participant returns the roster entry for playerID, or nil.
func (m *Match) participant(playerID uuid.UUID) *Participant {
	for i := range m.Participants {
		if m.Participants[i].PlayerID == playerID {
			return &m.Participants[i]
		}
	}
	return nil
}

// ActiveCount returns the number of active participants.
func (m *Match) ActiveCount() int {
	n := 0
	for i := range m.Participants {
		if m.Participants[i].Active {
			n++
		}
	}
	return n
}

// TurnPlayer returns the participant designated by the turn pointer, or
// nil when the roster is empty.
func (m *Match) TurnPlayer() *Participant {
	if len(m.Participants) == 0 {
		return nil
	}
	return &m.Participants[m.TurnIdx]
}

// hasSubmitted reports whether playerID already submitted this round.
func (m *Match) hasSubmitted(playerID uuid.UUID) bool {
	for i := range m.Submissions {
		if m.Submissions[i].PlayerID == playerID {
			return true
		}
	}
	return false
}

// advanceTurn moves the turn pointer to the next active participant.
// It is a no-op when no participant is active.
func (m *Match) advanceTurn() {
	if m.ActiveCount() == 0 || len(m.Participants) == 0 {
		return
	}
	next := (m.TurnIdx + 1) % len(m.Participants)
	for !m.Participants[next].Active {
		next = (next + 1) % len(m.Participants)
	}
	m.TurnIdx = next
}

// normalizeTurn repoints the turn index at an active participant if it
// currently designates an inactive one.
func (m *Match) normalizeTurn() {
	if m.ActiveCount() == 0 || len(m.Participants) == 0 {
		return
	}
	if !m.Participants[m.TurnIdx].Active {
		m.advanceTurn()
	}
}

func removeID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	for i := range ids {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for i := range ids {
		if ids[i] == id {
			return true
		}
	}
	return false
}
