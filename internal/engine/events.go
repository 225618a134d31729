package engine

import "github.com/google/uuid"

// EventType names a state change produced by an engine operation. These
// are the wire names broadcast to every connection in the match room.
type EventType string

const (
	EventParticipantJoined     EventType = "participant_joined"
	EventHandDealt             EventType = "hand_dealt" // private to the joiner
	EventMatchStarted          EventType = "match_started"
	EventSelectionRecorded     EventType = "selection_recorded"
	EventSelectionComplete     EventType = "selection_complete" // Selecting -> Playing
	EventAttributeChosen       EventType = "attribute_chosen"
	EventCardSubmitted         EventType = "card_submitted" // card play or bet
	EventTurnAdvanced          EventType = "turn_advanced"
	EventRoundTied             EventType = "round_tied" // attribute re-draw
	EventRoundResolved         EventType = "round_resolved"
	EventParticipantEliminated EventType = "participant_eliminated" // hand exhausted
	EventParticipantForfeited  EventType = "participant_forfeited"
	EventMatchFinished         EventType = "match_finished"
)

// RoundOutcome classifies how a round resolution ended.
type RoundOutcome string

const (
	OutcomeWin  RoundOutcome = "win"
	OutcomePush RoundOutcome = "push" // betting: nobody matched
)

// Transfer records one card changing hands during resolution.
type Transfer struct {
	From   uuid.UUID `json:"from"`
	To     uuid.UUID `json:"to"`
	CardID uuid.UUID `json:"cardId"`
}

// Event is the broadcastable result of an engine transition. Fields are
// populated per type; zero values are omitted on the wire.
type Event struct {
	Type   EventType `json:"type"`
	Player uuid.UUID `json:"player,omitempty"` // acting or affected player

	Phase     string    `json:"phase,omitempty"`
	Attribute Attribute `json:"attribute,omitempty"`
	Number    int       `json:"number,omitempty"` // drawn winning number
	Round     int       `json:"round,omitempty"`
	TurnIdx   int       `json:"turnIdx,omitempty"`

	Outcome   RoundOutcome `json:"outcome,omitempty"`
	Winners   []uuid.UUID  `json:"winners,omitempty"`
	Transfers []Transfer   `json:"transfers,omitempty"`

	CardID uuid.UUID `json:"cardId,omitempty"`
	Cards  []Card    `json:"cards,omitempty"` // dealt hand (private events)
	Count  int       `json:"count,omitempty"` // roster size, selection size, ...
}
