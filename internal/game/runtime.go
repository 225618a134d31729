package game

import (
	"sync"

	"github.com/google/uuid"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/engine"
)

// MatchRuntime wraps one live engine match with its lock and its
// connection fan-out callbacks. Every read or mutation of State happens
// with Mu held; the manager takes the lock around each operation so an
// operation and its side effects form one atomic unit.
type MatchRuntime struct {
	State *engine.Match

	Mu sync.Mutex

	// BroadcastFn sends an event to every connection in the match room.
	// BroadcastToPlayerFn targets a single player's connection. Both are
	// nil until the hub registers the room.
	BroadcastFn         func(ev engine.Event)
	BroadcastToPlayerFn func(playerID uuid.UUID, ev engine.Event)
}

// broadcast fans an event out to the room, if a hub is attached.
func (rt *MatchRuntime) broadcast(ev engine.Event) {
	if rt.BroadcastFn != nil {
		rt.BroadcastFn(ev)
	}
}

// ParticipantView is the public per-player slice of a match snapshot.
// Hidden information (selected cards, bets) stays out.
type ParticipantView struct {
	PlayerID  uuid.UUID `json:"playerId"`
	HandCount int       `json:"handCount"`
	Selected  bool      `json:"selected"`
	Active    bool      `json:"active"`
}

// Snapshot is a lock-consistent public view of a live match.
type Snapshot struct {
	Code         string            `json:"code"`
	Phase        string            `json:"phase"`
	Mode         string            `json:"mode"`
	Round        int               `json:"round"`
	TurnPlayer   uuid.UUID         `json:"turnPlayer,omitempty"`
	Attribute    engine.Attribute  `json:"attribute,omitempty"`
	WinnerID     uuid.UUID         `json:"winnerId,omitempty"`
	Participants []ParticipantView `json:"participants"`
}

// Snapshot captures the match's public state under the lock.
func (rt *MatchRuntime) Snapshot() Snapshot {
	rt.Mu.Lock()
	defer rt.Mu.Unlock()

	m := rt.State
	snap := Snapshot{
		Code:      m.Code,
		Phase:     m.Phase.String(),
		Mode:      m.Rules.Mode.String(),
		Round:     m.Round,
		Attribute: m.CurrentAttribute,
		WinnerID:  m.WinnerID,
	}
	if m.Phase == engine.PhasePlaying {
		if tp := m.TurnPlayer(); tp != nil {
			snap.TurnPlayer = tp.PlayerID
		}
	}
	for _, p := range m.Participants {
		snap.Participants = append(snap.Participants, ParticipantView{
			PlayerID:  p.PlayerID,
			HandCount: len(p.Hand),
			Selected:  len(p.Selected) > 0,
			Active:    p.Active,
		})
	}
	return snap
}
