// Package game owns the live match runtimes: it routes every operation
// through the per-match lock, persists the side effects and fans the
// resulting events out to the room.
package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/cache"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/engine"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/models"
)

// CardCatalog is the slice of the card store the runtime needs.
type CardCatalog interface {
	List(ctx context.Context) ([]*models.Card, error)
}

// PlayerRecords is the slice of the player store the runtime needs.
type PlayerRecords interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Player, error)
	SetHand(ctx context.Context, id uuid.UUID, hand []uuid.UUID) error
	ApplyTransfers(ctx context.Context, transfers []engine.Transfer) error
	AddWin(ctx context.Context, id uuid.UUID) error
	AddLoss(ctx context.Context, id uuid.UUID) error
}

// MatchRecords persists match summaries.
type MatchRecords interface {
	Create(ctx context.Context, m *models.Match) error
	SetPhase(ctx context.Context, code, phase string) error
	Finish(ctx context.Context, code string, winner uuid.UUID, at time.Time) error
}

// Manager holds every live match, keyed by join code.
type Manager struct {
	mu      sync.Mutex
	matches map[string]*MatchRuntime

	cards   CardCatalog
	players PlayerRecords
	records MatchRecords

	rng *rand.Rand
}

// NewManager wires the manager to its stores.
func NewManager(cards CardCatalog, players PlayerRecords, records MatchRecords) *Manager {
	return &Manager{
		matches: make(map[string]*MatchRuntime),
		cards:   cards,
		players: players,
		records: records,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newCode generates an unused 6-character join code. Caller holds m.mu.
func (m *Manager) newCode() string {
	for {
		b := make([]byte, 6)
		for i := range b {
			b[i] = codeAlphabet[m.rng.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, taken := m.matches[code]; !taken {
			return code
		}
	}
}

// Create registers a new match and persists its summary record. The
// creator still joins through the normal join flow.
func (m *Manager) Create(ctx context.Context, hostID uuid.UUID, rules engine.Rules) (*MatchRuntime, error) {
	m.mu.Lock()
	code := m.newCode()
	rt := &MatchRuntime{State: engine.NewMatch(code, m.rng.Uint64(), rules)}
	m.matches[code] = rt
	m.mu.Unlock()

	record := &models.Match{
		Code:   code,
		Mode:   rules.Mode.String(),
		Phase:  engine.PhaseWaiting.String(),
		HostID: hostID,
	}
	if err := m.records.Create(ctx, record); err != nil {
		m.mu.Lock()
		delete(m.matches, code)
		m.mu.Unlock()
		logrus.WithError(err).Error("failed to persist match record")
		return nil, engine.NewDependencyError("match store")
	}

	logrus.WithFields(logrus.Fields{"match": code, "mode": record.Mode}).Info("match created")
	return rt, nil
}

// Runtime returns the live match for a join code.
func (m *Manager) Runtime(code string) (*MatchRuntime, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.matches[code]
	return rt, ok
}

// Remove drops a finished match from the live set. The summary record
// and journal outlive it.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	delete(m.matches, code)
	m.mu.Unlock()
}

// Join adds a player to a match. A player whose collection is empty is
// dealt a fresh hand from the catalog first; the deal, the roster
// mutation and the persistence all happen under the match lock.
func (m *Manager) Join(ctx context.Context, code string, playerID uuid.UUID) error {
	rt, ok := m.Runtime(code)
	if !ok {
		return matchNotFound(code)
	}

	rt.Mu.Lock()
	defer rt.Mu.Unlock()

	// Check joinability before the deal: a rejected join must not leave
	// a persisted hand behind.
	if err := rt.State.CanJoin(playerID); err != nil {
		return err
	}

	player, err := m.players.Get(ctx, playerID)
	if err != nil {
		logrus.WithError(err).WithField("player", playerID).Error("failed to load player")
		return engine.NewDependencyError("player store")
	}

	catalog, err := m.cards.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to load card catalog")
		return engine.NewDependencyError("card store")
	}

	var hand []engine.Card
	dealt := false
	if len(player.Hand) == 0 {
		hand, err = rt.State.DealHand(models.EngineCards(catalog))
		if err != nil {
			return err
		}
		dealt = true
		ids := make([]uuid.UUID, len(hand))
		for i, c := range hand {
			ids[i] = c.ID
		}
		if err := m.players.SetHand(ctx, playerID, ids); err != nil {
			logrus.WithError(err).WithField("player", playerID).Error("failed to persist dealt hand")
			return engine.NewDependencyError("player store")
		}
	} else {
		byID := make(map[uuid.UUID]*models.Card, len(catalog))
		for _, c := range catalog {
			byID[c.ID] = c
		}
		for _, id := range player.Hand {
			if c, ok := byID[id]; ok {
				hand = append(hand, c.Engine())
			}
		}
	}

	events, err := rt.State.Join(playerID, hand)
	if err != nil {
		return err
	}
	applyErr := m.applyEvents(ctx, rt, events)

	// The dealt hand goes to the joiner alone; the room only learns the
	// roster grew.
	if dealt && rt.BroadcastToPlayerFn != nil {
		rt.BroadcastToPlayerFn(playerID, engine.Event{
			Type:   engine.EventHandDealt,
			Player: playerID,
			Cards:  hand,
			Count:  len(hand),
		})
	}
	return applyErr
}

// Start begins the match (host only).
func (m *Manager) Start(ctx context.Context, code string, playerID uuid.UUID) error {
	return m.operate(ctx, code, func(s *engine.Match) ([]engine.Event, error) {
		return s.Start(playerID)
	})
}

// Select records a participant's committed cards.
func (m *Manager) Select(ctx context.Context, code string, playerID uuid.UUID, cardIDs []uuid.UUID) error {
	return m.operate(ctx, code, func(s *engine.Match) ([]engine.Event, error) {
		return s.Select(playerID, cardIDs)
	})
}

// ChooseAttribute sets the round's comparison attribute.
func (m *Manager) ChooseAttribute(ctx context.Context, code string, playerID uuid.UUID, attr engine.Attribute) error {
	return m.operate(ctx, code, func(s *engine.Match) ([]engine.Event, error) {
		return s.ChooseAttribute(playerID, attr)
	})
}

// PlayCard submits a card for the current attribute round.
func (m *Manager) PlayCard(ctx context.Context, code string, playerID, cardID uuid.UUID) error {
	return m.operate(ctx, code, func(s *engine.Match) ([]engine.Event, error) {
		return s.PlayCard(playerID, cardID)
	})
}

// PlaceBet submits a wagered card and number for the betting round.
func (m *Manager) PlaceBet(ctx context.Context, code string, playerID, cardID uuid.UUID, number int) error {
	return m.operate(ctx, code, func(s *engine.Match) ([]engine.Event, error) {
		return s.PlaceBet(playerID, cardID, number)
	})
}

// Forfeit withdraws a player. Also invoked when a connection drops.
func (m *Manager) Forfeit(ctx context.Context, code string, playerID uuid.UUID) error {
	return m.operate(ctx, code, func(s *engine.Match) ([]engine.Event, error) {
		return s.Forfeit(playerID)
	})
}

// operate runs one engine operation under the match lock and applies
// its events.
func (m *Manager) operate(ctx context.Context, code string, op func(*engine.Match) ([]engine.Event, error)) error {
	rt, ok := m.Runtime(code)
	if !ok {
		return matchNotFound(code)
	}

	rt.Mu.Lock()
	defer rt.Mu.Unlock()

	events, err := op(rt.State)
	if err != nil {
		return err
	}
	return m.applyEvents(ctx, rt, events)
}

// applyEvents persists side effects, journals and broadcasts each event
// in order. Caller holds the match lock. The journal and the summary
// record are best-effort, but a failure to persist card ownership is
// surfaced: the player store seeds hands for future matches, so a
// dropped transfer would diverge it from the live state for good.
func (m *Manager) applyEvents(ctx context.Context, rt *MatchRuntime, events []engine.Event) error {
	code := rt.State.Code
	var transferErr error
	for _, ev := range events {
		switch ev.Type {
		case engine.EventMatchStarted, engine.EventSelectionComplete:
			if err := m.records.SetPhase(ctx, code, ev.Phase); err != nil {
				logrus.WithError(err).WithField("match", code).Warn("failed to persist match phase")
			}
		case engine.EventRoundResolved:
			if err := m.players.ApplyTransfers(ctx, ev.Transfers); err != nil {
				logrus.WithError(err).WithField("match", code).Error("failed to persist card transfers")
				if transferErr == nil {
					transferErr = engine.NewDependencyError("player store")
				}
			}
		case engine.EventMatchFinished:
			m.recordResult(ctx, rt)
		}

		cache.PublishMatchEvent(ctx, code, ev)
		rt.broadcast(ev)
	}
	return transferErr
}

// recordResult persists the terminal state and the win/loss tallies.
func (m *Manager) recordResult(ctx context.Context, rt *MatchRuntime) {
	code := rt.State.Code
	winner := rt.State.WinnerID

	if err := m.records.Finish(ctx, code, winner, rt.State.FinishedAt); err != nil {
		logrus.WithError(err).WithField("match", code).Warn("failed to persist match result")
	}
	for _, p := range rt.State.Participants {
		if p.PlayerID == winner {
			if err := m.players.AddWin(ctx, p.PlayerID); err != nil {
				logrus.WithError(err).WithField("player", p.PlayerID).Warn("failed to record win")
			}
			continue
		}
		if err := m.players.AddLoss(ctx, p.PlayerID); err != nil {
			logrus.WithError(err).WithField("player", p.PlayerID).Warn("failed to record loss")
		}
	}

	// The record and journal outlive the runtime; the live entry goes.
	m.Remove(code)

	logrus.WithFields(logrus.Fields{"match": code, "winner": winner}).Info("match finished")
}

func matchNotFound(code string) error {
	return &engine.Error{Kind: engine.KindNotFound, Reason: "match " + code + " not found"}
}
