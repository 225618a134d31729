package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/engine"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/models"
)

var errStoreDown = errors.New("store down")

type fakeCards struct {
	cards []*models.Card
}

func (f *fakeCards) List(ctx context.Context) ([]*models.Card, error) {
	return f.cards, nil
}

type fakePlayers struct {
	players     map[uuid.UUID]*models.Player
	hands       map[uuid.UUID][]uuid.UUID
	transfers   []engine.Transfer
	transferErr error
	wins        map[uuid.UUID]int
	losses      map[uuid.UUID]int
}

func newFakePlayers() *fakePlayers {
	return &fakePlayers{
		players: make(map[uuid.UUID]*models.Player),
		hands:   make(map[uuid.UUID][]uuid.UUID),
		wins:    make(map[uuid.UUID]int),
		losses:  make(map[uuid.UUID]int),
	}
}

func (f *fakePlayers) Get(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, engine.NewDependencyError("player store")
	}
	return p, nil
}

func (f *fakePlayers) SetHand(ctx context.Context, id uuid.UUID, hand []uuid.UUID) error {
	f.hands[id] = hand
	f.players[id].Hand = hand
	return nil
}

func (f *fakePlayers) ApplyTransfers(ctx context.Context, transfers []engine.Transfer) error {
	if f.transferErr != nil {
		return f.transferErr
	}
	f.transfers = append(f.transfers, transfers...)
	return nil
}

func (f *fakePlayers) AddWin(ctx context.Context, id uuid.UUID) error {
	f.wins[id]++
	return nil
}

func (f *fakePlayers) AddLoss(ctx context.Context, id uuid.UUID) error {
	f.losses[id]++
	return nil
}

type fakeRecords struct {
	created  []*models.Match
	phases   []string
	finished bool
	winner   uuid.UUID
}

func (f *fakeRecords) Create(ctx context.Context, m *models.Match) error {
	f.created = append(f.created, m)
	return nil
}

func (f *fakeRecords) SetPhase(ctx context.Context, code, phase string) error {
	f.phases = append(f.phases, phase)
	return nil
}

func (f *fakeRecords) Finish(ctx context.Context, code string, winner uuid.UUID, at time.Time) error {
	f.finished = true
	f.winner = winner
	return nil
}

func battleCatalog(n int) []*models.Card {
	cards := make([]*models.Card, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, &models.Card{
			ID:           uuid.New(),
			Name:         "card",
			Strength:     i%9 + 1,
			Speed:        (i+3)%9 + 1,
			Intelligence: (i+5)%9 + 1,
			Rarity:       (i+7)%9 + 1,
		})
	}
	return cards
}

func registerPlayer(players *fakePlayers, hand ...uuid.UUID) uuid.UUID {
	id := uuid.New()
	players.players[id] = &models.Player{ID: id, Name: "p-" + id.String()[:8], Hand: hand}
	return id
}

func TestCreateAndJoinDealsHand(t *testing.T) {
	cards := &fakeCards{cards: battleCatalog(30)}
	players := newFakePlayers()
	records := &fakeRecords{}
	mgr := NewManager(cards, players, records)

	a := registerPlayer(players)
	b := registerPlayer(players)

	rt, err := mgr.Create(context.Background(), a, engine.DefaultRules())
	require.NoError(t, err)
	require.Len(t, records.created, 1)
	require.Len(t, rt.State.Code, 6)

	require.NoError(t, mgr.Join(context.Background(), rt.State.Code, a))
	require.NoError(t, mgr.Join(context.Background(), rt.State.Code, b))

	// Empty-handed joiners are dealt from the catalog and the deal is
	// persisted.
	require.Len(t, players.hands[a], 10)
	require.Len(t, players.hands[b], 10)

	// The two hands never overlap: a card is dealt into a match once.
	seen := make(map[uuid.UUID]bool)
	for _, id := range append(players.hands[a], players.hands[b]...) {
		require.False(t, seen[id], "card %s dealt twice", id)
		seen[id] = true
	}

	require.Len(t, rt.State.Participants, 2)
}

func TestJoinUnknownMatch(t *testing.T) {
	mgr := NewManager(&fakeCards{}, newFakePlayers(), &fakeRecords{})
	err := mgr.Join(context.Background(), "NOPE99", uuid.New())
	require.Equal(t, engine.KindNotFound, engine.KindOf(err))
}

func TestJoinExistingCollectionIsNotRedealt(t *testing.T) {
	catalog := battleCatalog(20)
	cards := &fakeCards{cards: catalog}
	players := newFakePlayers()
	mgr := NewManager(cards, players, &fakeRecords{})

	owned := []uuid.UUID{catalog[0].ID, catalog[1].ID, catalog[2].ID}
	a := registerPlayer(players, owned...)

	rt, err := mgr.Create(context.Background(), a, engine.DefaultRules())
	require.NoError(t, err)
	require.NoError(t, mgr.Join(context.Background(), rt.State.Code, a))

	// No deal happened; the participant plays their persistent hand.
	require.Empty(t, players.hands[a])
	require.Equal(t, 3, len(rt.State.Participants[0].Hand))
}

func TestFullMatchPersistsOutcome(t *testing.T) {
	catalog := battleCatalog(20)
	// Give A a strictly stronger card so the single round is decisive.
	catalog[0].Strength = 9
	catalog[1].Strength = 2
	cards := &fakeCards{cards: catalog}
	players := newFakePlayers()
	records := &fakeRecords{}
	mgr := NewManager(cards, players, records)

	a := registerPlayer(players, catalog[0].ID)
	b := registerPlayer(players, catalog[1].ID)

	rules := engine.DefaultRules()
	rules.CardsPerRound = 1
	rules.MaxRounds = 1
	rules.WinHandFraction = 0

	rt, err := mgr.Create(context.Background(), a, rules)
	require.NoError(t, err)
	code := rt.State.Code

	var broadcasts []engine.Event
	rt.BroadcastFn = func(ev engine.Event) { broadcasts = append(broadcasts, ev) }

	ctx := context.Background()
	require.NoError(t, mgr.Join(ctx, code, a))
	require.NoError(t, mgr.Join(ctx, code, b))
	require.NoError(t, mgr.Start(ctx, code, a))
	require.NoError(t, mgr.Select(ctx, code, a, []uuid.UUID{catalog[0].ID}))
	require.NoError(t, mgr.Select(ctx, code, b, []uuid.UUID{catalog[1].ID}))
	require.NoError(t, mgr.ChooseAttribute(ctx, code, a, engine.AttrStrength))
	require.NoError(t, mgr.PlayCard(ctx, code, a, catalog[0].ID))
	require.NoError(t, mgr.PlayCard(ctx, code, b, catalog[1].ID))

	require.Equal(t, engine.PhaseFinished, rt.State.Phase)
	require.True(t, records.finished)
	require.Equal(t, a, records.winner)
	require.Equal(t, 1, players.wins[a])
	require.Equal(t, 1, players.losses[b])

	// The losing card moved in the player store too.
	require.Len(t, players.transfers, 1)
	require.Equal(t, catalog[1].ID, players.transfers[0].CardID)
	require.Equal(t, a, players.transfers[0].To)

	// Every engine event reached the room.
	var sawFinished bool
	for _, ev := range broadcasts {
		if ev.Type == engine.EventMatchFinished {
			sawFinished = true
		}
	}
	require.True(t, sawFinished)

	// The finished match left the live set; its record remains.
	_, live := mgr.Runtime(code)
	require.False(t, live)
}

func TestRejectedJoinDoesNotPersistHand(t *testing.T) {
	cards := &fakeCards{cards: battleCatalog(40)}
	players := newFakePlayers()
	mgr := NewManager(cards, players, &fakeRecords{})

	a := registerPlayer(players)
	b := registerPlayer(players)
	late := registerPlayer(players)

	rt, err := mgr.Create(context.Background(), a, engine.DefaultRules())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, mgr.Join(ctx, rt.State.Code, a))
	require.NoError(t, mgr.Join(ctx, rt.State.Code, b))
	require.NoError(t, mgr.Start(ctx, rt.State.Code, a))

	err = mgr.Join(ctx, rt.State.Code, late)
	require.Equal(t, engine.KindPreconditionFailed, engine.KindOf(err))

	// The rejected join must not have dealt and persisted a hand.
	require.Empty(t, players.hands[late])
	require.Len(t, rt.State.Participants, 2)
}

func TestTransferPersistenceFailureSurfaces(t *testing.T) {
	catalog := battleCatalog(20)
	catalog[0].Strength = 9
	catalog[1].Strength = 2
	cards := &fakeCards{cards: catalog}
	players := newFakePlayers()
	players.transferErr = errStoreDown
	mgr := NewManager(cards, players, &fakeRecords{})

	a := registerPlayer(players, catalog[0].ID)
	b := registerPlayer(players, catalog[1].ID)

	rules := engine.DefaultRules()
	rules.CardsPerRound = 1
	rules.MaxRounds = 1
	rules.WinHandFraction = 0

	rt, err := mgr.Create(context.Background(), a, rules)
	require.NoError(t, err)
	code := rt.State.Code

	ctx := context.Background()
	require.NoError(t, mgr.Join(ctx, code, a))
	require.NoError(t, mgr.Join(ctx, code, b))
	require.NoError(t, mgr.Start(ctx, code, a))
	require.NoError(t, mgr.Select(ctx, code, a, []uuid.UUID{catalog[0].ID}))
	require.NoError(t, mgr.Select(ctx, code, b, []uuid.UUID{catalog[1].ID}))
	require.NoError(t, mgr.ChooseAttribute(ctx, code, a, engine.AttrStrength))
	require.NoError(t, mgr.PlayCard(ctx, code, a, catalog[0].ID))

	// The resolving play must report that card ownership could not be
	// persisted; the store seeds hands for the players' next matches.
	err = mgr.PlayCard(ctx, code, b, catalog[1].ID)
	require.Equal(t, engine.KindDependencyUnavailable, engine.KindOf(err))
	require.Empty(t, players.transfers)
}

func TestStartRejectsNonHost(t *testing.T) {
	catalog := battleCatalog(25)
	cards := &fakeCards{cards: catalog}
	players := newFakePlayers()
	mgr := NewManager(cards, players, &fakeRecords{})

	a := registerPlayer(players)
	b := registerPlayer(players)

	rt, err := mgr.Create(context.Background(), a, engine.DefaultRules())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, mgr.Join(ctx, rt.State.Code, a))
	require.NoError(t, mgr.Join(ctx, rt.State.Code, b))

	err = mgr.Start(ctx, rt.State.Code, b)
	require.Equal(t, engine.KindPreconditionFailed, engine.KindOf(err))
}

func TestSnapshotHidesSelections(t *testing.T) {
	catalog := battleCatalog(25)
	cards := &fakeCards{cards: catalog}
	players := newFakePlayers()
	mgr := NewManager(cards, players, &fakeRecords{})

	a := registerPlayer(players)
	b := registerPlayer(players)

	rules := engine.DefaultRules()
	rules.CardsPerRound = 2
	rt, err := mgr.Create(context.Background(), a, rules)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, mgr.Join(ctx, rt.State.Code, a))
	require.NoError(t, mgr.Join(ctx, rt.State.Code, b))
	require.NoError(t, mgr.Start(ctx, rt.State.Code, a))
	require.NoError(t, mgr.Select(ctx, rt.State.Code, a, players.hands[a][:2]))

	snap := rt.Snapshot()
	require.Equal(t, "selecting", snap.Phase)
	require.Len(t, snap.Participants, 2)
	for _, p := range snap.Participants {
		if p.PlayerID == a {
			require.True(t, p.Selected)
		} else {
			require.False(t, p.Selected)
		}
		require.Equal(t, 10, p.HandCount)
	}
}
