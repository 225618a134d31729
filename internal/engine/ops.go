package engine

import "github.com/google/uuid"

// DealHand samples InitialHandSize cards from the catalog, excluding any
// card already dealt to another participant of this match. The draw uses
// the match RNG so it happens inside the same atomic unit as the join
// that triggered it.
func (m *Match) DealHand(catalog []Card) ([]Card, error) {
	pool := make([]Card, 0, len(catalog))
	for _, c := range catalog {
		if _, taken := m.cards[c.ID]; !taken {
			pool = append(pool, c)
		}
	}
	n := m.Rules.InitialHandSize
	if len(pool) < n {
		return nil, errExhausted("not enough cards in the catalog to deal a hand")
	}
	// Partial Fisher-Yates: the first n slots become the sample.
	for i := 0; i < n; i++ {
		j := i + m.randN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n], nil
}

// CanJoin checks every join precondition without mutating anything, so
// callers can verify joinability before committing side effects (the
// hand deal) that accompany the join.
func (m *Match) CanJoin(playerID uuid.UUID) error {
	if m.Phase != PhaseWaiting {
		return errPrecondition("match has already started")
	}
	if m.participant(playerID) != nil {
		return nil // rejoin
	}
	if len(m.Participants) >= m.Rules.MaxPlayers {
		return errPrecondition("match is full")
	}
	return nil
}

// Join adds a player to the roster, or reactivates them when they are
// already present (idempotent rejoin). The caller passes the player's
// full hand; the engine snapshots every card for later resolution.
func (m *Match) Join(playerID uuid.UUID, hand []Card) ([]Event, error) {
	if err := m.CanJoin(playerID); err != nil {
		return nil, err
	}

	if p := m.participant(playerID); p != nil {
		p.Active = true
		return []Event{{
			Type:   EventParticipantJoined,
			Player: playerID,
			Count:  len(m.Participants),
		}}, nil
	}

	handIDs := make([]uuid.UUID, 0, len(hand))
	for _, c := range hand {
		if owner := m.ownerOf(c.ID); owner != uuid.Nil {
			return nil, errOwnership("card %s is already held by another participant", c.ID)
		}
		handIDs = append(handIDs, c.ID)
	}
	for _, c := range hand {
		m.cards[c.ID] = c
	}

	m.Participants = append(m.Participants, Participant{
		PlayerID: playerID,
		Hand:     handIDs,
		Selected: []uuid.UUID{},
		Active:   true,
	})

	return []Event{{
		Type:   EventParticipantJoined,
		Player: playerID,
		Count:  len(m.Participants),
	}}, nil
}

// ownerOf returns the participant currently holding cardID, or Nil.
func (m *Match) ownerOf(cardID uuid.UUID) uuid.UUID {
	for i := range m.Participants {
		if containsID(m.Participants[i].Hand, cardID) {
			return m.Participants[i].PlayerID
		}
	}
	return uuid.Nil
}

// Start moves the match from Waiting to Selecting. Only the host (first
// roster entry) may start, and at least two participants must be present.
func (m *Match) Start(playerID uuid.UUID) ([]Event, error) {
	if m.Phase != PhaseWaiting {
		return nil, errPrecondition("match has already started")
	}
	if len(m.Participants) == 0 || m.Participants[0].PlayerID != playerID {
		return nil, errPrecondition("only the host can start the match")
	}
	if len(m.Participants) < 2 {
		return nil, errPrecondition("at least 2 players are required to start")
	}

	m.Phase = PhaseSelecting
	return []Event{{
		Type:  EventMatchStarted,
		Phase: m.Phase.String(),
		Count: len(m.Participants),
	}}, nil
}

// Select records the cards a participant commits for the upcoming
// round(s). When every active participant has selected exactly K cards
// the match transitions to Playing.
func (m *Match) Select(playerID uuid.UUID, cardIDs []uuid.UUID) ([]Event, error) {
	if m.Phase != PhaseSelecting {
		return nil, errPrecondition("match is not in the selection phase")
	}
	p := m.participant(playerID)
	if p == nil {
		return nil, errNotFound("player is not in this match")
	}
	if !p.Active {
		return nil, errPrecondition("player is no longer active")
	}
	// A hand smaller than K commits in full.
	want := m.Rules.CardsPerRound
	if len(p.Hand) < want {
		want = len(p.Hand)
	}
	if len(cardIDs) != want {
		return nil, errInvalid("exactly %d cards must be selected", want)
	}
	seen := make(map[uuid.UUID]bool, len(cardIDs))
	for _, id := range cardIDs {
		if seen[id] {
			return nil, errInvalid("selection contains duplicate cards")
		}
		seen[id] = true
		if !containsID(p.Hand, id) {
			return nil, errOwnership("card %s is not in your hand", id)
		}
	}

	p.Selected = append([]uuid.UUID{}, cardIDs...)

	events := []Event{{
		Type:   EventSelectionRecorded,
		Player: playerID,
		Count:  len(cardIDs),
	}}

	if m.allActiveSelected() {
		m.Phase = PhasePlaying
		if m.Rules.Mode == ModeBetting {
			m.resetTurnToFirstActive()
		} else {
			m.normalizeTurn()
		}
		events = append(events, Event{
			Type:    EventSelectionComplete,
			Phase:   m.Phase.String(),
			TurnIdx: m.TurnIdx,
		})
	}
	return events, nil
}

// allActiveSelected reports whether every active participant has
// committed their cards for the round (K, or their whole hand when
// smaller).
func (m *Match) allActiveSelected() bool {
	for i := range m.Participants {
		p := &m.Participants[i]
		if !p.Active {
			continue
		}
		want := m.Rules.CardsPerRound
		if len(p.Hand) < want {
			want = len(p.Hand)
		}
		if len(p.Selected) != want {
			return false
		}
	}
	return true
}

func (m *Match) resetTurnToFirstActive() {
	for i := range m.Participants {
		if m.Participants[i].Active {
			m.TurnIdx = i
			return
		}
	}
}

// ChooseAttribute sets the comparison attribute for the current round.
// Only the participant holding the turn may choose (ModeAttribute only).
func (m *Match) ChooseAttribute(playerID uuid.UUID, attr Attribute) ([]Event, error) {
	if m.Rules.Mode != ModeAttribute {
		return nil, errPrecondition("this match does not use attribute battles")
	}
	if m.Phase != PhasePlaying {
		return nil, errPrecondition("match is not in play")
	}
	if _, ok := ParseAttribute(string(attr)); !ok {
		return nil, errInvalid("unknown attribute %q", attr)
	}
	// The attribute is per-round state: once a card has been played
	// against it, it is locked until resolution.
	if len(m.Submissions) > 0 {
		return nil, errPrecondition("the attribute cannot change after a card has been played")
	}
	tp := m.TurnPlayer()
	if tp == nil || tp.PlayerID != playerID {
		return nil, errPrecondition("it is not your turn to choose the attribute")
	}

	m.CurrentAttribute = attr
	return []Event{{
		Type:      EventAttributeChosen,
		Player:    playerID,
		Attribute: attr,
	}}, nil
}

// PlayCard submits a card for the current round (ModeAttribute). The
// submission that completes the quorum triggers resolution synchronously.
func (m *Match) PlayCard(playerID, cardID uuid.UUID) ([]Event, error) {
	if m.Rules.Mode != ModeAttribute {
		return nil, errPrecondition("this match does not use attribute battles")
	}
	p, err := m.validateSubmission(playerID, cardID)
	if err != nil {
		return nil, err
	}
	if m.CurrentAttribute == "" {
		return nil, errPrecondition("the round attribute has not been chosen yet")
	}
	if m.Rules.StrictTurnOrder {
		if tp := m.TurnPlayer(); tp == nil || tp.PlayerID != playerID {
			return nil, errPrecondition("it is not your turn")
		}
	}

	p.Selected, _ = removeID(p.Selected, cardID)
	m.Submissions = append(m.Submissions, Submission{PlayerID: playerID, CardID: cardID})

	events := []Event{{
		Type:   EventCardSubmitted,
		Player: playerID,
		CardID: cardID,
	}}

	if m.quorumReached() {
		return append(events, m.resolveRound()...), nil
	}
	if m.Rules.StrictTurnOrder {
		m.advanceTurn()
		events = append(events, Event{
			Type:    EventTurnAdvanced,
			TurnIdx: m.TurnIdx,
			Player:  m.Participants[m.TurnIdx].PlayerID,
		})
	}
	return events, nil
}

// PlaceBet submits a wagered card plus a hidden number (ModeBetting).
// The submission that completes the quorum triggers resolution.
func (m *Match) PlaceBet(playerID, cardID uuid.UUID, number int) ([]Event, error) {
	if m.Rules.Mode != ModeBetting {
		return nil, errPrecondition("this match does not use number betting")
	}
	if number < m.Rules.MinBet || number > m.Rules.MaxBet {
		return nil, errInvalid("bet must be between %d and %d", m.Rules.MinBet, m.Rules.MaxBet)
	}
	p, err := m.validateSubmission(playerID, cardID)
	if err != nil {
		return nil, err
	}

	p.Selected, _ = removeID(p.Selected, cardID)
	m.Submissions = append(m.Submissions, Submission{PlayerID: playerID, CardID: cardID, Bet: number})

	events := []Event{{
		Type:   EventCardSubmitted,
		Player: playerID,
		CardID: cardID,
	}}

	if m.quorumReached() {
		return append(events, m.resolveRound()...), nil
	}
	return events, nil
}

// quorumReached reports whether every active participant has submitted
// this round. Submissions from since-forfeited players stay in battle
// but do not count toward the quorum.
func (m *Match) quorumReached() bool {
	if m.ActiveCount() == 0 {
		return false
	}
	for i := range m.Participants {
		p := &m.Participants[i]
		if p.Active && !m.hasSubmitted(p.PlayerID) {
			return false
		}
	}
	return true
}

// validateSubmission runs the checks shared by PlayCard and PlaceBet.
// Validation completes fully before any mutation begins.
func (m *Match) validateSubmission(playerID, cardID uuid.UUID) (*Participant, error) {
	if m.Phase != PhasePlaying {
		return nil, errPrecondition("match is not in play")
	}
	p := m.participant(playerID)
	if p == nil {
		return nil, errNotFound("player is not in this match")
	}
	if !p.Active {
		return nil, errPrecondition("player is no longer active")
	}
	if m.hasSubmitted(playerID) {
		return nil, errDuplicate("you have already submitted this round")
	}
	if !containsID(p.Selected, cardID) {
		return nil, errOwnership("card is not among your selected cards")
	}
	return p, nil
}

// Forfeit marks a participant inactive. When only one active participant
// remains the match finishes immediately with them as winner. Forfeiting
// twice is a no-op.
func (m *Match) Forfeit(playerID uuid.UUID) ([]Event, error) {
	p := m.participant(playerID)
	if p == nil {
		return nil, errNotFound("player is not in this match")
	}
	if !p.Active {
		return nil, nil
	}

	p.Active = false
	events := []Event{{
		Type:   EventParticipantForfeited,
		Player: playerID,
	}}

	if m.Phase == PhaseFinished {
		return events, nil
	}

	if m.ActiveCount() <= 1 {
		var winner uuid.UUID
		for i := range m.Participants {
			if m.Participants[i].Active {
				winner = m.Participants[i].PlayerID
			}
		}
		return m.finish(winner, events), nil
	}

	m.normalizeTurn()

	// A forfeit can complete the round quorum for the remaining players.
	if m.Phase == PhasePlaying && m.quorumReached() {
		events = append(events, m.resolveRound()...)
	}
	return events, nil
}
