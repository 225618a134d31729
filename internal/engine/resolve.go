package engine

import (
	"time"

	"github.com/google/uuid"
)

// roundResolver is the variant-specific half of round resolution: it
// classifies winners and moves cards. The shared epilogue (round count,
// exhaustion marking, end condition, turn advancement, submission
// clearing) lives in finishRound.
type roundResolver interface {
	Resolve(m *Match) []Event
}

func (m *Match) resolveRound() []Event {
	var r roundResolver
	switch m.Rules.Mode {
	case ModeBetting:
		r = bettingRules{}
	default:
		r = attributeRules{}
	}
	return m.finishRound(r.Resolve(m))
}

// ---------------------------------------------------------------------------
// Attribute variant: winner takes all, ties re-draw the attribute
// ---------------------------------------------------------------------------

type attributeRules struct{}

func (attributeRules) Resolve(m *Match) []Event {
	var events []Event
	attr := m.CurrentAttribute

	for {
		winners := m.maxSubmissions(attr)
		if len(winners) == 1 {
			w := m.Submissions[winners[0]].PlayerID
			var transfers []Transfer
			for _, s := range m.Submissions {
				if s.PlayerID == w {
					continue
				}
				transfers = append(transfers, m.transferCard(s.PlayerID, w, s.CardID)...)
			}
			events = append(events, Event{
				Type:      EventRoundResolved,
				Outcome:   OutcomeWin,
				Attribute: attr,
				Winners:   []uuid.UUID{w},
				Transfers: transfers,
				Round:     m.Round + 1,
			})
			return events
		}

		// Tied on this attribute. If no attribute can separate the
		// submissions (identical cards in play), void the round rather
		// than re-drawing forever.
		if !m.someAttributeResolves() {
			events = append(events, Event{
				Type:      EventRoundResolved,
				Outcome:   OutcomePush,
				Attribute: attr,
				Round:     m.Round + 1,
			})
			return events
		}

		attr = attributes[m.randN(len(attributes))]
		m.CurrentAttribute = attr
		events = append(events, Event{
			Type:      EventRoundTied,
			Attribute: attr,
		})
	}
}

// maxSubmissions returns the indices of the submissions whose card holds
// the maximal value for attr.
func (m *Match) maxSubmissions(attr Attribute) []int {
	best := -1
	var idxs []int
	for i, s := range m.Submissions {
		c := m.cards[s.CardID]
		v := c.AttributeValue(attr)
		switch {
		case v > best:
			best = v
			idxs = idxs[:0]
			idxs = append(idxs, i)
		case v == best:
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// someAttributeResolves reports whether any attribute yields a unique
// maximum across the current submissions.
func (m *Match) someAttributeResolves() bool {
	for _, a := range attributes {
		if len(m.maxSubmissions(a)) == 1 {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Betting variant: match the drawn number or push
// ---------------------------------------------------------------------------

type bettingRules struct{}

func (bettingRules) Resolve(m *Match) []Event {
	span := m.Rules.MaxBet - m.Rules.MinBet + 1
	drawn := m.Rules.MinBet + m.randN(span)

	var winners []uuid.UUID
	for _, s := range m.Submissions {
		if s.Bet == drawn {
			winners = append(winners, s.PlayerID)
		}
	}

	if len(winners) == 0 {
		// Push: all bets are void, wagered cards stay where they are.
		return []Event{{
			Type:    EventRoundResolved,
			Outcome: OutcomePush,
			Number:  drawn,
			Round:   m.Round + 1,
		}}
	}

	// Every winner independently collects every loser's wagered card.
	var transfers []Transfer
	for _, s := range m.Submissions {
		if s.Bet == drawn {
			continue
		}
		loser := m.participant(s.PlayerID)
		if loser != nil {
			loser.Hand, _ = removeID(loser.Hand, s.CardID)
		}
		for _, w := range winners {
			winner := m.participant(w)
			winner.Hand = append(winner.Hand, s.CardID)
			transfers = append(transfers, Transfer{From: s.PlayerID, To: w, CardID: s.CardID})
		}
	}

	return []Event{{
		Type:      EventRoundResolved,
		Outcome:   OutcomeWin,
		Number:    drawn,
		Winners:   winners,
		Transfers: transfers,
		Round:     m.Round + 1,
	}}
}

// ---------------------------------------------------------------------------
// Shared epilogue
// ---------------------------------------------------------------------------

// transferCard moves cardID from one hand to another and reports the
// transfer. A card never duplicates: it is appended only when it was
// actually removed from the source hand.
func (m *Match) transferCard(from, to, cardID uuid.UUID) []Transfer {
	src := m.participant(from)
	dst := m.participant(to)
	if src == nil || dst == nil {
		return nil
	}
	var removed bool
	src.Hand, removed = removeID(src.Hand, cardID)
	if !removed {
		return nil
	}
	dst.Hand = append(dst.Hand, cardID)
	return []Transfer{{From: from, To: to, CardID: cardID}}
}

// finishRound applies the variant-independent end-of-round bookkeeping.
func (m *Match) finishRound(events []Event) []Event {
	m.Round++
	m.Submissions = m.Submissions[:0]
	m.CurrentAttribute = ""

	// Participants whose hand was exhausted leave the match now, before
	// the turn pointer moves.
	for i := range m.Participants {
		p := &m.Participants[i]
		if p.Active && len(p.Hand) == 0 {
			p.Active = false
			p.Selected = p.Selected[:0]
			events = append(events, Event{
				Type:   EventParticipantEliminated,
				Player: p.PlayerID,
			})
		}
	}

	if winner, done := m.checkEnd(); done {
		return m.finish(winner, events)
	}

	if m.Rules.Mode == ModeBetting {
		// New round: everyone reselects their stake.
		m.Phase = PhaseSelecting
		for i := range m.Participants {
			m.Participants[i].Selected = m.Participants[i].Selected[:0]
		}
		return events
	}

	// Once any active participant has spent their committed cards the
	// round quorum can no longer be met, so the match returns to
	// Selecting and everyone re-commits.
	if m.anySelectionSpent() {
		m.Phase = PhaseSelecting
		for i := range m.Participants {
			m.Participants[i].Selected = m.Participants[i].Selected[:0]
		}
		return events
	}

	m.normalizeTurn()
	m.advanceTurn()
	return append(events, Event{
		Type:    EventTurnAdvanced,
		TurnIdx: m.TurnIdx,
		Player:  m.Participants[m.TurnIdx].PlayerID,
	})
}

// anySelectionSpent reports whether some active participant has no
// committed card left to play.
func (m *Match) anySelectionSpent() bool {
	for i := range m.Participants {
		p := &m.Participants[i]
		if p.Active && len(p.Selected) == 0 {
			return true
		}
	}
	return false
}

// checkEnd evaluates the match end conditions after a resolution.
func (m *Match) checkEnd() (uuid.UUID, bool) {
	if n := m.ActiveCount(); n <= 1 {
		var winner uuid.UUID
		for i := range m.Participants {
			if m.Participants[i].Active {
				winner = m.Participants[i].PlayerID
			}
		}
		return winner, true
	}

	// Early finish: one hand dominates the cards contested in this match.
	if m.Rules.WinHandFraction > 0 && len(m.cards) > 0 {
		threshold := float64(len(m.cards)) * m.Rules.WinHandFraction
		for i := range m.Participants {
			p := &m.Participants[i]
			if p.Active && float64(len(p.Hand)) >= threshold {
				return p.PlayerID, true
			}
		}
	}

	if m.Rules.MaxRounds > 0 && m.Round >= m.Rules.MaxRounds {
		return m.leaderByCards(), true
	}
	return uuid.Nil, false
}

// leaderByCards picks the active participant holding the most cards;
// ties go to the earliest roster position.
func (m *Match) leaderByCards() uuid.UUID {
	best := -1
	var winner uuid.UUID
	for i := range m.Participants {
		p := &m.Participants[i]
		if p.Active && len(p.Hand) > best {
			best = len(p.Hand)
			winner = p.PlayerID
		}
	}
	return winner
}

// finish transitions the match to Finished.
func (m *Match) finish(winner uuid.UUID, events []Event) []Event {
	m.Phase = PhaseFinished
	m.WinnerID = winner
	m.FinishedAt = time.Now()
	return append(events, Event{
		Type:   EventMatchFinished,
		Player: winner,
		Phase:  m.Phase.String(),
		Round:  m.Round,
	})
}
