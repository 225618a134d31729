package ws

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/engine"
)

// clientMessage is the envelope for every action a client sends.
type clientMessage struct {
	Action    string      `json:"action"`
	Cards     []uuid.UUID `json:"cards,omitempty"`
	CardID    uuid.UUID   `json:"cardId,omitempty"`
	Attribute string      `json:"attribute,omitempty"`
	Number    int         `json:"number,omitempty"`
}

// errorMessage is sent privately to the player whose action failed.
// State-changing results go out as engine events instead.
type errorMessage struct {
	Type   string `json:"type"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

func errorEvent(err error) errorMessage {
	msg := errorMessage{Type: "error", Kind: engine.KindOf(err).String()}
	if e, ok := err.(*engine.Error); ok {
		msg.Reason = e.Reason
	} else {
		msg.Reason = "internal error"
	}
	return msg
}

// dispatch maps one client action onto the match runtime.
func (h *Hub) dispatch(ctx context.Context, code string, playerID uuid.UUID, msg clientMessage) error {
	switch msg.Action {
	case "join":
		return h.manager.Join(ctx, code, playerID)
	case "start":
		return h.manager.Start(ctx, code, playerID)
	case "select_cards":
		return h.manager.Select(ctx, code, playerID, msg.Cards)
	case "choose_attribute":
		attr, ok := engine.ParseAttribute(msg.Attribute)
		if !ok {
			return &engine.Error{Kind: engine.KindInvalidInput, Reason: fmt.Sprintf("unknown attribute %q", msg.Attribute)}
		}
		return h.manager.ChooseAttribute(ctx, code, playerID, attr)
	case "play_card":
		return h.manager.PlayCard(ctx, code, playerID, msg.CardID)
	case "place_bet":
		return h.manager.PlaceBet(ctx, code, playerID, msg.CardID, msg.Number)
	case "forfeit":
		return h.manager.Forfeit(ctx, code, playerID)
	}
	return &engine.Error{Kind: engine.KindInvalidInput, Reason: fmt.Sprintf("unknown action %q", msg.Action)}
}
