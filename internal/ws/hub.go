// Package ws is the realtime transport: one websocket room per match,
// authenticated by player token, relaying actions into the match
// runtime and engine events back out.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/auth"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/engine"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/game"
)

const writeTimeout = 5 * time.Second

// Hub tracks the room for every live match and attaches each room's
// fan-out callbacks to its runtime.
type Hub struct {
	mu      sync.Mutex
	rooms   map[string]*room
	manager *game.Manager
}

// NewHub creates the hub over the match manager.
func NewHub(manager *game.Manager) *Hub {
	return &Hub{
		rooms:   make(map[string]*room),
		manager: manager,
	}
}

type room struct {
	code string

	mu    sync.Mutex
	conns map[uuid.UUID]*websocket.Conn
}

// broadcast writes an event to every connection in the room. Dead
// connections are dropped; their read loops observe the close.
func (r *room) broadcast(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, conn := range r.conns {
		if err := writeEvent(conn, ev); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"match": r.code, "player": id,
			}).Debug("dropping unwritable connection")
			conn.Close(websocket.StatusNormalClosure, "write failed")
			delete(r.conns, id)
		}
	}
}

// sendTo writes an event to a single player's connection.
func (r *room) sendTo(playerID uuid.UUID, ev engine.Event) {
	r.sendJSON(playerID, ev)
}

// sendJSON writes any payload to a single player's connection.
func (r *room) sendJSON(playerID uuid.UUID, v interface{}) {
	r.mu.Lock()
	conn := r.conns[playerID]
	r.mu.Unlock()
	if conn != nil {
		_ = writeEvent(conn, v)
	}
}

func writeEvent(conn *websocket.Conn, v interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

// roomFor returns the room for a match, creating it and wiring the
// runtime's broadcast callbacks on first use.
func (h *Hub) roomFor(code string, rt *game.MatchRuntime) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[code]; ok {
		return r
	}
	r := &room{code: code, conns: make(map[uuid.UUID]*websocket.Conn)}
	h.rooms[code] = r

	// The runtime reads these callbacks under its own lock.
	rt.Mu.Lock()
	rt.BroadcastFn = r.broadcast
	rt.BroadcastToPlayerFn = r.sendTo
	rt.Mu.Unlock()
	return r
}

// ServeHTTP upgrades GET /ws?code=&token= into a match connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	playerID, err := auth.VerifyToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	rt, ok := h.manager.Runtime(code)
	if !ok {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket accept failed")
		return
	}

	room := h.roomFor(code, rt)
	room.mu.Lock()
	room.conns[playerID] = conn
	room.mu.Unlock()

	logrus.WithFields(logrus.Fields{"match": code, "player": playerID}).Info("player connected")
	h.readLoop(r.Context(), room, conn, code, playerID)
}

// readLoop decodes client actions until the connection closes, then
// withdraws the player from the match.
func (h *Hub) readLoop(ctx context.Context, room *room, conn *websocket.Conn, code string, playerID uuid.UUID) {
	defer func() {
		room.mu.Lock()
		delete(room.conns, playerID)
		empty := len(room.conns) == 0
		room.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		if empty {
			h.mu.Lock()
			delete(h.rooms, code)
			h.mu.Unlock()
		}

		if err := h.manager.Forfeit(context.Background(), code, playerID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"match": code, "player": playerID,
			}).Debug("withdraw on disconnect failed")
		}
		logrus.WithFields(logrus.Fields{"match": code, "player": playerID}).Info("player disconnected")
	}()

	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		if err := h.dispatch(ctx, code, playerID, msg); err != nil {
			room.sendJSON(playerID, errorEvent(err))
		}
	}
}
