// Package handlers exposes the HTTP API: card catalog CRUD, player
// registration and login, and match creation/inspection. Gameplay
// itself happens over the websocket transport.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/auth"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/cache"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/database"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/engine"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/game"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/models"
)

// API bundles the stores and the match manager behind the HTTP surface.
type API struct {
	Cards   *database.CardStore
	Players *database.PlayerStore
	Matches *database.MatchStore
	Manager *game.Manager
}

// Register mounts every route on the mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/players", a.registerPlayer)
	mux.HandleFunc("POST /api/players/login", a.login)
	mux.HandleFunc("GET /api/players", a.listPlayers)
	mux.HandleFunc("GET /api/players/{id}", a.getPlayer)

	mux.HandleFunc("POST /api/cards", a.createCard)
	mux.HandleFunc("GET /api/cards", a.listCards)
	mux.HandleFunc("GET /api/cards/{id}", a.getCard)
	mux.HandleFunc("PUT /api/cards/{id}", a.updateCard)
	mux.HandleFunc("DELETE /api/cards/{id}", a.deleteCard)

	mux.HandleFunc("POST /api/matches", a.createMatch)
	mux.HandleFunc("GET /api/matches", a.listMatches)
	mux.HandleFunc("GET /api/matches/{code}", a.getMatch)
	mux.HandleFunc("GET /api/matches/{code}/journal", a.getJournal)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// writeError maps domain error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var e *engine.Error
	if errors.As(err, &e) {
		status := http.StatusInternalServerError
		switch e.Kind {
		case engine.KindNotFound:
			status = http.StatusNotFound
		case engine.KindInvalidInput:
			status = http.StatusBadRequest
		case engine.KindPreconditionFailed, engine.KindDuplicateSubmission:
			status = http.StatusConflict
		case engine.KindOwnershipViolation:
			status = http.StatusForbidden
		case engine.KindResourceExhausted:
			status = http.StatusConflict
		case engine.KindDependencyUnavailable:
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, errorBody{Error: e.Kind.String(), Reason: e.Reason})
		return
	}
	switch {
	case errors.Is(err, database.ErrCardNotFound),
		errors.Is(err, database.ErrPlayerNotFound),
		errors.Is(err, database.ErrMatchNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
	default:
		logrus.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal"})
	}
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// bearerPlayer authenticates the request via its Authorization header.
func bearerPlayer(r *http.Request) (uuid.UUID, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return uuid.Nil, false
	}
	id, err := auth.VerifyToken(token)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// Players
// ---------------------------------------------------------------------------

type credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tokenResponse struct {
	PlayerID uuid.UUID `json:"playerId"`
	Token    string    `json:"token"`
}

func (a *API) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil || req.Name == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input", Reason: "name and password are required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	p := &models.Player{Name: req.Name, PasswordHash: hash}
	if err := a.Players.Create(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	token, err := auth.NewToken(p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{PlayerID: p.ID, Token: token})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input"})
		return
	}

	p, err := a.Players.GetByName(r.Context(), req.Name)
	if err != nil || !auth.CheckPassword(p.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid_credentials"})
		return
	}

	token, err := auth.NewToken(p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{PlayerID: p.ID, Token: token})
}

func (a *API) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := a.Players.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if players == nil {
		players = []*models.Player{}
	}
	writeJSON(w, http.StatusOK, players)
}

func (a *API) getPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input", Reason: "bad player id"})
		return
	}
	p, err := a.Players.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ---------------------------------------------------------------------------
// Cards
// ---------------------------------------------------------------------------

func (a *API) createCard(w http.ResponseWriter, r *http.Request) {
	var c models.Card
	if err := decode(r, &c); err != nil || c.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input", Reason: "card name is required"})
		return
	}
	if err := a.Cards.Create(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) listCards(w http.ResponseWriter, r *http.Request) {
	cards, err := a.Cards.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if cards == nil {
		cards = []*models.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (a *API) getCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input", Reason: "bad card id"})
		return
	}
	c, err := a.Cards.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) updateCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input", Reason: "bad card id"})
		return
	}
	var c models.Card
	if err := decode(r, &c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input"})
		return
	}
	c.ID = id
	if err := a.Cards.Update(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) deleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input", Reason: "bad card id"})
		return
	}
	if err := a.Cards.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Matches
// ---------------------------------------------------------------------------

type createMatchRequest struct {
	Mode          string `json:"mode,omitempty"`
	MaxPlayers    int    `json:"maxPlayers,omitempty"`
	CardsPerRound int    `json:"cardsPerRound,omitempty"`
	MaxRounds     int    `json:"maxRounds,omitempty"`
}

func (a *API) createMatch(w http.ResponseWriter, r *http.Request) {
	playerID, ok := bearerPlayer(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid_token"})
		return
	}

	var req createMatchRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input"})
			return
		}
	}

	mode, ok := engine.ParseMode(req.Mode)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_input", Reason: "unknown mode"})
		return
	}
	rules := engine.DefaultRules()
	rules.Mode = mode
	if req.MaxPlayers > 1 {
		rules.MaxPlayers = req.MaxPlayers
	}
	if req.CardsPerRound > 0 {
		rules.CardsPerRound = req.CardsPerRound
	}
	if req.MaxRounds > 0 {
		rules.MaxRounds = req.MaxRounds
	}

	rt, err := a.Manager.Create(r.Context(), playerID, rules)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt.Snapshot())
}

func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := a.Matches.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (a *API) getMatch(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if rt, ok := a.Manager.Runtime(code); ok {
		writeJSON(w, http.StatusOK, rt.Snapshot())
		return
	}
	record, err := a.Matches.Get(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (a *API) getJournal(w http.ResponseWriter, r *http.Request) {
	events, err := cache.MatchJournal(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
