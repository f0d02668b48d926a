// Package httpapi serves a read-only JSON view of the lobbies, running games
// and leaderboards.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"card-game-bot/internal/model"
	"card-game-bot/internal/service"
	"card-game-bot/internal/session"
)

// CountingReader reads the counting leaderboards.
type CountingReader interface {
	Leaderboard(ctx context.Context) ([]*model.CountEntry, error)
	Competition(ctx context.Context) (*service.CompetitionStatus, error)
}

// WinsReader reads the match wins leaderboard.
type WinsReader interface {
	TopWinners(ctx context.Context, game string) ([]*model.WinRank, error)
}

// Check reports whether a backing service is reachable.
type Check func(ctx context.Context) error

const checkTimeout = 2 * time.Second

// Server holds the API dependencies.
type Server struct {
	hub      *session.Hub
	counting CountingReader
	wins     WinsReader
	checks   map[string]Check
}

// Option configures a Server.
type Option func(*Server)

// WithCheck adds a dependency to /api/health.
func WithCheck(name string, check Check) Option {
	return func(s *Server) { s.checks[name] = check }
}

// New creates a new Server.
func New(hub *session.Hub, counting CountingReader, wins WinsReader, opts ...Option) *Server {
	s := &Server{hub: hub, counting: counting, wins: wins, checks: make(map[string]Check)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/games", s.handleGames)
		r.Get("/games/{game}", s.handleGame)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/competition", s.handleCompetition)
		r.Get("/wins", s.handleWins)
	})
	return r
}

// requestLogger logs each request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// handleHealth runs every check; any failure makes the response 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			log.Warn().Err(err).Str("check", name).Msg("Health check failed")
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, results)
}

type gamePlayer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Cards int    `json:"cards"`
	Coins int    `json:"coins,omitempty"`
}

type gameView struct {
	Command    string            `json:"command"`
	Name       string            `json:"name"`
	MinPlayers int               `json:"min_players"`
	MaxPlayers int               `json:"max_players"`
	Queue      []string          `json:"queue"`
	Active     bool              `json:"active"`
	Players    []gamePlayer      `json:"players,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

func viewOf(m *session.Manager) gameView {
	desc := m.Game()
	v := gameView{
		Command:    desc.Command(),
		Name:       desc.Name(),
		MinPlayers: desc.MinPlayers(),
		MaxPlayers: desc.MaxPlayers(),
		Queue:      []string{},
	}
	for _, p := range m.Queue() {
		v.Queue = append(v.Queue, p.Name)
	}
	match, ok := m.Active()
	if !ok {
		return v
	}
	st := match.Status()
	v.Active = true
	v.Details = st.Details
	for _, p := range st.Players {
		v.Players = append(v.Players, gamePlayer{ID: p.ID, Name: p.Name, Cards: p.Cards, Coins: p.Coins})
	}
	return v
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	managers := s.hub.List()
	games := make([]gameView, 0, len(managers))
	for _, m := range managers {
		games = append(games, viewOf(m))
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	m, ok := s.hub.Get(chi.URLParam(r, "game"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown game")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(m))
}

type countView struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Count    int64  `json:"count"`
}

func countViews(entries []*model.CountEntry) []countView {
	out := make([]countView, 0, len(entries))
	for _, e := range entries {
		out = append(out, countView{UserID: e.UserID, Username: e.Username, Count: e.Count})
	}
	return out
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := s.counting.Leaderboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, countViews(top))
}

type competitionView struct {
	State     string      `json:"state"`
	Start     *time.Time  `json:"start,omitempty"`
	End       *time.Time  `json:"end,omitempty"`
	Standings []countView `json:"standings"`
}

func (s *Server) handleCompetition(w http.ResponseWriter, r *http.Request) {
	status, err := s.counting.Competition(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load competition")
		writeError(w, http.StatusInternalServerError, "failed to load competition")
		return
	}
	v := competitionView{State: status.State, Standings: countViews(status.Standings)}
	if status.Window.Scheduled() {
		v.Start, v.End = &status.Window.Start, &status.Window.End
	}
	writeJSON(w, http.StatusOK, v)
}

type winView struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Wins     int64  `json:"wins"`
}

func (s *Server) handleWins(w http.ResponseWriter, r *http.Request) {
	gameName := r.URL.Query().Get("game")
	if gameName != "" {
		m, ok := s.hub.Get(gameName)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown game")
			return
		}
		gameName = m.Game().Command()
	}

	top, err := s.wins.TopWinners(r.Context(), gameName)
	if err != nil {
		log.Error().Err(err).Str("game", gameName).Msg("Failed to load wins")
		writeError(w, http.StatusInternalServerError, "failed to load wins")
		return
	}
	out := make([]winView, 0, len(top))
	for _, t := range top {
		out = append(out, winView{UserID: t.UserID, Username: t.Username, Wins: t.Wins})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
