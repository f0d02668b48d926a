package session

import (
	"sort"
	"strings"

	"card-game-bot/internal/game"
)

// Hub holds the manager of every hosted game.
type Hub struct {
	managers map[string]*Manager
}

// NewHub creates a hub for the given managers.
func NewHub(managers ...*Manager) *Hub {
	h := &Hub{managers: make(map[string]*Manager, len(managers))}
	for _, m := range managers {
		h.managers[m.Game().Command()] = m
	}
	return h
}

// Get returns the manager for a lobby command argument such as "coup".
func (h *Hub) Get(command string) (*Manager, bool) {
	m, ok := h.managers[strings.ToLower(strings.TrimSpace(command))]
	return m, ok
}

// List returns every manager sorted by command.
func (h *Hub) List() []*Manager {
	out := make([]*Manager, 0, len(h.managers))
	for _, m := range h.managers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Game().Command() < out[j].Game().Command()
	})
	return out
}

// ActiveFor returns the running match userID plays in.
func (h *Hub) ActiveFor(userID int64) (*Manager, game.Match, bool) {
	for _, m := range h.List() {
		if match, ok := m.Active(); ok && match.HasPlayer(userID) {
			return m, match, true
		}
	}
	return nil, nil, false
}
