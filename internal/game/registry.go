package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrDuplicateGame is returned when a command is registered twice.
var ErrDuplicateGame = errors.New("game already registered")

// Registry manages game registration and lookup by command.
type Registry struct {
	games map[string]Game
	mu    sync.RWMutex
}

// NewRegistry creates a new game registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]Game),
	}
}

// Register adds a game to the registry. Commands are case-insensitive.
func (r *Registry) Register(g Game) error {
	if g == nil {
		return fmt.Errorf("cannot register nil game")
	}
	if g.Command() == "" {
		return fmt.Errorf("game command cannot be empty")
	}
	if g.MinPlayers() < 1 || g.MaxPlayers() < g.MinPlayers() {
		return fmt.Errorf("game %s has invalid player bounds %d..%d", g.Command(), g.MinPlayers(), g.MaxPlayers())
	}

	key := strings.ToLower(g.Command())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGame, key)
	}
	r.games[key] = g
	return nil
}

// Get retrieves a game by its command, ignoring case.
func (r *Registry) Get(command string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[strings.ToLower(strings.TrimSpace(command))]
	return g, ok
}

// List returns all registered games sorted by command.
func (r *Registry) List() []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	games := make([]Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].Command() < games[j].Command()
	})
	return games
}

// Commands returns all registered game commands, sorted.
func (r *Registry) Commands() []string {
	games := r.List()
	commands := make([]string, 0, len(games))
	for _, g := range games {
		commands = append(commands, g.Command())
	}
	return commands
}

// Count returns the number of registered games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
