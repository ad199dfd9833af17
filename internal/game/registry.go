package game

import (
	"fmt"
	"sort"
	"sync"

	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
)

// Constructor builds a Game for a given variant (empty string selects the
// game's default variant).
type Constructor func(variant string) (Game, error)

// Registry maps a game name to a Constructor, generalizing the teacher's
// analysis-mode-to-Analyzer factory (internal/analyzer.Factory in the
// teacher repo) to game-name-to-Game.
type Registry struct {
	mu   sync.RWMutex
	ctor map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctor: make(map[string]Constructor)}
}

// Register adds a game constructor under name. Re-registering the same
// name overwrites the previous constructor, which is convenient for tests
// that install a fixture game.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctor[name] = ctor
}

// Create builds the named game with the given variant.
func (r *Registry) Create(name, variant string) (Game, error) {
	r.mu.RLock()
	ctor, ok := r.ctor[name]
	r.mu.RUnlock()
	if !ok {
		return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeNotFound,
			fmt.Sprintf("unknown game %q", name), nil)
	}
	return ctor(variant)
}

// Names returns every registered game name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctor))
	for n := range r.ctor {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
