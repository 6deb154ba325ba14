package autopilot

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

// Library maps pattern types to their automation descriptors.
//
// It is built once at startup. All public methods are thread-safe.
type Library struct {
	mu       sync.RWMutex
	patterns map[string]*AutoPattern
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{patterns: make(map[string]*AutoPattern)}
}

// AddPattern registers a new, empty descriptor for patternType and returns
// it for the caller to populate.
//
// Returns ErrDuplicateDescriptor if patternType is already registered; the
// existing registration is left unchanged.
func (l *Library) AddPattern(patternType string) (*AutoPattern, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.patterns[patternType]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDescriptor, patternType)
	}
	p := &AutoPattern{patternType: patternType}
	l.patterns[patternType] = p
	return p, nil
}

// Pattern looks up the descriptor for a pattern instance by its declared type.
func (l *Library) Pattern(c *show.Component) (*AutoPattern, bool) {
	return l.Lookup(c.Type())
}

// Lookup finds the descriptor for a pattern type.
func (l *Library) Lookup(patternType string) (*AutoPattern, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.patterns[patternType]
	return p, ok
}

// Types returns the registered pattern types, sorted.
func (l *Library) Types() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	types := make([]string, 0, len(l.patterns))
	for t := range l.patterns {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Len returns the number of registered pattern types.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.patterns)
}
