package gateway

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Route é uma entrada da tabela. Roles vazio = rota pública.
type Route struct {
	Pattern string
	Handler Handler
	Roles   []string

	prefix   string
	wildcard bool
}

func (r *Route) matches(path string) bool {
	if !r.wildcard {
		return path == r.Pattern
	}
	if r.prefix == "" {
		return strings.HasPrefix(path, "/")
	}
	return path == r.prefix || strings.HasPrefix(path, r.prefix+"/")
}

// RouteTable mapeia padrões para handlers.
//
// Padrões: exato ("/hello") ou com um único curinga no fim ("/*", "/api/*").
// Lookup escolhe o exato; senão o curinga de prefixo mais longo.
// Register só é permitido antes do Seal; depois disso a tabela é só leitura
// e Lookup não precisa de lock.
type RouteTable struct {
	mu        sync.Mutex
	exact     map[string]*Route
	wildcards []*Route
	sealed    atomic.Bool
}

func NewRouteTable() *RouteTable {
	return &RouteTable{exact: make(map[string]*Route)}
}

func (t *RouteTable) Register(pattern string, h Handler, roles ...string) error {
	if t.sealed.Load() {
		return fmt.Errorf("register %q: %w", pattern, ErrSealed)
	}
	if h == nil {
		return fmt.Errorf("%w: %q has no handler", ErrInvalidPattern, pattern)
	}
	route, err := parsePattern(pattern)
	if err != nil {
		return err
	}
	route.Handler = h
	route.Roles = append([]string(nil), roles...)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !route.wildcard {
		if _, dup := t.exact[pattern]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateRoute, pattern)
		}
		t.exact[pattern] = route
		return nil
	}

	for _, w := range t.wildcards {
		if w.Pattern == pattern {
			return fmt.Errorf("%w: %q", ErrDuplicateRoute, pattern)
		}
	}
	t.wildcards = append(t.wildcards, route)
	sort.SliceStable(t.wildcards, func(i, j int) bool {
		return len(t.wildcards[i].prefix) > len(t.wildcards[j].prefix)
	})
	return nil
}

// MustRegister é Register que entra em pânico no erro (para wiring estático).
func (t *RouteTable) MustRegister(pattern string, h Handler, roles ...string) {
	if err := t.Register(pattern, h, roles...); err != nil {
		panic(err)
	}
}

func (t *RouteTable) Lookup(path string) (*Route, bool) {
	if r, ok := t.exact[path]; ok {
		return r, true
	}
	for _, r := range t.wildcards {
		if r.matches(path) {
			return r, true
		}
	}
	return nil, false
}

// Seal congela a tabela.
func (t *RouteTable) Seal() { t.sealed.Store(true) }

func (t *RouteTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.exact) + len(t.wildcards)
}

func parsePattern(pattern string) (*Route, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, pattern)
	}
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return &Route{Pattern: pattern}, nil
	}
	if star != len(pattern)-1 || !strings.HasSuffix(pattern, "/*") {
		return nil, fmt.Errorf("%w: %q wildcard only allowed as trailing /*", ErrInvalidPattern, pattern)
	}
	return &Route{Pattern: pattern, prefix: strings.TrimSuffix(pattern, "/*"), wildcard: true}, nil
}
