package cache

import (
	"sync"
)

// Kind selects one of the registry's name → id maps.
type Kind int

const (
	Authors Kind = iota
	Sources
	Topics
	Symbols
)

func (k Kind) String() string {
	switch k {
	case Authors:
		return "authors"
	case Sources:
		return "sources"
	case Topics:
		return "topics"
	case Symbols:
		return "symbols"
	}
	return "unknown"
}

// Registry maps natural keys (author, source, topic names and tickers) to
// store-assigned ids for the lifetime of one sync run. It is created per run
// and handed to every step explicitly; never share one across runs.
type Registry struct {
	mu   sync.RWMutex
	ids  map[Kind]map[string]int64
	seen map[string]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		ids: map[Kind]map[string]int64{
			Authors: {},
			Sources: {},
			Topics:  {},
			Symbols: {},
		},
		seen: make(map[string]struct{}),
	}
}

// Preload seeds a map with entries loaded from the store at run start
func (r *Registry) Preload(kind Kind, entries map[string]int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.mapFor(kind)
	for k, id := range entries {
		m[k] = id
	}
}

// Lookup returns the cached id for key, if any
func (r *Registry) Lookup(kind Kind, key string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.ids[kind][key]
	return id, ok
}

// GetOrCreate returns the cached id for key, calling create on a miss.
// create runs at most once per distinct key unless it fails; failures are
// not cached.
func (r *Registry) GetOrCreate(kind Kind, key string, create func() (int64, error)) (int64, error) {
	if id, ok := r.Lookup(kind, key); ok {
		return id, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.mapFor(kind)
	if id, ok := m[key]; ok {
		return id, nil
	}
	id, err := create()
	if err != nil {
		return 0, err
	}
	m[key] = id
	return id, nil
}

// Set records an id directly, e.g. after a symbol insert
func (r *Registry) Set(kind Kind, key string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapFor(kind)[key] = id
}

// MarkSeenOrSkip reports false when symbol was already registered during this
// run and true (recording it) the first time.
func (r *Registry) MarkSeenOrSkip(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[symbol]; dup {
		return false
	}
	r.seen[symbol] = struct{}{}
	return true
}

// Len returns the number of entries cached for kind
func (r *Registry) Len(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids[kind])
}

func (r *Registry) mapFor(kind Kind) map[string]int64 {
	m, ok := r.ids[kind]
	if !ok {
		m = make(map[string]int64)
		r.ids[kind] = m
	}
	return m
}
