// Package memory provides an in-memory type universe. It backs tests and
// scans of pre-computed snapshots loaded from YAML.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"archscan/internal/typerepo"
)

// Entry is one type of the universe together with its outgoing references
// and the types it can be assigned to (implemented interfaces, embedded
// structs).
type Entry struct {
	typerepo.Type `yaml:",inline"`
	References    []string `yaml:"references,omitempty"`
	Supertypes    []string `yaml:"supertypes,omitempty"`
}

// Universe is a typerepo.Provider over a fixed set of entries.
type Universe struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	broken  map[string]error
}

func New() *Universe {
	return &Universe{
		entries: make(map[string]*Entry),
		broken:  make(map[string]error),
	}
}

// Add registers t with its direct references and returns the entry for
// further tuning.
func (u *Universe) Add(t typerepo.Type, refs ...string) *Entry {
	u.mu.Lock()
	defer u.mu.Unlock()
	if t.Visibility == "" && t.Name != "" {
		t.Visibility = typerepo.VisibilityOf(typerepo.SimpleName(t.Name))
	}
	if t.Category == "" {
		t.Category = typerepo.CategoryClass
	}
	e := &Entry{Type: t, References: refs}
	u.entries[t.Name] = e
	return e
}

// Class and Interface are shorthands for Add.
func (u *Universe) Class(name string, refs ...string) *Entry {
	return u.Add(typerepo.Type{Name: name, Category: typerepo.CategoryClass}, refs...)
}

func (u *Universe) Interface(name string, refs ...string) *Entry {
	return u.Add(typerepo.Type{Name: name, Category: typerepo.CategoryInterface}, refs...)
}

// Implements records that name is assignable to each supertype.
func (u *Universe) Implements(name string, supertypes ...string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if e, ok := u.entries[name]; ok {
		e.Supertypes = append(e.Supertypes, supertypes...)
	}
}

// Break makes every lookup of name fail with err.
func (u *Universe) Break(name string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.broken[name] = err
}

func (u *Universe) Types() ([]typerepo.Type, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]typerepo.Type, 0, len(u.entries))
	for _, e := range u.entries {
		out = append(out, e.Type)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (u *Universe) Lookup(name string) (typerepo.Type, error) {
	e, err := u.entry(name)
	if err != nil {
		return typerepo.Type{}, err
	}
	return e.Type, nil
}

func (u *Universe) References(name string) ([]string, error) {
	e, err := u.entry(name)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), e.References...), nil
}

// AssignableTo follows supertypes transitively.
func (u *Universe) AssignableTo(name, target string) (bool, error) {
	if _, err := u.entry(name); err != nil {
		return false, err
	}
	if name == target {
		return true, nil
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	visited := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		e, ok := u.entries[current]
		if !ok {
			continue
		}
		for _, super := range e.Supertypes {
			if super == target {
				return true, nil
			}
			if !visited[super] {
				visited[super] = true
				queue = append(queue, super)
			}
		}
	}
	return false, nil
}

func (u *Universe) entry(name string) (*Entry, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if err, ok := u.broken[name]; ok {
		return nil, err
	}
	e, ok := u.entries[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, typerepo.ErrTypeNotFound)
	}
	return e, nil
}
