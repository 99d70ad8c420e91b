package session

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown workflow ids.
var ErrNotFound = errors.New("workflow not found")

// Factory creates a workflow for id.
type Factory func(id string) (*Workflow, error)

// InMemoryStore keeps workflows in a process local map. It is safe for
// concurrent access. The most recently created workflow is the current one.
type InMemoryStore struct {
	mu        sync.RWMutex
	factory   Factory
	workflows map[string]*Workflow
	order     []string
}

// NewInMemoryStore constructs an empty store creating workflows with factory.
func NewInMemoryStore(factory Factory) *InMemoryStore {
	return &InMemoryStore{factory: factory, workflows: make(map[string]*Workflow)}
}

// Create makes a new workflow. An empty id is replaced by a random uuid; an
// existing id is overwritten.
func (s *InMemoryStore) Create(id string) (*Workflow, error) {
	if id == "" {
		id = uuid.NewString()
	}
	w, err := s.factory(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		s.order = append(s.order, id)
	} else {
		s.moveToBackLocked(id)
	}
	s.workflows[id] = w
	return w, nil
}

// Get returns the workflow with id.
func (s *InMemoryStore) Get(id string) (*Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return w, nil
}

// Current returns the most recently created workflow, creating one lazily.
func (s *InMemoryStore) Current() (*Workflow, error) {
	s.mu.RLock()
	if n := len(s.order); n > 0 {
		w := s.workflows[s.order[n-1]]
		s.mu.RUnlock()
		return w, nil
	}
	s.mu.RUnlock()
	return s.Create("")
}

// IDs returns the stored workflow ids sorted.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := append([]string(nil), s.order...)
	sort.Strings(ids)
	return ids
}

// Delete removes the workflow with id.
func (s *InMemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return
	}
	delete(s.workflows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *InMemoryStore) moveToBackLocked(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, id)
}
