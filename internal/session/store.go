package session

import (
	"sync"

	"github.com/roomly-dev/roomly/internal/models"
)

// State is the session snapshot exposed to the rendering layer
type State struct {
	User    *models.User
	Loading bool
}

// Authenticated reports whether a user is present
func (s State) Authenticated() bool {
	return s.User != nil
}

// ActionType identifies a state transition
type ActionType int

const (
	ActionLoading ActionType = iota
	ActionLoaded
	ActionSetUser
	ActionClearUser
)

// Action is dispatched to the store to change state
type Action struct {
	Type ActionType
	User *models.User
}

// Store holds the current session state. Safe for concurrent use; when
// actions race, the last dispatch wins.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
}

// NewStore creates a store in the loading state, matching a page that has not
// probed the backend yet
func NewStore() *Store {
	return &Store{
		state: State{Loading: true},
		subs:  make(map[int]func(State)),
	}
}

// GetState returns a snapshot of the current state
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to be called after every dispatch. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Dispatch applies action and notifies subscribers outside the lock
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.state = reduce(s.state, action)
	state := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func reduce(state State, action Action) State {
	switch action.Type {
	case ActionLoading:
		state.Loading = true
	case ActionLoaded:
		state.Loading = false
	case ActionSetUser:
		if action.User == nil {
			state.User = nil
			break
		}
		user := *action.User
		state.User = &user
	case ActionClearUser:
		state.User = nil
	}
	return state
}
