package broker

import (
	"context"
	"sync"
)

// Memory is the in-process broker used when no NATS server is configured.
type Memory struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]*memorySub
	closed bool
}

type memorySub struct {
	mu      sync.Mutex
	handler Handler
	active  bool
	remove  func()
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[int]*memorySub)}
}

// Publish runs handlers synchronously, so per-subscription order follows
// the order of Publish calls.
func (m *Memory) Publish(_ context.Context, subject string, payload []byte) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*memorySub, 0, len(m.subs[subject]))
	for _, s := range m.subs[subject] {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	for _, s := range targets {
		s.deliver(payload)
	}
	return nil
}

func (m *Memory) Subscribe(subject string, handler Handler) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	id := m.nextID
	m.nextID++
	s := &memorySub{handler: handler, active: true}
	s.remove = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs[subject], id)
		if len(m.subs[subject]) == 0 {
			delete(m.subs, subject)
		}
	}
	if m.subs[subject] == nil {
		m.subs[subject] = make(map[int]*memorySub)
	}
	m.subs[subject][id] = s
	return s, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subs = make(map[string]map[int]*memorySub)
	return nil
}

// Subscribers reports how many subscriptions a subject has.
func (m *Memory) Subscribers(subject string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[subject])
}

func (s *memorySub) deliver(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.handler(payload)
	}
}

func (s *memorySub) Unsubscribe() error {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.remove()
	return nil
}
