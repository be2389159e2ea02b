package netstatus

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the connectivity snapshot the platform reports.
type State struct {
	Connected bool   `json:"connected"`
	Reachable bool   `json:"reachable"`
	Transport string `json:"transport"`
}

// Listener observes every state transition.
type Listener func(State)

// Monitor tracks connectivity and notifies subscribers on transitions. A
// transition into the connected state additionally fires the reconnect
// hooks; that transition is the only automatic trigger for draining the
// offline queue.
type Monitor struct {
	mu         sync.Mutex
	state      State
	listeners  map[int]Listener
	reconnects map[int]func()
	nextID     int
	logger     zerolog.Logger
}

// NewMonitor builds a Monitor that starts disconnected.
func NewMonitor(logger zerolog.Logger) *Monitor {
	return &Monitor{
		listeners:  make(map[int]Listener),
		reconnects: make(map[int]func()),
		logger:     logger.With().Str("component", "netstatus_monitor").Logger(),
	}
}

// Current returns the last observed state.
func (m *Monitor) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Set records a new state. Listeners fire only when the state actually
// changed; reconnect hooks fire only on a disconnected-to-connected
// transition. Callbacks run outside the monitor lock.
func (m *Monitor) Set(state State) {
	m.mu.Lock()
	previous := m.state
	if previous == state {
		m.mu.Unlock()
		return
	}
	m.state = state

	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}

	var reconnects []func()
	if !previous.Connected && state.Connected {
		reconnects = make([]func(), 0, len(m.reconnects))
		for _, hook := range m.reconnects {
			reconnects = append(reconnects, hook)
		}
	}
	m.mu.Unlock()

	m.logger.Info().
		Bool("connected", state.Connected).
		Str("transport", state.Transport).
		Msg("connectivity changed")

	for _, l := range listeners {
		l(state)
	}
	for _, hook := range reconnects {
		hook()
	}
}

// Subscribe registers a transition listener and returns its cancel func.
func (m *Monitor) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = l

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// OnReconnect registers a hook fired on transitions into the connected
// state and returns its cancel func.
func (m *Monitor) OnReconnect(hook func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.reconnects[id] = hook

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.reconnects, id)
	}
}

// Probe asks the platform for the current connectivity.
type Probe func(ctx context.Context) State

// RunProbe feeds the monitor from the probe at the given interval until the
// context is cancelled. The probe only observes connectivity; draining
// still happens solely on the reconnect transition.
func (m *Monitor) RunProbe(ctx context.Context, interval time.Duration, probe Probe) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Set(probe(ctx))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Set(probe(ctx))
		}
	}
}
