package transition

import (
	"sync"
	"time"

	"github.com/robmorgan/glow/led"
	"github.com/robmorgan/glow/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"k8s.io/utils/clock"
)

// DefaultTick is how often the worker steps the active transitions.
const DefaultTick = time.Millisecond

// Manager schedules all active transitions for the process. Construct one
// explicitly at startup and hand it to every call site that submits
// transitions; there is no hidden global.
//
// The manager owns at most one worker goroutine. The worker steps every
// active transition once per tick, reaps the finished ones and exits when
// the active set drains. Submit restarts it on demand, so an idle manager
// costs nothing.
type Manager struct {
	clock clock.WithTicker
	tick  time.Duration

	mu      sync.Mutex
	active  map[*Transition]struct{}
	running bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTick overrides the worker tick interval.
func WithTick(tick time.Duration) ManagerOption {
	return func(m *Manager) {
		m.tick = tick
	}
}

// NewManager initializes a transition Manager.
func NewManager(cl clock.WithTicker, opts ...ManagerOption) *Manager {
	m := &Manager{
		clock:  cl,
		tick:   DefaultTick,
		active: make(map[*Transition]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fade creates a transition of the dimmer from level `from` to level `to`
// over the given duration and submits it. The returned handle can be used
// to Cancel or Wait. The manager does not serialize transitions per dimmer:
// callers that start a new fade on a dimmer are expected to cancel the one
// they started before, otherwise the two race and the last write per tick
// wins.
func (m *Manager) Fade(dimmer led.Dimmer, duration time.Duration, from, to float64, opts ...Option) *Transition {
	opts = append([]Option{WithClock(m.clock)}, opts...)
	return m.Submit(New(dimmer, duration, from, to, opts...))
}

// Submit adds a transition to the active set and makes sure a worker is
// running to step it. It returns the same transition so the caller keeps a
// handle for Cancel and Wait.
func (m *Manager) Submit(t *Transition) *Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active[t] = struct{}{}
	if !m.running {
		m.running = true
		go m.worker()
	}
	return t
}

// Active returns the number of transitions currently being stepped.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// worker steps all active transitions once per tick until the active set is
// empty. Exactly one worker runs at a time; Submit spawns a new one after
// this one has exited.
func (m *Manager) worker() {
	log := logger.GetProjectLogger()

	ticker := m.clock.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		// Step a point-in-time snapshot so transitions submitted or reaped
		// mid-tick are neither skipped nor stepped twice.
		for _, t := range m.snapshot() {
			if err := t.Step(); err != nil {
				log.WithFields(logrus.Fields{
					"duration": t.Duration(),
					"progress": t.Progress(),
				}).Errorf("dropping transition after dimmer write failure: %v", err)
			}
		}

		m.mu.Lock()
		for t := range m.active {
			if t.Finished() {
				delete(m.active, t)
			}
		}
		if len(m.active) == 0 {
			m.running = false
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		<-ticker.C()
	}
}

func (m *Manager) snapshot() []*Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Keys(m.active)
}
