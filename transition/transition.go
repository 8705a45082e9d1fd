package transition

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/fogleman/ease"
	"github.com/robmorgan/glow/led"
	"k8s.io/utils/clock"
)

// Transition ramps a single dimmer from one level to another over a fixed
// duration. It holds a reference to the dimmer but does not own it: the
// Manager drives all writes by calling Step on every tick, and the submitter
// keeps the handle around to Cancel or Wait.
//
// Creating a transition never writes to the dimmer. The first write happens
// on the first Step, so a transition that is cancelled before the worker gets
// to it leaves the dimmer untouched.
type Transition struct {
	dimmer   led.Dimmer
	duration time.Duration
	from     float64
	to       float64
	curve    ease.Function

	clock     clock.PassiveClock
	startTime time.Time

	// mu orders Step against Cancel so that no write can land after the
	// completion signal is set.
	mu        sync.Mutex
	cancelled bool
	signalled bool
	err       error
	done      chan struct{}
}

// Option configures a Transition.
type Option func(*Transition)

// WithCurve sets the easing function applied to the transition progress.
// The default is ease.Linear.
func WithCurve(fn ease.Function) Option {
	return func(t *Transition) {
		t.curve = fn
	}
}

// WithClock sets the clock used to measure elapsed time. Tests use a fake.
func WithClock(cl clock.PassiveClock) Option {
	return func(t *Transition) {
		t.clock = cl
	}
}

// New creates a transition of the dimmer from level `from` to level `to`
// over the given duration, and records the start timestamp. A negative
// duration is treated as zero, i.e. an instant transition. Levels are
// clamped to 0.0-1.0.
func New(dimmer led.Dimmer, duration time.Duration, from, to float64, opts ...Option) *Transition {
	if duration < 0 {
		duration = 0
	}

	t := &Transition{
		dimmer:   dimmer,
		duration: duration,
		from:     clamp(from, 0, 1),
		to:       clamp(to, 0, 1),
		curve:    ease.Linear,
		clock:    clock.RealClock{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.startTime = t.clock.Now()
	return t
}

// Duration returns the duration of the transition.
func (t *Transition) Duration() time.Duration {
	return t.duration
}

// Progress returns how far along the transition is (0.0-1.0). A zero
// duration transition is always at progress 1.
func (t *Transition) Progress() float64 {
	if t.duration == 0 {
		return 1
	}

	runTime := t.clock.Since(t.startTime)
	return clamp(runTime.Seconds()/t.duration.Seconds(), 0, 1)
}

// Step applies the current stage of the transition based on elapsed time.
// It is a no-op once the transition has been cancelled or has finished. At
// progress 1 it writes the end level exactly once and sets the completion
// signal. A dimmer write failure makes the transition terminal and is
// returned so the worker can report and drop it.
func (t *Transition) Step() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.signalled {
		return nil
	}

	progress := t.Progress()
	if progress == 1 {
		if err := t.dimmer.SetLevel(t.to); err != nil {
			t.failLocked(err)
			return err
		}
		t.signalLocked()
		return nil
	}

	level := t.from + t.curve(progress)*(t.to-t.from)
	if err := t.dimmer.SetLevel(clamp(level, 0, 1)); err != nil {
		t.failLocked(err)
		return err
	}
	return nil
}

// Cancel stops the transition without a final write. It is safe to call
// from any goroutine and is idempotent: cancelling a transition that has
// already finished or been cancelled does nothing.
func (t *Transition) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.signalled {
		return
	}
	t.cancelled = true
	t.signalLocked()
}

// Finished reports whether the transition has stopped running, by
// completing, being cancelled, or failing. It never blocks.
func (t *Transition) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.signalled
}

// Cancelled reports whether the transition was cancelled.
func (t *Transition) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Err returns the dimmer write failure that terminated the transition, or
// nil if it completed or was cancelled.
func (t *Transition) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Done returns a channel that is closed once the completion signal is set.
func (t *Transition) Done() <-chan struct{} {
	return t.done
}

// Wait blocks the caller (never the worker) until the transition finishes,
// is cancelled, or the context is done. It returns the transition's write
// failure if it had one, or the context error on timeout.
func (t *Transition) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transition) signalLocked() {
	t.signalled = true
	close(t.done)
}

func (t *Transition) failLocked(err error) {
	t.err = err
	t.signalLocked()
}

func clamp(t, minVal, maxVal float64) float64 {
	minVal, maxVal = math.Min(minVal, maxVal), math.Max(minVal, maxVal)
	return math.Max(math.Min(t, maxVal), minVal)
}
