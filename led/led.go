package led

import (
	"fmt"
	"sync"
)

// Dimmer is a single dimmable output channel, e.g. one PWM pin or one DMX
// slot. Levels are normalized: 0 is fully off and 1 is fully on. SetLevel is
// expected to apply near-instantly; any ramping is done by whoever calls it.
type Dimmer interface {
	// Level returns the last level written to the channel.
	Level() float64

	// SetLevel applies a new level to the channel immediately.
	SetLevel(level float64) error
}

// Virtual is an in-memory Dimmer. It is used by the demo daemon when no real
// output is configured and by tests that need a recording output.
type Virtual struct {
	name string

	mu    sync.RWMutex
	level float64
}

// NewVirtual creates a Virtual dimmer with the level set to 0.
func NewVirtual(name string) *Virtual {
	return &Virtual{name: name}
}

// Name returns the name the dimmer was created with.
func (v *Virtual) Name() string {
	return v.name
}

// Level returns the current level.
func (v *Virtual) Level() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.level
}

// SetLevel stores a new level.
func (v *Virtual) SetLevel(level float64) error {
	if level < 0 || level > 1 {
		return fmt.Errorf("level (%f) is not in the range 0.0-1.0, name=%s", level, v.name)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.level = level
	return nil
}
