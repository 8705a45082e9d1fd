package light

import (
	"context"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/robmorgan/glow/led"
	"github.com/robmorgan/glow/transition"
)

// RGBLight is a three-channel color light. A color change fans out as one
// fade per channel, all submitted to the same manager, so the channels ramp
// together and finish within a tick of each other.
type RGBLight struct {
	name    string
	manager *transition.Manager
	red     led.Dimmer
	green   led.Dimmer
	blue    led.Dimmer

	mu     sync.Mutex
	active []*transition.Transition
}

// NewRGB creates a color light from three dimmer channels.
func NewRGB(name string, red, green, blue led.Dimmer, manager *transition.Manager) *RGBLight {
	return &RGBLight{
		name:    name,
		manager: manager,
		red:     red,
		green:   green,
		blue:    blue,
	}
}

// Name returns the name of the light.
func (l *RGBLight) Name() string {
	return l.name
}

// Color returns the color currently on the output channels.
func (l *RGBLight) Color() colorful.Color {
	return colorful.Color{R: l.red.Level(), G: l.green.Level(), B: l.blue.Level()}
}

// SetHex fades the light to the given hex color, e.g. "#FF0000".
func (l *RGBLight) SetHex(hex string, fade time.Duration) error {
	c, err := colorful.Hex(hex)
	if err != nil {
		return err
	}
	l.SetColor(c, fade)
	return nil
}

// SetColor fades each channel from its current level to the corresponding
// component of the target color. Fades started by a previous SetColor are
// cancelled first.
func (l *RGBLight) SetColor(c colorful.Color, fade time.Duration) {
	c = c.Clamped()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, t := range l.active {
		t.Cancel()
	}

	l.active = []*transition.Transition{
		l.manager.Fade(l.red, fade, l.red.Level(), c.R),
		l.manager.Fade(l.green, fade, l.green.Level(), c.G),
		l.manager.Fade(l.blue, fade, l.blue.Level(), c.B),
	}
}

// Wait blocks until all channel fades from the last SetColor are done.
func (l *RGBLight) Wait(ctx context.Context) error {
	l.mu.Lock()
	active := make([]*transition.Transition, len(l.active))
	copy(active, l.active)
	l.mu.Unlock()

	for _, t := range active {
		if err := t.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
