package light

import (
	"math"
	"sync"
	"time"

	"github.com/robmorgan/glow/led"
	"github.com/robmorgan/glow/logger"
	"github.com/robmorgan/glow/transition"
	"github.com/sirupsen/logrus"
)

// DefaultBrightness is the level a light turns on at when none was given.
const DefaultBrightness = 1.0

// Light is a simple one-color dimmable light backed by a single Dimmer
// channel. It remembers the last brightness it was asked for, tracks on/off
// state and takes care of cancelling the fade it started before it starts
// the next one, so two of its own fades never fight over the channel.
type Light struct {
	name     string
	uniqueID string
	dimmer   led.Dimmer
	manager  *transition.Manager

	mu               sync.Mutex
	isOn             bool
	brightness       float64
	activeTransition *transition.Transition
}

// New creates a light driving the given dimmer channel.
func New(name, uniqueID string, dimmer led.Dimmer, manager *transition.Manager) *Light {
	return &Light{
		name:       name,
		uniqueID:   uniqueID,
		dimmer:     dimmer,
		manager:    manager,
		brightness: DefaultBrightness,
	}
}

// Name returns the name of the light.
func (l *Light) Name() string {
	return l.name
}

// UniqueID returns the stable identifier of the light.
func (l *Light) UniqueID() string {
	return l.uniqueID
}

// IsOn returns true if the light is on.
func (l *Light) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isOn
}

// Brightness returns the last brightness that was requested for the light.
// While a fade is in flight the dimmer itself sits somewhere between this
// and its previous value.
func (l *Light) Brightness() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.brightness
}

// TurnOn switches the light on at the given brightness, fading from the
// dimmer's current level over the fade duration. A zero fade applies the
// brightness immediately. Any fade this light started earlier is cancelled
// first.
func (l *Light) TurnOn(brightness float64, fade time.Duration) error {
	log := logger.GetProjectLogger()
	log.WithFields(logrus.Fields{"light": l.name, "brightness": brightness, "fade": fade}).Info("turn on")

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cancelActiveTransition()

	if fade > 0 {
		l.activeTransition = l.manager.Fade(l.dimmer, fade, l.dimmer.Level(), brightness)
	} else {
		if err := l.dimmer.SetLevel(brightness); err != nil {
			return err
		}
	}

	l.brightness = brightness
	l.isOn = brightness > 0
	return nil
}

// TurnOff switches the light off, fading out from the dimmer's current
// level when a fade duration is given. The last brightness is kept so the
// light can be turned back on at the same level.
func (l *Light) TurnOff(fade time.Duration) error {
	log := logger.GetProjectLogger()
	log.WithFields(logrus.Fields{"light": l.name, "fade": fade}).Info("turn off")

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cancelActiveTransition()

	if fade > 0 {
		l.activeTransition = l.manager.Fade(l.dimmer, fade, l.dimmer.Level(), 0)
	} else if l.isOn {
		if err := l.dimmer.SetLevel(0); err != nil {
			return err
		}
	}

	l.isOn = false
	return nil
}

// SetBrightness applies a brightness to the dimmer immediately, cancelling
// any fade in flight. Setting 0 turns the light off.
func (l *Light) SetBrightness(brightness float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cancelActiveTransition()

	if err := l.dimmer.SetLevel(brightness); err != nil {
		return err
	}

	l.brightness = brightness
	l.isOn = brightness > 0
	return nil
}

// ActiveTransition returns the handle of the fade the light last started,
// or nil. The handle stays valid after the fade has been reaped.
func (l *Light) ActiveTransition() *transition.Transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeTransition
}

func (l *Light) cancelActiveTransition() {
	if l.activeTransition != nil {
		l.activeTransition.Cancel()
		l.activeTransition = nil
	}
}

// FromByte converts an 8-bit brightness (0-255), the unit most home
// automation platforms speak, to a normalized level.
func FromByte(brightness uint8) float64 {
	return float64(brightness) / 255
}

// ToByte converts a normalized level to an 8-bit brightness.
func ToByte(level float64) uint8 {
	return uint8(math.Round(level * 255))
}
