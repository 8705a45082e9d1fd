package led

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/robmorgan/glow/logger"
)

// DMXState holds the DMX512 values for each channel
type DMXState struct {
	universes map[int][]byte
	lock      sync.Mutex
}

// NewDMXState returns an empty DMX state
func NewDMXState() *DMXState {
	return &DMXState{
		universes: make(map[int][]byte),
	}
}

// Get returns the current value of a channel
func (s *DMXState) Get(universe, channel int) byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	values, ok := s.universes[universe]
	if !ok || channel < 1 || channel > len(values) {
		return 0
	}
	return values[channel-1]
}

// Set updates the value of a channel
func (s *DMXState) Set(universe, channel int, value byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if channel < 1 || channel > 255 {
		return fmt.Errorf("dmx channel (%d) not in range, universe=%d", channel, universe)
	}

	s.initializeUniverse(universe)
	s.universes[universe][channel-1] = value
	return nil
}

func (s *DMXState) initializeUniverse(universe int) {
	if s.universes[universe] == nil {
		chans := make([]byte, 255)
		s.universes[universe] = chans
	}
}

// snapshot copies the universe buffers so the flush worker never holds the
// lock while talking to OLA.
func (s *DMXState) snapshot() map[int][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make(map[int][]byte, len(s.universes))
	for k, v := range s.universes {
		values := make([]byte, len(v))
		copy(values, v)
		out[k] = values
	}
	return out
}

// DMXDimmer exposes a single DMX channel as a Dimmer. Writes land in the
// shared DMXState and reach the wire on the next SendDMXWorker flush.
type DMXDimmer struct {
	state    *DMXState
	universe int
	channel  int
}

// NewDMXDimmer creates a Dimmer backed by one channel of a DMX universe.
func NewDMXDimmer(state *DMXState, universe, channel int) *DMXDimmer {
	return &DMXDimmer{
		state:    state,
		universe: universe,
		channel:  channel,
	}
}

// Level returns the current channel value scaled back to 0.0-1.0.
func (d *DMXDimmer) Level() float64 {
	return float64(d.state.Get(d.universe, d.channel)) / 255
}

// SetLevel writes the level to the channel as an 8-bit value.
func (d *DMXDimmer) SetLevel(level float64) error {
	if level < 0 || level > 1 {
		return fmt.Errorf("level (%f) is not in the range 0.0-1.0, universe=%d channel=%d", level, d.universe, d.channel)
	}
	return d.state.Set(d.universe, d.channel, byte(math.Round(level*255)))
}

// OLAClient is the interface for communicating with OLA
type OLAClient interface {
	SendDmx(universe int, values []byte) (status bool, err error)
	Close()
}

// SendDMXWorker sends OLA the current dmxState across all universes
func SendDMXWorker(ctx context.Context, client OLAClient, tick time.Duration, state *DMXState, wg *sync.WaitGroup) error {
	defer wg.Done()
	defer client.Close()

	log := logger.GetProjectLogger()

	t := time.NewTimer(tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("SendDMXWorker shutdown")
			return ctx.Err()
		case <-t.C:
			for k, v := range state.snapshot() {
				if _, err := client.SendDmx(k, v); err != nil {
					log.Errorf("could not send universe %d to OLA: %v", k, err)
				}
			}
			t.Reset(tick)
		}
	}
}
