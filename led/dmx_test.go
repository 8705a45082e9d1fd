package led

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDMXStateSetAndGet(t *testing.T) {
	t.Parallel()

	state := NewDMXState()
	require.NoError(t, state.Set(1, 5, 200))
	require.Equal(t, byte(200), state.Get(1, 5))

	// unset universes and channels read as zero
	require.Equal(t, byte(0), state.Get(1, 6))
	require.Equal(t, byte(0), state.Get(2, 1))
}

func TestDMXStateChannelRange(t *testing.T) {
	t.Parallel()

	state := NewDMXState()
	require.Error(t, state.Set(1, 0, 10))
	require.Error(t, state.Set(1, 256, 10))
}

func TestDMXDimmerRoundTrip(t *testing.T) {
	t.Parallel()

	state := NewDMXState()
	dimmer := NewDMXDimmer(state, 1, 10)

	require.NoError(t, dimmer.SetLevel(0.5))
	require.Equal(t, byte(128), state.Get(1, 10))
	require.InDelta(t, 0.5, dimmer.Level(), 0.01)

	require.NoError(t, dimmer.SetLevel(1.0))
	require.Equal(t, byte(255), state.Get(1, 10))

	require.Error(t, dimmer.SetLevel(1.5))
	require.Error(t, dimmer.SetLevel(-0.1))
}

type fakeOLAClient struct {
	mu     sync.Mutex
	sent   map[int][]byte
	closed bool
}

func (c *fakeOLAClient) SendDmx(universe int, values []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sent == nil {
		c.sent = make(map[int][]byte)
	}
	buf := make([]byte, len(values))
	copy(buf, values)
	c.sent[universe] = buf
	return true, nil
}

func (c *fakeOLAClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeOLAClient) sentValue(universe, channel int) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	values, ok := c.sent[universe]
	if !ok {
		return 0
	}
	return values[channel-1]
}

func TestSendDMXWorkerFlushesState(t *testing.T) {
	t.Parallel()

	state := NewDMXState()
	require.NoError(t, state.Set(1, 3, 99))

	client := &fakeOLAClient{}
	ctx, cancel := context.WithCancel(context.Background())

	wg := sync.WaitGroup{}
	wg.Add(1)
	go SendDMXWorker(ctx, client, 5*time.Millisecond, state, &wg)

	require.Eventually(t, func() bool {
		return client.sentValue(1, 3) == 99
	}, time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()

	client.mu.Lock()
	defer client.mu.Unlock()
	require.True(t, client.closed)
}
