package transition

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fogleman/ease"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

// recordingDimmer stores every level written to it so tests can assert on
// the exact write sequence.
type recordingDimmer struct {
	mu     sync.Mutex
	level  float64
	writes []float64
	err    error
}

func (d *recordingDimmer) Level() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level
}

func (d *recordingDimmer) SetLevel(level float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.level = level
	d.writes = append(d.writes, level)
	return nil
}

func (d *recordingDimmer) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

func (d *recordingDimmer) lastWrite() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes[len(d.writes)-1]
}

func TestProgressInstantForZeroDuration(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{}
	tr := New(dimmer, 0, 0.0, 1.0, WithClock(fc))

	require.Equal(t, 1.0, tr.Progress())

	require.NoError(t, tr.Step())
	require.True(t, tr.Finished())
	require.False(t, tr.Cancelled())

	// no intermediate interpolation write, just the end level
	require.Equal(t, []float64{1.0}, dimmer.writes)
}

func TestNegativeDurationTreatedAsInstant(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	tr := New(&recordingDimmer{}, -5*time.Second, 0.0, 1.0, WithClock(fc))

	require.Equal(t, time.Duration(0), tr.Duration())
	require.Equal(t, 1.0, tr.Progress())
}

func TestProgressClampedAndMonotonic(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	tr := New(&recordingDimmer{}, time.Second, 0.0, 1.0, WithClock(fc))

	require.Equal(t, 0.0, tr.Progress())

	last := 0.0
	for i := 0; i < 6; i++ {
		fc.Step(250 * time.Millisecond)
		progress := tr.Progress()
		assert.GreaterOrEqual(t, progress, last)
		assert.LessOrEqual(t, progress, 1.0)
		last = progress
	}

	// well past the duration the progress stays pinned at 1
	require.Equal(t, 1.0, tr.Progress())
}

func TestStepWritesLinearInterpolation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		from     float64
		to       float64
		progress float64
	}{
		{"ramp up early", 0.0, 1.0, 0.1},
		{"ramp up half way", 0.0, 1.0, 0.5},
		{"ramp up late", 0.0, 1.0, 0.9},
		{"ramp down", 0.8, 0.2, 0.5},
		{"from off to dim", 0.0, 0.4, 0.25},
		{"to off", 0.6, 0.0, 0.75},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			fc := clocktesting.NewFakeClock(time.Now())
			dimmer := &recordingDimmer{}
			tr := New(dimmer, 10*time.Second, testCase.from, testCase.to, WithClock(fc))

			fc.Step(time.Duration(testCase.progress * float64(10*time.Second)))
			require.NoError(t, tr.Step())

			expected := testCase.from + testCase.progress*(testCase.to-testCase.from)
			require.InDelta(t, expected, dimmer.lastWrite(), 1e-6)
			require.False(t, tr.Finished())
		})
	}
}

func TestStepCompletesWithExactEndLevel(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{}
	tr := New(dimmer, time.Second, 0.0, 0.7, WithClock(fc))

	fc.Step(500 * time.Millisecond)
	require.NoError(t, tr.Step())

	fc.Step(time.Second)
	require.NoError(t, tr.Step())
	require.True(t, tr.Finished())
	require.Equal(t, 0.7, dimmer.lastWrite())

	// once completed, further steps never touch the dimmer again
	writes := dimmer.writeCount()
	require.NoError(t, tr.Step())
	require.NoError(t, tr.Step())
	require.Equal(t, writes, dimmer.writeCount())
}

func TestCancelBeforeFirstStepWritesNothing(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{}
	tr := New(dimmer, time.Second, 0.0, 1.0, WithClock(fc))

	tr.Cancel()
	require.True(t, tr.Cancelled())
	require.True(t, tr.Finished())

	fc.Step(2 * time.Second)
	require.NoError(t, tr.Step())
	require.Equal(t, 0, dimmer.writeCount())
}

func TestCancelIsIdempotent(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{}
	tr := New(dimmer, time.Second, 0.0, 1.0, WithClock(fc))

	fc.Step(250 * time.Millisecond)
	require.NoError(t, tr.Step())
	writes := dimmer.writeCount()

	tr.Cancel()
	tr.Cancel()

	require.True(t, tr.Cancelled())
	require.Equal(t, writes, dimmer.writeCount())
}

func TestCancelAfterCompletionIsNoOp(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{}
	tr := New(dimmer, 0, 0.0, 1.0, WithClock(fc))

	require.NoError(t, tr.Step())
	require.True(t, tr.Finished())

	tr.Cancel()
	require.False(t, tr.Cancelled())
}

func TestWriteFailureTerminatesTransition(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("pin driver gone")

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{err: errBroken}
	tr := New(dimmer, time.Second, 0.0, 1.0, WithClock(fc))

	fc.Step(100 * time.Millisecond)
	require.ErrorIs(t, tr.Step(), errBroken)
	require.True(t, tr.Finished())
	require.ErrorIs(t, tr.Err(), errBroken)

	// terminal: stepping again does nothing and reports nothing new
	require.NoError(t, tr.Step())
}

func TestWaitReturnsOnceFinished(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{}
	tr := New(dimmer, 0, 0.0, 1.0, WithClock(fc))

	require.NoError(t, tr.Step())
	require.NoError(t, tr.Wait(context.Background()))
}

func TestWaitHonorsContextTimeout(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	tr := New(&recordingDimmer{}, time.Hour, 0.0, 1.0, WithClock(fc))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, tr.Wait(ctx), context.DeadlineExceeded)
}

func TestWaitSurfacesWriteFailure(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("pin driver gone")

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{err: errBroken}
	tr := New(dimmer, time.Second, 0.0, 1.0, WithClock(fc))

	fc.Step(100 * time.Millisecond)
	require.Error(t, tr.Step())
	require.ErrorIs(t, tr.Wait(context.Background()), errBroken)
}

func TestCurveAppliedToProgress(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{}
	tr := New(dimmer, time.Second, 0.0, 1.0, WithClock(fc), WithCurve(ease.InQuad))

	fc.Step(500 * time.Millisecond)
	require.NoError(t, tr.Step())

	// InQuad(0.5) == 0.25
	require.InDelta(t, 0.25, dimmer.lastWrite(), 1e-6)
}

func TestLevelsClampedOnConstruction(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Now())
	dimmer := &recordingDimmer{}
	tr := New(dimmer, 0, -0.5, 1.5, WithClock(fc))

	require.NoError(t, tr.Step())
	require.Equal(t, 1.0, dimmer.lastWrite())
}
