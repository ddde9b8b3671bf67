package cybergear

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cybergear/internal/canframe"
	"github.com/banshee-data/cybergear/internal/timeutil"
)

var errBusDown = errors.New("bus down")

// stubBus is a Transmitter that fails its first failFirst transmits and
// records every frame it accepts.
type stubBus struct {
	calls     int
	failFirst int
	frames    []canframe.Frame
}

func (s *stubBus) Transmit(f canframe.Frame) error {
	s.calls++
	if s.calls <= s.failFirst {
		return errBusDown
	}
	s.frames = append(s.frames, f)
	return nil
}

// alwaysFailBus never accepts a frame.
type alwaysFailBus struct {
	calls int
}

func (b *alwaysFailBus) Transmit(canframe.Frame) error {
	b.calls++
	return errBusDown
}

func TestSendFirstAttemptSucceeds(t *testing.T) {
	bus := &stubBus{}
	s := NewSender(bus, Timing{})

	ok, err := s.Send(EncodeEnable(1))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, bus.calls)
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	for _, failures := range []int{1, 2} {
		bus := &stubBus{failFirst: failures}
		s := NewSender(bus, Timing{})

		ok, err := s.Send(EncodeEnable(1))
		require.NoError(t, err, "failures=%d", failures)
		assert.True(t, ok)
		assert.Equal(t, failures+1, bus.calls, "transmit count with %d failures", failures)
	}
}

func TestSendExhaustsAttempts(t *testing.T) {
	bus := &stubBus{failFirst: 3}
	s := NewSender(bus, Timing{})

	ok, err := s.Send(EncodeEnable(1))
	assert.False(t, ok)
	assert.ErrorIs(t, err, errBusDown)
	assert.Equal(t, DefaultMaxAttempts, bus.calls)
}

func TestSendAttemptBudgetRespected(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		maxAttempts int
		wantOK      bool
		wantCalls   int
	}{
		{"budget above failures", 2, 5, true, 3},
		{"budget equals failures", 2, 2, false, 2},
		{"budget below failures", 5, 2, false, 2},
		{"single attempt", 1, 1, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &stubBus{failFirst: tt.failures}
			s := NewSender(bus, Timing{})
			s.MaxAttempts = tt.maxAttempts

			ok, err := s.Send(EncodeStop(1))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCalls, bus.calls)
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errBusDown)
			}
		})
	}
}

func TestSendAlwaysFailingBusDoesNotPanic(t *testing.T) {
	bus := &alwaysFailBus{}
	s := NewSender(bus, Timing{})

	ok, err := s.Send(EncodeDisable(1))
	assert.False(t, ok)
	assert.ErrorIs(t, err, errBusDown)
	assert.Equal(t, DefaultMaxAttempts, bus.calls)
}

func TestSendPacing(t *testing.T) {
	timing := DefaultTiming()

	t.Run("settle after success", func(t *testing.T) {
		clock := timeutil.NewMockClock(time.Now())
		s := NewSender(&stubBus{}, timing)
		s.SetClock(clock)

		_, err := s.Send(EncodeEnable(1))
		require.NoError(t, err)
		assert.Equal(t, []time.Duration{timing.SettleInterval}, clock.Sleeps())
	})

	t.Run("backoff between failures", func(t *testing.T) {
		clock := timeutil.NewMockClock(time.Now())
		s := NewSender(&stubBus{failFirst: 2}, timing)
		s.SetClock(clock)

		ok, err := s.Send(EncodeEnable(1))
		require.NoError(t, err)
		require.True(t, ok)
		want := []time.Duration{timing.RetryBackoff, timing.RetryBackoff, timing.SettleInterval}
		assert.Equal(t, want, clock.Sleeps())
	})

	t.Run("no backoff after final failure", func(t *testing.T) {
		clock := timeutil.NewMockClock(time.Now())
		s := NewSender(&alwaysFailBus{}, timing)
		s.SetClock(clock)

		ok, _ := s.Send(EncodeEnable(1))
		require.False(t, ok)
		want := []time.Duration{timing.RetryBackoff, timing.RetryBackoff}
		assert.Equal(t, want, clock.Sleeps())
	})
}

func TestSendClampsNonPositiveBudget(t *testing.T) {
	bus := &stubBus{}
	s := NewSender(bus, Timing{})
	s.MaxAttempts = 0

	ok, err := s.Send(EncodeEnable(1))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, bus.calls)
}
