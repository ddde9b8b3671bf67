package cybergear

import (
	"github.com/banshee-data/cybergear/internal/canframe"
	"github.com/banshee-data/cybergear/internal/monitoring"
	"github.com/banshee-data/cybergear/internal/timeutil"
)

// Transmitter is the bus transport contract the sender needs. It is
// satisfied by *slcan.Adapter and by test stubs.
type Transmitter interface {
	Transmit(canframe.Frame) error
}

// DefaultMaxAttempts is the transmit attempt budget per frame.
const DefaultMaxAttempts = 3

// Sender delivers frames over a Transmitter with bounded retry.
//
// Delivery is best-effort: a true result means the adapter accepted the
// frame for transmission, not that the motor received or executed it.
// The bus carries no acknowledgement that would let us know more.
type Sender struct {
	bus         Transmitter
	timing      Timing
	clock       timeutil.Clock
	MaxAttempts int
}

// NewSender wraps a transport with the given pacing policy.
func NewSender(bus Transmitter, timing Timing) *Sender {
	return &Sender{
		bus:         bus,
		timing:      timing,
		clock:       timeutil.RealClock{},
		MaxAttempts: DefaultMaxAttempts,
	}
}

// SetClock replaces the sender's clock. Tests use a timeutil.MockClock so
// pacing can be asserted without wall-clock sleeps.
func (s *Sender) SetClock(clock timeutil.Clock) {
	s.clock = clock
}

// Send transmits one frame, retrying after RetryBackoff on transport
// failure up to MaxAttempts times. After a successful transmit it pauses
// for SettleInterval before returning.
//
// Transport errors never propagate as failures of the sender itself:
// exhaustion returns ok=false with the last error attached so callers
// can report it, and they may choose to continue.
func (s *Sender) Send(frame canframe.Frame) (bool, error) {
	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.bus.Transmit(frame)
		if err == nil {
			s.clock.Sleep(s.timing.SettleInterval)
			return true, nil
		}
		lastErr = err
		monitoring.Logf("transmit attempt %d/%d failed for frame 0x%08X: %v", attempt, attempts, frame.ID, err)
		if attempt < attempts {
			s.clock.Sleep(s.timing.RetryBackoff)
		}
	}
	return false, lastErr
}
