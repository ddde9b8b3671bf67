package cybergear

import "time"

// Timing is the pacing policy for frames on the bus. The CyberGear gives
// no completion signal, so every delay here is an unconditional pause
// sized to the device's processing time, not a wait on an event. Tests
// inject a zero Timing to run without wall-clock sleeps.
type Timing struct {
	// SettleInterval is the pause after every successful transmit,
	// satisfying the adapter's minimum inter-frame spacing.
	SettleInterval time.Duration
	// RetryBackoff is the pause between failed transmit attempts.
	RetryBackoff time.Duration

	// Post-command delays, giving the actuator time to act before the
	// next command arrives.
	EnableDelay  time.Duration
	DisableDelay time.Duration
	StopDelay    time.Duration
	ZeroDelay    time.Duration
	ModeDelay    time.Duration
	ParamDelay   time.Duration
}

// DefaultTiming returns the pacing used against real hardware.
func DefaultTiming() Timing {
	return Timing{
		SettleInterval: 15 * time.Millisecond,
		RetryBackoff:   50 * time.Millisecond,
		EnableDelay:    300 * time.Millisecond,
		DisableDelay:   300 * time.Millisecond,
		StopDelay:      100 * time.Millisecond,
		ZeroDelay:      300 * time.Millisecond,
		ModeDelay:      200 * time.Millisecond,
		ParamDelay:     50 * time.Millisecond,
	}
}
