package cybergear

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/cybergear/internal/canframe"
	"github.com/banshee-data/cybergear/internal/units"
)

// ErrInvalidAddress is returned when a motor address is outside the
// adapter's node-ID range.
var ErrInvalidAddress = errors.New("cybergear: motor address out of range")

// Motor issues commands to a single CyberGear actuator. Operations are
// encode → send → fixed post-delay; none of them read anything back.
//
// The commanded-position cache is purely client-side. The device never
// reports its true position on this write-only bus, so the cache can
// silently diverge from reality (for example after a blocked rotor or a
// power cycle).
type Motor struct {
	addr   MotorAddress
	sender *Sender
	timing Timing

	lastPosition float64 // radians
	hasPosition  bool
}

// NewMotor validates the address and binds it to a sender. The sender's
// Timing also paces the per-command post-delays.
func NewMotor(addr MotorAddress, sender *Sender) (*Motor, error) {
	if !addr.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAddress, uint8(addr))
	}
	return &Motor{addr: addr, sender: sender, timing: sender.timing}, nil
}

// Address returns the motor's bus node ID.
func (m *Motor) Address() MotorAddress {
	return m.addr
}

// LastCommandedPosition returns the most recent position commanded
// successfully, in radians. ok is false before any position command.
func (m *Motor) LastCommandedPosition() (radians float64, ok bool) {
	return m.lastPosition, m.hasPosition
}

func (m *Motor) command(what string, frame canframe.Frame, postDelay time.Duration) error {
	ok, err := m.sender.Send(frame)
	m.sender.clock.Sleep(postDelay)
	if !ok {
		return fmt.Errorf("%s %v: %w", what, m.addr, err)
	}
	return nil
}

// Enable powers the motor's control loop on.
func (m *Motor) Enable() error {
	return m.command("enable", EncodeEnable(m.addr), m.timing.EnableDelay)
}

// Disable powers the motor's control loop off.
func (m *Motor) Disable() error {
	return m.command("disable", EncodeDisable(m.addr), m.timing.DisableDelay)
}

// Stop halts motion immediately.
func (m *Motor) Stop() error {
	return m.command("stop", EncodeStop(m.addr), m.timing.StopDelay)
}

// ZeroPosition declares the current mechanical position to be zero.
func (m *Motor) ZeroPosition() error {
	err := m.command("zero position of", EncodeZeroPosition(m.addr), m.timing.ZeroDelay)
	if err == nil {
		m.lastPosition = 0
		m.hasPosition = true
	}
	return err
}

// SetPositionControlMode selects the position control run mode.
func (m *Motor) SetPositionControlMode() error {
	return m.command("set position mode on", EncodeSetModePositionControl(m.addr), m.timing.ModeDelay)
}

// SetSpeedLimit sets the speed limit in rad/s.
func (m *Motor) SetSpeedLimit(speedRadS float64) error {
	return m.command("set speed limit on", EncodeSetSpeedLimit(m.addr, float32(speedRadS)), m.timing.ParamDelay)
}

// SetTorqueLimit sets the torque limit in N·m.
func (m *Motor) SetTorqueLimit(torqueNm float64) error {
	return m.command("set torque limit on", EncodeSetTorqueLimit(m.addr, float32(torqueNm)), m.timing.ParamDelay)
}

// SetTargetPosition commands the target position in radians.
func (m *Motor) SetTargetPosition(radians float64) error {
	err := m.command("set target position on", EncodeSetTargetPosition(m.addr, float32(radians)), m.timing.ParamDelay)
	if err == nil {
		m.lastPosition = radians
		m.hasPosition = true
	}
	return err
}

// MoveToDegrees commands a move to the given angle: torque limit, speed
// limit, then target position, in that order.
//
// The three writes are not a transaction. Each one is attempted even if
// an earlier one failed, matching the device's own semantics, so a
// partial failure leaves the motor with whichever limits did land. The
// returned error reports every step that failed.
func (m *Motor) MoveToDegrees(degrees, speedRadS, torqueNm float64) error {
	radians := units.DegreesToRadians(degrees)
	return errors.Join(
		m.SetTorqueLimit(torqueNm),
		m.SetSpeedLimit(speedRadS),
		m.SetTargetPosition(radians),
	)
}
