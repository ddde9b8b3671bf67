// Package cybergear implements the CyberGear servo-actuator command
// protocol: extended-ID arbitration encoding, parameter serialization,
// and a bounded-retry send primitive over a CAN transport.
//
// The protocol is write-only. Commands are fired at the motor without any
// acknowledgement or telemetry read-back, so delivery is best-effort by
// construction.
package cybergear

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/banshee-data/cybergear/internal/canframe"
)

// ControllerAddress identifies this host on the bus. The CyberGear
// protocol fixes the master node at 0x00FD.
const ControllerAddress uint16 = 0x00FD

// Command opcodes. Vendor protocol constants, preserved verbatim.
const (
	CmdMotionStop   uint8 = 0x00
	CmdEnable       uint8 = 0x03
	CmdDisable      uint8 = 0x04
	CmdZeroPosition uint8 = 0x06
	CmdWriteParam   uint8 = 0x12
)

// Parameter registers addressed by CmdWriteParam. Vendor protocol
// constants, preserved verbatim.
const (
	RegRunMode        uint16 = 0x7005
	RegTargetPosition uint16 = 0x7016
	RegSpeedLimit     uint16 = 0x7017
	RegTorqueLimit    uint16 = 0x7018
)

// runModePosition is the RegRunMode selector for position control.
// It is a literal byte pattern, not a serialized number.
var runModePosition = [4]byte{0x00, 0x00, 0x01, 0x00}

// MotorAddress is the bus node ID of a motor.
type MotorAddress uint8

// Valid reports whether the address is inside the adapter's usable
// node-ID range. Address 0 is the broadcast/invalid node.
func (a MotorAddress) Valid() bool {
	return a >= 1 && a <= 127
}

// ArbitrationID composes the 29-bit extended identifier for a command:
// opcode in bits 24-28, controller address in bits 8-23, motor address
// in bits 0-7.
func ArbitrationID(cmd uint8, motor MotorAddress) uint32 {
	return uint32(cmd)<<24 | uint32(ControllerAddress)<<8 | uint32(motor)
}

// DecodeArbitrationID is the inverse of ArbitrationID.
func DecodeArbitrationID(id uint32) (cmd uint8, controller uint16, motor MotorAddress) {
	return uint8(id >> 24), uint16(id >> 8), MotorAddress(id)
}

func commandFrame(cmd uint8, motor MotorAddress, data [8]byte) canframe.Frame {
	return canframe.Frame{
		ID:       ArbitrationID(cmd, motor),
		Extended: true,
		Len:      8,
		Data:     data,
	}
}

// EncodeEnable builds the enable-motor command.
func EncodeEnable(motor MotorAddress) canframe.Frame {
	return commandFrame(CmdEnable, motor, [8]byte{})
}

// EncodeDisable builds the disable-motor command.
func EncodeDisable(motor MotorAddress) canframe.Frame {
	return commandFrame(CmdDisable, motor, [8]byte{})
}

// EncodeStop builds the immediate motion-stop command.
func EncodeStop(motor MotorAddress) canframe.Frame {
	return commandFrame(CmdMotionStop, motor, [8]byte{})
}

// EncodeZeroPosition builds the command that declares the current
// mechanical position to be zero.
func EncodeZeroPosition(motor MotorAddress) canframe.Frame {
	return commandFrame(CmdZeroPosition, motor, [8]byte{0x01})
}

// encodeParamWrite builds a register write: register index little-endian
// in bytes 0-1, bytes 2-3 reserved, value in bytes 4-7.
func encodeParamWrite(motor MotorAddress, register uint16, value [4]byte) canframe.Frame {
	var data [8]byte
	binary.LittleEndian.PutUint16(data[0:2], register)
	copy(data[4:8], value[:])
	return commandFrame(CmdWriteParam, motor, data)
}

// encodeFloatWrite serializes v as a little-endian IEEE-754 single into
// the value field of a register write.
func encodeFloatWrite(motor MotorAddress, register uint16, v float32) canframe.Frame {
	var value [4]byte
	binary.LittleEndian.PutUint32(value[:], math.Float32bits(v))
	return encodeParamWrite(motor, register, value)
}

// EncodeSetModePositionControl selects the position control run mode.
func EncodeSetModePositionControl(motor MotorAddress) canframe.Frame {
	return encodeParamWrite(motor, RegRunMode, runModePosition)
}

// EncodeSetSpeedLimit sets the speed limit in rad/s.
func EncodeSetSpeedLimit(motor MotorAddress, speedRadS float32) canframe.Frame {
	return encodeFloatWrite(motor, RegSpeedLimit, speedRadS)
}

// EncodeSetTorqueLimit sets the torque limit in N·m.
func EncodeSetTorqueLimit(motor MotorAddress, torqueNm float32) canframe.Frame {
	return encodeFloatWrite(motor, RegTorqueLimit, torqueNm)
}

// EncodeSetTargetPosition commands the target position in radians.
func EncodeSetTargetPosition(motor MotorAddress, radians float32) canframe.Frame {
	return encodeFloatWrite(motor, RegTargetPosition, radians)
}

// DecodeFloatValue extracts the little-endian IEEE-754 single from the
// value field of a register-write payload. It is the inverse of the
// float-serializing encoders and exists so callers and tests can inspect
// frames without re-deriving the layout.
func DecodeFloatValue(data [8]byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[4:8]))
}

// DecodeRegister extracts the register index from a register-write
// payload.
func DecodeRegister(data [8]byte) uint16 {
	return binary.LittleEndian.Uint16(data[0:2])
}

func (a MotorAddress) String() string {
	return fmt.Sprintf("motor %d", uint8(a))
}
