// Package canframe defines the classical CAN frame type shared by the
// transport and protocol layers.
package canframe

import "errors"

// Identifier limits for the two CAN addressing formats.
const (
	MaxStandardID = 0x7FF
	MaxExtendedID = 0x1FFFFFFF
)

var (
	ErrInvalidID  = errors.New("canframe: identifier out of range")
	ErrInvalidLen = errors.New("canframe: data length exceeds 8 bytes")
)

// Frame is a classical CAN 2.0 data frame: an 11-bit (standard) or
// 29-bit (extended) identifier and up to 8 data bytes.
type Frame struct {
	ID       uint32
	Extended bool
	Len      uint8
	Data     [8]byte
}

// New builds a data frame from an identifier and payload. Extended
// addressing is selected automatically when the identifier does not fit
// the standard 11-bit range.
func New(id uint32, data []byte) (Frame, error) {
	if len(data) > 8 {
		return Frame{}, ErrInvalidLen
	}
	f := Frame{ID: id, Extended: id > MaxStandardID, Len: uint8(len(data))}
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate reports whether the frame is well-formed for its addressing
// format.
func (f Frame) Validate() error {
	if f.Len > 8 {
		return ErrInvalidLen
	}
	max := uint32(MaxStandardID)
	if f.Extended {
		max = MaxExtendedID
	}
	if f.ID > max {
		return ErrInvalidID
	}
	return nil
}

// Payload returns the populated slice of the data array.
func (f Frame) Payload() []byte {
	return f.Data[:f.Len]
}
