// Package slcan drives a USB-CAN adapter speaking the Lawicel SLCAN ASCII
// protocol over a serial port. The adapter is write-oriented: it opens the
// CAN channel at a configured bitrate and transmits pre-built frames.
package slcan

import (
	"fmt"
	"strings"

	"go.bug.st/serial"

	"github.com/banshee-data/cybergear/internal/canframe"
)

var ErrWriteFailed = fmt.Errorf("slcan: failed to write to serial port")

// bitrateCodes maps CAN bus bitrates to the SLCAN "Sn" setup command.
var bitrateCodes = map[int]string{
	10000:   "S0",
	20000:   "S1",
	50000:   "S2",
	100000:  "S3",
	125000:  "S4",
	250000:  "S5",
	500000:  "S6",
	800000:  "S7",
	1000000: "S8",
}

// Adapter is an open SLCAN channel on a USB-CAN serial device.
type Adapter struct {
	port Porter
}

// Open opens the serial device at path, configures the CAN bitrate, and
// opens the CAN channel. A failure here means the adapter is absent or
// misconfigured; no frame has been placed on the bus yet.
func Open(path string, bitrate int, opts PortOptions) (*Adapter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("slcan: open %s: %w", path, err)
	}

	a, err := NewAdapter(port, bitrate)
	if err != nil {
		port.Close()
		return nil, err
	}
	return a, nil
}

// NewAdapter initialises the SLCAN channel on an already-open port: it
// closes any stale channel, sets the bitrate, and opens the channel.
func NewAdapter(port Porter, bitrate int) (*Adapter, error) {
	code, ok := bitrateCodes[bitrate]
	if !ok {
		return nil, fmt.Errorf("slcan: unsupported bitrate %d", bitrate)
	}

	a := &Adapter{port: port}
	for _, cmd := range []string{"C", code, "O"} {
		if err := a.writeCommand(cmd); err != nil {
			return nil, fmt.Errorf("slcan: channel setup command %q: %w", cmd, err)
		}
	}
	return a, nil
}

// Transmit queues one CAN frame on the adapter. Success means the serial
// write to the adapter completed, not that any node received the frame.
func (a *Adapter) Transmit(frame canframe.Frame) error {
	cmd, err := marshalFrame(frame)
	if err != nil {
		return err
	}
	return a.writeCommand(cmd)
}

// Close closes the CAN channel and then the serial port. The channel close
// command is best-effort; the port is closed regardless.
func (a *Adapter) Close() error {
	cmdErr := a.writeCommand("C")
	if err := a.port.Close(); err != nil {
		return err
	}
	return cmdErr
}

func (a *Adapter) writeCommand(cmd string) error {
	buf := []byte(cmd + "\r")
	n, err := a.port.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return ErrWriteFailed
	}
	return nil
}

// marshalFrame renders a frame as an SLCAN transmit command: "Tiiiiiiiil<data>"
// for extended identifiers, "tiiil<data>" for standard ones, hex throughout.
func marshalFrame(frame canframe.Frame) (string, error) {
	if err := frame.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	if frame.Extended {
		fmt.Fprintf(&b, "T%08X", frame.ID)
	} else {
		fmt.Fprintf(&b, "t%03X", frame.ID)
	}
	fmt.Fprintf(&b, "%d", frame.Len)
	for _, d := range frame.Payload() {
		fmt.Fprintf(&b, "%02X", d)
	}
	return b.String(), nil
}
