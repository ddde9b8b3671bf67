package slcan

import (
	"errors"
	"io"
)

// ErrMockWrite is the transient failure injected by MockPort.FailWrites.
var ErrMockWrite = errors.New("mock serial port: injected write failure")

// MockPort implements Porter for testing
type MockPort struct {
	ReadData       []byte
	WrittenData    []byte
	ReadError      error
	WriteError     error // every write fails with this error when set
	CloseError     error
	Closed         bool
	WriteCallCount int

	// FailWrites makes the first N writes fail with ErrMockWrite before
	// subsequent writes succeed. Used to exercise retry behaviour.
	FailWrites int
}

func (m *MockPort) Read(p []byte) (n int, err error) {
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	if len(m.ReadData) == 0 {
		return 0, io.EOF
	}
	n = copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	return n, nil
}

func (m *MockPort) Write(p []byte) (n int, err error) {
	m.WriteCallCount++
	if m.FailWrites > 0 {
		m.FailWrites--
		return 0, ErrMockWrite
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.Closed = true
	return m.CloseError
}

// Commands splits the written data into the CR-terminated SLCAN commands
// received so far.
func (m *MockPort) Commands() []string {
	var cmds []string
	start := 0
	for i, b := range m.WrittenData {
		if b == '\r' {
			cmds = append(cmds, string(m.WrittenData[start:i]))
			start = i + 1
		}
	}
	return cmds
}
