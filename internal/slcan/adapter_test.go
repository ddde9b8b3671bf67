package slcan

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/cybergear/internal/canframe"
)

func newTestAdapter(t *testing.T, port *MockPort) *Adapter {
	t.Helper()
	a, err := NewAdapter(port, 1000000)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a
}

func TestNewAdapterSetupSequence(t *testing.T) {
	port := &MockPort{}
	newTestAdapter(t, port)

	want := []string{"C", "S8", "O"}
	if diff := cmp.Diff(want, port.Commands()); diff != "" {
		t.Errorf("setup commands mismatch (-want +got):\n%s", diff)
	}
}

func TestNewAdapterBitrateCodes(t *testing.T) {
	tests := []struct {
		bitrate int
		code    string
	}{
		{10000, "S0"},
		{125000, "S4"},
		{250000, "S5"},
		{500000, "S6"},
		{1000000, "S8"},
	}
	for _, tt := range tests {
		port := &MockPort{}
		if _, err := NewAdapter(port, tt.bitrate); err != nil {
			t.Fatalf("NewAdapter(%d): %v", tt.bitrate, err)
		}
		if got := port.Commands()[1]; got != tt.code {
			t.Errorf("bitrate %d: setup code = %q, want %q", tt.bitrate, got, tt.code)
		}
	}
}

func TestNewAdapterRejectsUnknownBitrate(t *testing.T) {
	if _, err := NewAdapter(&MockPort{}, 123456); err == nil {
		t.Fatal("expected error for unsupported bitrate")
	}
}

func TestNewAdapterSetupWriteError(t *testing.T) {
	port := &MockPort{WriteError: errors.New("device gone")}
	if _, err := NewAdapter(port, 1000000); err == nil {
		t.Fatal("expected error when setup write fails")
	}
}

func TestTransmitExtendedFrame(t *testing.T) {
	port := &MockPort{}
	a := newTestAdapter(t, port)

	frame, err := canframe.New(0x1200FD01, []byte{0x16, 0x70, 0x00, 0x00, 0x92, 0x0A, 0x86, 0x3E})
	if err != nil {
		t.Fatalf("canframe.New: %v", err)
	}
	if err := a.Transmit(frame); err != nil {
		t.Fatalf("Transmit: %v", err)
	}

	cmds := port.Commands()
	got := cmds[len(cmds)-1]
	want := "T1200FD01816700000920A863E"
	if got != want {
		t.Errorf("transmit command = %q, want %q", got, want)
	}
}

func TestTransmitStandardFrame(t *testing.T) {
	port := &MockPort{}
	a := newTestAdapter(t, port)

	frame, err := canframe.New(0x123, []byte{0xAA, 0xBB})
	if err != nil {
		t.Fatalf("canframe.New: %v", err)
	}
	if err := a.Transmit(frame); err != nil {
		t.Fatalf("Transmit: %v", err)
	}

	cmds := port.Commands()
	if got, want := cmds[len(cmds)-1], "t1232AABB"; got != want {
		t.Errorf("transmit command = %q, want %q", got, want)
	}
}

func TestTransmitInvalidFrameDoesNotWrite(t *testing.T) {
	port := &MockPort{}
	a := newTestAdapter(t, port)
	setupWrites := port.WriteCallCount

	bad := canframe.Frame{ID: canframe.MaxExtendedID + 1, Extended: true}
	if err := a.Transmit(bad); err == nil {
		t.Fatal("expected validation error")
	}
	if port.WriteCallCount != setupWrites {
		t.Errorf("invalid frame reached the port: %d writes", port.WriteCallCount-setupWrites)
	}
}

func TestTransmitWriteError(t *testing.T) {
	port := &MockPort{}
	a := newTestAdapter(t, port)
	port.WriteError = errors.New("adapter unplugged")

	frame, _ := canframe.New(0x1200FD01, make([]byte, 8))
	if err := a.Transmit(frame); err == nil {
		t.Fatal("expected transmit error")
	}
}

func TestCloseClosesChannelAndPort(t *testing.T) {
	port := &MockPort{}
	a := newTestAdapter(t, port)

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !port.Closed {
		t.Error("serial port not closed")
	}
	cmds := port.Commands()
	if got := cmds[len(cmds)-1]; got != "C" {
		t.Errorf("last command = %q, want channel close", got)
	}
}

func TestClosePortErrorWins(t *testing.T) {
	port := &MockPort{CloseError: errors.New("close failed")}
	a := newTestAdapter(t, port)
	if err := a.Close(); err == nil {
		t.Fatal("expected port close error")
	}
}
