package monitoring

import (
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var captured []string
	SetLogger(func(format string, v ...interface{}) {
		captured = append(captured, format)
	})

	Logf("transmit attempt %d failed", 1)
	if len(captured) != 1 || !strings.Contains(captured[0], "transmit attempt") {
		t.Errorf("captured = %v", captured)
	}

	// nil installs a no-op logger rather than leaving Logf nil
	SetLogger(nil)
	if Logf == nil {
		t.Fatal("Logf is nil after SetLogger(nil)")
	}
	Logf("dropped on the floor")
	if len(captured) != 1 {
		t.Errorf("no-op logger still captured: %v", captured)
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
	Logf("test message: %s", "value")
}
