package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/cybergear/internal/config"
	"github.com/banshee-data/cybergear/internal/cybergear"
	"github.com/banshee-data/cybergear/internal/monitoring"
	"github.com/banshee-data/cybergear/internal/slcan"
	"github.com/banshee-data/cybergear/internal/units"
)

var (
	devMode    = flag.Bool("dev", false, "Run against a mock adapter instead of real hardware")
	portPath   = flag.String("port", "/dev/ttyACM0", "Serial device of the USB-CAN adapter")
	configPath = flag.String("config", "", "Optional JSON bus/timing config")
	motorID    = flag.Uint("motor", 1, "Motor bus node ID (1-127)")
	angle      = flag.Float64("angle", 15, "Sweep angle for the demo trajectory")
	angleUnits = flag.String("units", units.Degrees, "Angle units: "+units.GetValidUnitsString())
	speed      = flag.Float64("speed", 2.0, "Speed limit in rad/s")
	torque     = flag.Float64("torque", 12.0, "Torque limit in N·m")
	dwell      = flag.Duration("dwell", 3*time.Second, "Pause after each move while the motor travels")
)

func main() {
	flag.Parse()

	if !units.IsValid(*angleUnits) {
		log.Fatalf("invalid units %q: valid units are %s", *angleUnits, units.GetValidUnitsString())
	}

	addr := cybergear.MotorAddress(*motorID)
	if !addr.Valid() {
		log.Fatalf("motor ID %d out of range (1-127)", *motorID)
	}

	cfg := config.EmptyBusConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadBusConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var adapter *slcan.Adapter
	var err error
	if *devMode {
		adapter, err = slcan.NewAdapter(&slcan.MockPort{}, cfg.GetBitrate())
	} else {
		adapter, err = slcan.Open(*portPath, cfg.GetBitrate(), cfg.PortOptions())
	}
	if err != nil {
		log.Fatalf("failed to connect to CAN bus: %v", err)
	}
	if *devMode {
		log.Printf("using mock adapter at %d bps", cfg.GetBitrate())
	} else {
		log.Printf("connected to %s at %d bps", *portPath, cfg.GetBitrate())
	}

	sender := cybergear.NewSender(adapter, cfg.Timing())
	sender.MaxAttempts = cfg.GetMaxAttempts()

	motor, err := cybergear.NewMotor(addr, sender)
	if err != nil {
		log.Fatalf("failed to set up motor: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The shutdown sequence runs no matter how the trajectory ended. Its
	// own failures are reported, never re-raised: with the bus possibly
	// gone there is nothing better to do.
	defer func() {
		log.Print("shutdown sequence")
		if err := motor.Stop(); err != nil {
			monitoring.Logf("shutdown: %v", err)
		}
		if err := motor.Disable(); err != nil {
			monitoring.Logf("shutdown: %v", err)
		}
		if err := adapter.Close(); err != nil {
			monitoring.Logf("shutdown: close adapter: %v", err)
		}
	}()

	sweep := units.ToRadians(*angle, *angleUnits)
	sweepDegrees := units.RadiansToDegrees(sweep)

	if err := runDemo(ctx, motor, sweepDegrees, *speed, *torque, *dwell); err != nil {
		if ctx.Err() != nil {
			log.Print("interrupted, aborting trajectory")
			return
		}
		log.Printf("trajectory error: %v", err)
		return
	}
	log.Print("test sequence completed")
}

// runDemo drives the demonstration trajectory: initialise the motor, then
// sweep to +angle, back to zero, to -angle, and back to zero again.
// Individual command failures are logged and the sequence continues; the
// bus gives no confirmation either way, so pressing on mirrors what the
// operator at the bench would do.
func runDemo(ctx context.Context, motor *cybergear.Motor, angleDegrees, speedRadS, torqueNm float64, dwell time.Duration) error {
	type step struct {
		name string
		run  func() error
		wait time.Duration
	}

	moveTo := func(degrees float64) func() error {
		return func() error { return motor.MoveToDegrees(degrees, speedRadS, torqueNm) }
	}

	steps := []step{
		{"enable", motor.Enable, 500 * time.Millisecond},
		{"zero position", motor.ZeroPosition, 500 * time.Millisecond},
		{"position control mode", motor.SetPositionControlMode, 500 * time.Millisecond},
		{"move to +angle", moveTo(angleDegrees), dwell},
		{"return to zero", moveTo(0), dwell},
		{"move to -angle", moveTo(-angleDegrees), dwell},
		{"return to zero", moveTo(0), dwell},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Printf("step: %s", s.name)
		if err := s.run(); err != nil {
			// Best-effort delivery: report and continue with the
			// remaining steps.
			log.Printf("step %s: %v", s.name, err)
		}
		if pos, ok := motor.LastCommandedPosition(); ok {
			log.Printf("commanded position: %.4f rad (%.1f°)", pos, units.RadiansToDegrees(pos))
		}
		if err := pause(ctx, s.wait); err != nil {
			return err
		}
	}
	return nil
}

// pause sleeps for d but returns early if the context is cancelled.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
