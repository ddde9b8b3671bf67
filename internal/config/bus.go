// Package config loads the bus and timing configuration for the motor
// commander from JSON. Fields omitted from the file keep their defaults,
// so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/cybergear/internal/cybergear"
	"github.com/banshee-data/cybergear/internal/slcan"
)

// BusConfig is the on-disk configuration. All durations are Go duration
// strings like "15ms". Every field is optional.
type BusConfig struct {
	// Serial link to the USB-CAN adapter.
	BaudRate *int    `json:"baud_rate,omitempty"`
	DataBits *int    `json:"data_bits,omitempty"`
	StopBits *int    `json:"stop_bits,omitempty"`
	Parity   *string `json:"parity,omitempty"`

	// CAN bus bitrate behind the adapter.
	Bitrate *int `json:"bitrate,omitempty"`

	// Transmit attempt budget per frame.
	MaxAttempts *int `json:"max_attempts,omitempty"`

	// Frame pacing.
	SettleInterval *string `json:"settle_interval,omitempty"`
	RetryBackoff   *string `json:"retry_backoff,omitempty"`
	EnableDelay    *string `json:"enable_delay,omitempty"`
	DisableDelay   *string `json:"disable_delay,omitempty"`
	StopDelay      *string `json:"stop_delay,omitempty"`
	ZeroDelay      *string `json:"zero_delay,omitempty"`
	ModeDelay      *string `json:"mode_delay,omitempty"`
	ParamDelay     *string `json:"param_delay,omitempty"`
}

// EmptyBusConfig returns a BusConfig with all fields unset, meaning every
// accessor falls back to its default.
func EmptyBusConfig() *BusConfig {
	return &BusConfig{}
}

// LoadBusConfig loads a BusConfig from a JSON file. The file must have a
// .json extension and stay under the max file size.
func LoadBusConfig(path string) (*BusConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyBusConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *BusConfig) Validate() error {
	if c.MaxAttempts != nil && *c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", *c.MaxAttempts)
	}
	if c.Bitrate != nil && *c.Bitrate <= 0 {
		return fmt.Errorf("bitrate must be positive, got %d", *c.Bitrate)
	}

	durations := map[string]*string{
		"settle_interval": c.SettleInterval,
		"retry_backoff":   c.RetryBackoff,
		"enable_delay":    c.EnableDelay,
		"disable_delay":   c.DisableDelay,
		"stop_delay":      c.StopDelay,
		"zero_delay":      c.ZeroDelay,
		"mode_delay":      c.ModeDelay,
		"param_delay":     c.ParamDelay,
	}
	for field, value := range durations {
		if value == nil || *value == "" {
			continue
		}
		if _, err := time.ParseDuration(*value); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", field, *value, err)
		}
	}

	// Serial parameters share the slcan validation rules.
	if _, err := c.PortOptions().Normalize(); err != nil {
		return err
	}

	return nil
}

// PortOptions converts the serial fields into slcan port options; unset
// fields are zero and pick up the slcan defaults on Normalize.
func (c *BusConfig) PortOptions() slcan.PortOptions {
	opts := slcan.PortOptions{}
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	return opts
}

// GetBitrate returns the CAN bitrate or the CyberGear default of 1 Mbit.
func (c *BusConfig) GetBitrate() int {
	if c.Bitrate == nil {
		return 1000000
	}
	return *c.Bitrate
}

// GetMaxAttempts returns the transmit attempt budget or the default.
func (c *BusConfig) GetMaxAttempts() int {
	if c.MaxAttempts == nil {
		return cybergear.DefaultMaxAttempts
	}
	return *c.MaxAttempts
}

// Timing builds the frame pacing policy, starting from the hardware
// defaults and overriding any field set in the config.
func (c *BusConfig) Timing() cybergear.Timing {
	t := cybergear.DefaultTiming()
	applyDuration(&t.SettleInterval, c.SettleInterval)
	applyDuration(&t.RetryBackoff, c.RetryBackoff)
	applyDuration(&t.EnableDelay, c.EnableDelay)
	applyDuration(&t.DisableDelay, c.DisableDelay)
	applyDuration(&t.StopDelay, c.StopDelay)
	applyDuration(&t.ZeroDelay, c.ZeroDelay)
	applyDuration(&t.ModeDelay, c.ModeDelay)
	applyDuration(&t.ParamDelay, c.ParamDelay)
	return t
}

func applyDuration(dst *time.Duration, value *string) {
	if value == nil || *value == "" {
		return
	}
	d, err := time.ParseDuration(*value)
	if err != nil {
		return // Validate rejects unparseable values before this point
	}
	*dst = d
}
