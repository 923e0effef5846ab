package runner

import (
	"errors"
	"fmt"
	"time"
)

const (
	ModeRPS   = "rps"
	ModeUsers = "users"
)

var (
	ErrNoScenario    = errors.New("runner has no scenario")
	ErrInvalidConfig = errors.New("invalid run configuration")
)

type Config struct {
	Scenario string `json:"scenario"`
	Target   string `json:"target,omitempty"`

	TargetRPS  int `json:"target_rps"`
	SteadyDur  int `json:"steady_sec"`
	RampUp     int `json:"ramp_up_sec"`
	RampDown   int `json:"ramp_down_sec"`
	TimeoutSec int `json:"timeout_sec"`

	// Open-Loop (RPS) vs Closed-Loop (Users)
	Mode      string        `json:"mode"`       // "rps" or "users"
	NumUsers  int           `json:"users"`      // For "users" mode
	ThinkTime time.Duration `json:"think_time"` // For "users" mode

	// MaxIterations stops the run early once reached. 0 means unlimited.
	MaxIterations uint64 `json:"max_iterations,omitempty"`

	// Seed makes credential selection reproducible. 0 uses the global generator.
	Seed            uint64 `json:"seed,omitempty"`
	CredentialsFile string `json:"credentials_file,omitempty"`

	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty"`
	OutPrefix          string `json:"out_prefix,omitempty"`
}

// TotalDuration is ramp-up + steady + ramp-down.
func (c Config) TotalDuration() time.Duration {
	return time.Duration(c.RampUp+c.SteadyDur+c.RampDown) * time.Second
}

// Validate rejects configurations the executors cannot run.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeRPS:
		if c.TargetRPS <= 0 {
			return fmt.Errorf("%w: rate must be positive in rps mode, got %d", ErrInvalidConfig, c.TargetRPS)
		}
	case ModeUsers:
		if c.NumUsers <= 0 {
			return fmt.Errorf("%w: users must be positive in users mode, got %d", ErrInvalidConfig, c.NumUsers)
		}
		if c.ThinkTime < 0 {
			return fmt.Errorf("%w: think time must not be negative", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q (want %q or %q)", ErrInvalidConfig, c.Mode, ModeRPS, ModeUsers)
	}

	if c.SteadyDur < 0 || c.RampUp < 0 || c.RampDown < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if c.TotalDuration() <= 0 {
		return fmt.Errorf("%w: total duration must be positive", ErrInvalidConfig)
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ExperimentResult is one HTTP request made by scenario code.
type ExperimentResult struct {
	TimeStamp   time.Time     `json:"timestamp"`
	ServiceTime time.Duration `json:"service_time"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	Status      int           `json:"status"`
	Success     bool          `json:"success"`
	Bytes       int64         `json:"bytes"`
	UserID      string        `json:"vu"`
	Iteration   uint64        `json:"iteration"`
	Error       string        `json:"error,omitempty"`
}
