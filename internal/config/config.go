// Package config turns viper settings (flags, config file, env) into a run
// configuration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"loginload/internal/credentials"
	"loginload/internal/runner"
	"loginload/internal/scenario"
)

// Environment variables prefixed with "LOGINLOAD_" override settings, e.g. LOGINLOAD_RATE.
const EnvPrefix = "loginload"

// Setting keys. Flags share these names.
const (
	KeyScenario        = "scenario"
	KeyTarget          = "target"
	KeyRate            = "rate"
	KeyUsers           = "users"
	KeyThinkTime       = "think-time"
	KeyDuration        = "duration"
	KeyRampUp          = "ramp-up"
	KeyRampDown        = "ramp-down"
	KeyTimeout         = "timeout"
	KeyIterations      = "iterations"
	KeySeed            = "seed"
	KeyCredentialsFile = "credentials-file"
	KeyInsecure        = "insecure"
	KeyOut             = "out"

	KeyLogLevel   = "log-level"
	KeyLogFormat  = "log-format"
	KeyHistoryDB  = "history-db"
	KeyNoHistory  = "no-history"
	KeyMetrics    = "metrics-addr"
	KeyTUI        = "tui"
	KeyFailChecks = "fail-on-checks"

	// Inline tables, config file only.
	KeyUsernames = "credentials.usernames"
	KeyPasswords = "credentials.passwords"
)

var ErrConfig = errors.New("configuration error")

// SetDefaults registers the defaults used when neither a flag, the config file
// nor the environment provide a value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyScenario, scenario.RandomLogin)
	v.SetDefault(KeyRate, 10)
	v.SetDefault(KeyUsers, 0)
	v.SetDefault(KeyDuration, 10)
	v.SetDefault(KeyTimeout, 10)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Configure registers defaults and the LOGINLOAD_ env prefix on v.
func Configure(v *viper.Viper) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

func NewViper() *viper.Viper {
	v := viper.New()
	Configure(v)
	return v
}

// Load validates the settings into a runner config. The returned table is nil
// when the scenario's built-in credentials should be used.
func Load(v *viper.Viper) (runner.Config, *credentials.Table, error) {
	cfg := runner.Config{
		Scenario:           v.GetString(KeyScenario),
		Target:             v.GetString(KeyTarget),
		TargetRPS:          v.GetInt(KeyRate),
		NumUsers:           v.GetInt(KeyUsers),
		ThinkTime:          v.GetDuration(KeyThinkTime),
		SteadyDur:          v.GetInt(KeyDuration),
		RampUp:             v.GetInt(KeyRampUp),
		RampDown:           v.GetInt(KeyRampDown),
		TimeoutSec:         v.GetInt(KeyTimeout),
		MaxIterations:      v.GetUint64(KeyIterations),
		Seed:               v.GetUint64(KeySeed),
		CredentialsFile:    v.GetString(KeyCredentialsFile),
		InsecureSkipVerify: v.GetBool(KeyInsecure),
		OutPrefix:          v.GetString(KeyOut),
		Mode:               runner.ModeRPS,
	}
	if cfg.NumUsers > 0 {
		cfg.Mode = runner.ModeUsers
	}

	if !scenario.Known(cfg.Scenario) {
		return cfg, nil, fmt.Errorf("%w: %w %q (available: %s)",
			ErrConfig, scenario.ErrUnknownScenario, cfg.Scenario, strings.Join(scenario.Names(), ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	table, err := loadTable(v, cfg.CredentialsFile)
	if err != nil {
		return cfg, nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return cfg, table, nil
}

func loadTable(v *viper.Viper, file string) (*credentials.Table, error) {
	inline := v.IsSet(KeyUsernames) || v.IsSet(KeyPasswords)
	if file != "" && inline {
		return nil, errors.New("credentials-file and inline credentials are mutually exclusive")
	}
	if file != "" {
		return credentials.LoadCSV(file)
	}
	if inline {
		return credentials.NewTable(v.GetStringSlice(KeyUsernames), v.GetStringSlice(KeyPasswords))
	}
	return nil, nil
}
