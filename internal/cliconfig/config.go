package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lepaul-HOU16/worldops/internal/batch"
	"github.com/lepaul-HOU16/worldops/internal/domain"
)

// DefaultPort is the conventional remote-console port.
const DefaultPort = 25575

// Config holds CLI configuration for worldops.
type Config struct {
	Host     string
	Port     int
	Password string

	DialTimeout  time.Duration
	ExecTimeout  time.Duration
	DialAttempts int

	Ceiling      int64
	Concurrency  int
	Budget       time.Duration
	VerifyBudget int

	Ground    string
	Clearable []string
	Preserved []string

	Verbose bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         DefaultPort,
		Password:     os.Getenv("WORLDOPS_PASSWORD"),
		DialTimeout:  5 * time.Second,
		ExecTimeout:  10 * time.Second,
		DialAttempts: 3,
		Ceiling:      domain.DefaultCeiling,
		Concurrency:  1,
		Budget:       batch.DefaultBudget,
		VerifyBudget: 0, // Derived by the verifier.
		Clearable:    domain.DefaultClearable().IDs,
		Preserved:    domain.DefaultPreserved().IDs,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Password == "" {
		return fmt.Errorf("password is required (flag, config file, or WORLDOPS_PASSWORD)")
	}
	if c.Ceiling <= 0 {
		return fmt.Errorf("ceiling must be positive")
	}
	if c.Concurrency < 1 || c.Concurrency > batch.MaxConcurrency {
		return fmt.Errorf("concurrency %d out of range 1..%d", c.Concurrency, batch.MaxConcurrency)
	}
	if c.Budget <= 0 {
		return fmt.Errorf("budget must be positive")
	}
	if c.ExecTimeout <= 0 {
		return fmt.Errorf("exec timeout must be positive")
	}
	if err := domain.CheckDisjoint(c.ClearableSet(), c.PreservedSet()); err != nil {
		return err
	}
	return nil
}

// ClearableSet returns the configured clearable classes as a ClassSet.
func (c *Config) ClearableSet() domain.ClassSet {
	return domain.NewClassSet("clearable", c.Clearable...)
}

// PreservedSet returns the configured preserved classes as a ClassSet.
func (c *Config) PreservedSet() domain.ClassSet {
	return domain.NewClassSet("preserved", c.Preserved...)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a string slice if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt64 sets an int64 value if positive and flag not changed.
func (s *configSetter) setInt64(flag string, value int64, dst *int64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setInt64FromString parses a string to int64 and sets the destination if valid.
func (s *configSetter) setInt64FromString(flag, value string, dst *int64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
