package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`

	DialTimeout  string `toml:"dial_timeout"`
	ExecTimeout  string `toml:"exec_timeout"`
	DialAttempts int    `toml:"dial_attempts"`

	Ceiling      int64  `toml:"ceiling"`
	Concurrency  int    `toml:"concurrency"`
	Budget       string `toml:"budget"`
	VerifyBudget int    `toml:"verify_budget"`

	Ground    string   `toml:"ground"`
	Clearable []string `toml:"clearable"`
	Preserved []string `toml:"preserved"`

	Verbose *bool `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.worldops/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".worldops", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", fc.Host, &cfg.Host)
	s.setString("password", fc.Password, &cfg.Password)
	s.setString("ground", fc.Ground, &cfg.Ground)

	s.setInt("port", fc.Port, &cfg.Port)
	s.setInt("dial-attempts", fc.DialAttempts, &cfg.DialAttempts)
	s.setInt("concurrency", fc.Concurrency, &cfg.Concurrency)
	s.setInt("verify-budget", fc.VerifyBudget, &cfg.VerifyBudget)
	s.setInt64("ceiling", fc.Ceiling, &cfg.Ceiling)

	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("exec-timeout", fc.ExecTimeout, &cfg.ExecTimeout); err != nil {
		return err
	}
	if err := s.setDuration("budget", fc.Budget, &cfg.Budget); err != nil {
		return err
	}

	s.setStrings("clearable", fc.Clearable, &cfg.Clearable)
	s.setStrings("preserved", fc.Preserved, &cfg.Preserved)

	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
