package cliconfig

import (
	"os"
	"strings"
)

// ApplyEnvConfig applies configuration from environment variables (WORLDOPS_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", os.Getenv("WORLDOPS_HOST"), &cfg.Host)
	s.setString("password", os.Getenv("WORLDOPS_PASSWORD"), &cfg.Password)
	s.setString("ground", os.Getenv("WORLDOPS_GROUND"), &cfg.Ground)

	if err := s.setIntFromString("port", os.Getenv("WORLDOPS_PORT"), &cfg.Port); err != nil {
		return err
	}
	if err := s.setIntFromString("dial-attempts", os.Getenv("WORLDOPS_DIAL_ATTEMPTS"), &cfg.DialAttempts); err != nil {
		return err
	}
	if err := s.setIntFromString("concurrency", os.Getenv("WORLDOPS_CONCURRENCY"), &cfg.Concurrency); err != nil {
		return err
	}
	if err := s.setIntFromString("verify-budget", os.Getenv("WORLDOPS_VERIFY_BUDGET"), &cfg.VerifyBudget); err != nil {
		return err
	}
	if err := s.setInt64FromString("ceiling", os.Getenv("WORLDOPS_CEILING"), &cfg.Ceiling); err != nil {
		return err
	}

	if err := s.setDuration("dial-timeout", os.Getenv("WORLDOPS_DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("exec-timeout", os.Getenv("WORLDOPS_EXEC_TIMEOUT"), &cfg.ExecTimeout); err != nil {
		return err
	}
	if err := s.setDuration("budget", os.Getenv("WORLDOPS_BUDGET"), &cfg.Budget); err != nil {
		return err
	}

	s.setStrings("clearable", splitList(os.Getenv("WORLDOPS_CLEARABLE")), &cfg.Clearable)
	s.setStrings("preserved", splitList(os.Getenv("WORLDOPS_PRESERVED")), &cfg.Preserved)

	s.setBoolFromString("verbose", os.Getenv("WORLDOPS_VERBOSE"), &cfg.Verbose)

	return nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
