package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSessionDurationSeconds is the length of one exam attempt.
const DefaultSessionDurationSeconds = 600

// MaxSessionDurationSeconds is the longest attempt whose elapsed time still
// renders as MM:SS with at most three minute digits (999:59), the form the
// submit endpoint accepts.
const MaxSessionDurationSeconds = 999*60 + 59

// SessionConfig is injected into the exam session controller and the API client.
type SessionConfig struct {
	SessionDurationSeconds int    `yaml:"session_duration_seconds"`
	EndpointBaseURL        string `yaml:"endpoint_base_url"`
	// SubmitTimeoutSeconds bounds a single grading call. Zero disables the deadline.
	SubmitTimeoutSeconds  int    `yaml:"submit_timeout_seconds"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	LogLevel              string `yaml:"log_level"`
}

// DefaultSessionConfig returns the policy defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		SessionDurationSeconds: DefaultSessionDurationSeconds,
		EndpointBaseURL:        "http://localhost:5005",
		SubmitTimeoutSeconds:   30,
		RequestTimeoutSeconds:  15,
		LogLevel:               "warn",
	}
}

// SessionDuration returns the configured attempt length.
func (c SessionConfig) SessionDuration() time.Duration {
	return time.Duration(c.SessionDurationSeconds) * time.Second
}

// SubmitTimeout returns the grading call deadline, or 0 for none.
func (c SessionConfig) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-request HTTP client timeout.
func (c SessionConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate rejects configurations the controller cannot run with.
func (c SessionConfig) Validate() error {
	if c.SessionDurationSeconds <= 0 {
		return fmt.Errorf("session_duration_seconds must be positive, got %d", c.SessionDurationSeconds)
	}
	if c.SessionDurationSeconds > MaxSessionDurationSeconds {
		return fmt.Errorf("session_duration_seconds must be at most %d, got %d", MaxSessionDurationSeconds, c.SessionDurationSeconds)
	}
	if c.SubmitTimeoutSeconds < 0 {
		return fmt.Errorf("submit_timeout_seconds must not be negative, got %d", c.SubmitTimeoutSeconds)
	}
	if strings.TrimSpace(c.EndpointBaseURL) == "" {
		return errors.New("endpoint_base_url is required")
	}
	return nil
}

// LoadSessionConfig reads an optional YAML file on top of the defaults, then applies
// EXAM_SESSION_DURATION_SECONDS and EXAM_ENDPOINT_BASE_URL overrides.
// An empty path or a missing file is not an error.
func LoadSessionConfig(path string) (SessionConfig, error) {
	cfg := DefaultSessionConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg.SessionDurationSeconds = getEnvInt("EXAM_SESSION_DURATION_SECONDS", cfg.SessionDurationSeconds)
	cfg.EndpointBaseURL = strings.TrimRight(getEnv("EXAM_ENDPOINT_BASE_URL", cfg.EndpointBaseURL), "/")

	return cfg, cfg.Validate()
}
