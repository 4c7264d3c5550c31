package model

import "time"

// RetryConfig defines how often the runner re-attempts a failed stage.
// MaxAttempts of 1 (or less) disables retries.
type RetryConfig struct {
	MaxAttempts     int           `json:"max_attempts"`
	InitialInterval time.Duration `json:"initial_interval"`
	MaxInterval     time.Duration `json:"max_interval"`
	Multiplier      float64       `json:"multiplier"`
}

// NoRetry runs each stage exactly once.
var NoRetry = RetryConfig{MaxAttempts: 1}
