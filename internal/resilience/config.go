package resilience

import (
	"time"
)

// FromRetryConfig converts elevation config values to a linear-backoff
// RetryConfig. Zero or negative values fall back to defaults.
func FromRetryConfig(maxAttempts int, retryDelaySecs float64) RetryConfig {
	cfg := LinearRetryConfig(3, 500*time.Millisecond)
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if retryDelaySecs > 0 {
		cfg.InitialBackoff = time.Duration(retryDelaySecs * float64(time.Second))
	}
	return cfg
}

// FromCircuitConfig converts config values to a CircuitBreakerConfig.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}
