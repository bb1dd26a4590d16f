package monitoring

import (
	"time"
)

// CircuitBreakerConfig defines the configuration for circuit breakers
type CircuitBreakerConfig struct {
	MaxRequests                 uint32        `json:"max_requests"`
	Interval                    time.Duration `json:"interval"`
	Timeout                     time.Duration `json:"timeout"`
	ConsecutiveFailureThreshold int           `json:"consecutive_failure_threshold"`
}

// TimeoutConfig bounds a single upstream call, retries included
type TimeoutConfig struct {
	RequestTimeout time.Duration `json:"request_timeout"`
}

// APIErrorType represents different types of API errors for classification
type APIErrorType string

const (
	ErrorTypeTimeout      APIErrorType = "timeout"
	ErrorTypeNetworkError APIErrorType = "network_error"
	ErrorTypeServerError  APIErrorType = "server_error"
	ErrorTypeClientError  APIErrorType = "client_error"
	ErrorTypeDecodeError  APIErrorType = "decode_error"
	ErrorTypeUnknown      APIErrorType = "unknown"
)

// CircuitBreakerConfigs provides default configurations per upstream
var CircuitBreakerConfigs = map[string]CircuitBreakerConfig{
	"midgard": {
		MaxRequests:                 3,
		Interval:                    60 * time.Second,
		Timeout:                     2 * time.Minute,
		ConsecutiveFailureThreshold: 5,
	},
	"chainflip": {
		MaxRequests:                 2,
		Interval:                    2 * time.Minute,
		Timeout:                     5 * time.Minute,
		ConsecutiveFailureThreshold: 3,
	},
}

// DefaultTimeoutConfig leaves room for a full retry budget of the slowest feed
var DefaultTimeoutConfig = TimeoutConfig{
	RequestTimeout: 3 * time.Minute,
}
