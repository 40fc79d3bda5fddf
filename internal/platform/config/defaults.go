package config

const (
	defaultServerPort = 8080

	defaultRetryMaxAttempts = 3
	defaultRetryMultiplier  = 2.0

	defaultRateLimitBurst = 1

	defaultCircuitBreakerMaxFailures = 5
	defaultCircuitBreakerHalfOpen    = 1

	defaultOutboxBatchSize      = 64
	defaultOutboxMaxAttempts    = 10
	defaultSweepBatch           = 64
	defaultDispatcherWorkers    = 4
	defaultDispatcherQueueDepth = 64
	defaultDispatcherAttempts   = 5
)

// defaults returns the default configuration values.
// These are loaded first and can be overridden by base.yaml, profile YAML, and env vars.
func defaults() map[string]any {
	return map[string]any{
		"server.host":          "0.0.0.0",
		"server.port":          defaultServerPort,
		"server.read_timeout":  "5s",
		"server.write_timeout": "10s",
		"server.idle_timeout":  "120s",

		"log.level":  "info",
		"log.format": "json",

		"database.path": "wemeet.db",

		"saga.step_timeout":   "30s",
		"saga.sweep_interval": "5s",
		"saga.sweep_batch":    defaultSweepBatch,

		"outbox.poll_interval": "100ms",
		"outbox.batch_size":    defaultOutboxBatchSize,
		"outbox.lease":         "30s",
		"outbox.max_attempts":  defaultOutboxMaxAttempts,

		"dispatcher.workers":      defaultDispatcherWorkers,
		"dispatcher.queue_depth":  defaultDispatcherQueueDepth,
		"dispatcher.max_attempts": defaultDispatcherAttempts,
		"dispatcher.min_backoff":  "50ms",
		"dispatcher.max_backoff":  "2s",

		"clients.board.base_url":                        "http://localhost:8081",
		"clients.board.timeout":                         "30s",
		"clients.board.retry.max_attempts":              defaultRetryMaxAttempts,
		"clients.board.retry.initial_interval":          "100ms",
		"clients.board.retry.max_interval":              "10s",
		"clients.board.retry.multiplier":                defaultRetryMultiplier,
		"clients.board.rate_limit.requests_per_second":  0,
		"clients.board.rate_limit.burst_size":           defaultRateLimitBurst,
		"clients.board.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"clients.board.circuit_breaker.timeout":         "30s",
		"clients.board.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,

		"clients.weclass.base_url":                        "http://localhost:8082",
		"clients.weclass.timeout":                         "30s",
		"clients.weclass.retry.max_attempts":              defaultRetryMaxAttempts,
		"clients.weclass.retry.initial_interval":          "100ms",
		"clients.weclass.retry.max_interval":              "10s",
		"clients.weclass.retry.multiplier":                defaultRetryMultiplier,
		"clients.weclass.rate_limit.requests_per_second":  0,
		"clients.weclass.rate_limit.burst_size":           defaultRateLimitBurst,
		"clients.weclass.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"clients.weclass.circuit_breaker.timeout":         "30s",
		"clients.weclass.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,

		"telemetry.enabled":  false,
		"telemetry.exporter": "stdout",
		"telemetry.endpoint": "",
	}
}
