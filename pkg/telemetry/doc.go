// Package telemetry groups AltDetector's observability packages:
//
//   - logging: slog setup with credential and IP redaction
//   - metrics: Prometheus collectors for storage operations, pruning and the worker pool
//   - health: liveness and readiness checks for the admin server
package telemetry
