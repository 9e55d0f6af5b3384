// Package main is the entry point for the playground HTTP service.
//
// It exposes the detection → transformation → sandboxed execution →
// serialization pipeline to editor frontends over a small JSON API.
//
// The server provides:
//   - POST /v1/run: execute code, returning ordered results
//   - POST /v1/run/cancel: cancel a session's outstanding execution
//   - POST /v1/transform: instrument code without executing it
//   - POST /v1/detect: language and feature detection
//   - PUT  /v1/env: set the process-wide env overlay
//   - GET  /metrics: Prometheus metrics for the pipeline
//
// Configuration:
//   - Environment variables (PLAYGROUND_* prefix)
//   - Optional YAML config file (-config)
//   - CLI flags
//
// Usage:
//
//	# Production mode
//	./server -addr :8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
