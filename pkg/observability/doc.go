// Package observability provides structured logging, Prometheus
// metrics and health probes for the Warden access control engine.
package observability
