// Package server implements the deployment HTTP API: run submission,
// run status, health probes, and Prometheus metrics.
package server
