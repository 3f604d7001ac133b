// Package api assembles and runs the deployment API server. It exists so
// the server binary stays a one-liner: wiring of the cluster client, the
// container engine, and the pipeline orchestrator happens here.
package api
