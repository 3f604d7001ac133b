// Package client builds Kubernetes clients from kubeconfig files or
// in-cluster configuration.
package client
