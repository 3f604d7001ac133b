// Package creds supplies registry credentials to the pipeline. The core
// treats credentials as opaque: they are fetched once per run and handed to
// the publisher and cluster deployer unchanged.
package creds

import (
	"os"

	"github.com/AmartiSamia/deploykit/pkg/errors"
)

// Environment variables consulted by the default store.
const (
	EnvRegistryUsername = "DEPLOYKIT_REGISTRY_USERNAME"
	EnvRegistryPassword = "DEPLOYKIT_REGISTRY_PASSWORD"
)

// Registry holds credentials for one image registry.
type Registry struct {
	Server   string
	Username string
	Password string
}

// Store supplies per-run credentials.
type Store interface {
	// RegistryCredentials returns credentials for the given registry host.
	RegistryCredentials(server string) (Registry, error)
}

// EnvStore reads credentials from the process environment.
type EnvStore struct{}

// NewEnvStore creates the default environment-backed store.
func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

// RegistryCredentials implements Store.
func (s *EnvStore) RegistryCredentials(server string) (Registry, error) {
	user := os.Getenv(EnvRegistryUsername)
	pass := os.Getenv(EnvRegistryPassword)
	if user == "" || pass == "" {
		return Registry{}, errors.Newf(errors.ErrCodePublish,
			"registry credentials not configured: set %s and %s",
			EnvRegistryUsername, EnvRegistryPassword)
	}
	return Registry{Server: server, Username: user, Password: pass}, nil
}

// StaticStore returns fixed credentials. Useful for tests and for callers
// that already resolved credentials elsewhere.
type StaticStore struct {
	Creds Registry
}

// RegistryCredentials implements Store.
func (s *StaticStore) RegistryCredentials(server string) (Registry, error) {
	c := s.Creds
	c.Server = server
	return c, nil
}
