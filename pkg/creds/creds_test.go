package creds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvStore(t *testing.T) {
	t.Setenv(EnvRegistryUsername, "robot")
	t.Setenv(EnvRegistryPassword, "hunter2")

	c, err := NewEnvStore().RegistryCredentials("registry.example.com")
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com", c.Server)
	assert.Equal(t, "robot", c.Username)
	assert.Equal(t, "hunter2", c.Password)
}

func TestEnvStoreMissing(t *testing.T) {
	t.Setenv(EnvRegistryUsername, "")
	t.Setenv(EnvRegistryPassword, "")

	_, err := NewEnvStore().RegistryCredentials("registry.example.com")
	require.Error(t, err)
}

func TestStaticStore(t *testing.T) {
	s := &StaticStore{Creds: Registry{Username: "u", Password: "p"}}
	c, err := s.RegistryCredentials("r.example.com")
	require.NoError(t, err)
	assert.Equal(t, "r.example.com", c.Server)
	assert.Equal(t, "u", c.Username)
}
