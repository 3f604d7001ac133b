package publish

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/AmartiSamia/deploykit/pkg/creds"
)

// Engine is the narrow container-engine surface the publisher depends on.
// Image layer construction itself belongs to the engine, not to deploykit.
type Engine interface {
	BuildImage(ctx context.Context, buildContext io.Reader, dockerfile string, tags []string) error
	TagImage(ctx context.Context, source, target string) error
	Login(ctx context.Context, auth creds.Registry) error
	PushImage(ctx context.Context, ref string, auth creds.Registry) error
}

// DockerEngine implements Engine against the Docker Engine API.
type DockerEngine struct {
	cli *client.Client
}

// NewDockerEngine creates an engine client from the environment
// (DOCKER_HOST et al) with API version negotiation.
func NewDockerEngine() (*DockerEngine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerEngine{cli: cli}, nil
}

// Close releases the engine connection.
func (e *DockerEngine) Close() error {
	return e.cli.Close()
}

// BuildImage builds the context with the given tags. The response stream is
// fully drained: build failures surface as stream errors, not as the
// initial ImageBuild error.
func (e *DockerEngine) BuildImage(ctx context.Context, buildContext io.Reader, dockerfile string, tags []string) error {
	resp, err := e.cli.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:        tags,
		Dockerfile:  dockerfile,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return fmt.Errorf("image build: %w", err)
	}
	defer resp.Body.Close()

	return drainStream(resp.Body)
}

// TagImage adds target as an alias of source.
func (e *DockerEngine) TagImage(ctx context.Context, source, target string) error {
	if err := e.cli.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("image tag %s -> %s: %w", source, target, err)
	}
	return nil
}

// Login authenticates against the registry.
func (e *DockerEngine) Login(ctx context.Context, auth creds.Registry) error {
	_, err := e.cli.RegistryLogin(ctx, registry.AuthConfig{
		ServerAddress: auth.Server,
		Username:      auth.Username,
		Password:      auth.Password,
	})
	if err != nil {
		return fmt.Errorf("registry login %s: %w", auth.Server, err)
	}
	return nil
}

// PushImage pushes one reference with per-request auth.
func (e *DockerEngine) PushImage(ctx context.Context, ref string, auth creds.Registry) error {
	encoded, err := registry.EncodeAuthConfig(registry.AuthConfig{
		ServerAddress: auth.Server,
		Username:      auth.Username,
		Password:      auth.Password,
	})
	if err != nil {
		return fmt.Errorf("encode registry auth: %w", err)
	}

	body, err := e.cli.ImagePush(ctx, ref, image.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return fmt.Errorf("image push %s: %w", ref, err)
	}
	defer body.Close()

	return drainStream(body)
}

// drainStream consumes an engine JSON message stream and converts embedded
// stream errors into a Go error.
func drainStream(r io.Reader) error {
	return jsonmessage.DisplayJSONMessagesStream(r, io.Discard, 0, false, nil)
}
