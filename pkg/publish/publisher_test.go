package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmartiSamia/deploykit/pkg/artifact"
	"github.com/AmartiSamia/deploykit/pkg/creds"
	"github.com/AmartiSamia/deploykit/pkg/detect"
	"github.com/AmartiSamia/deploykit/pkg/errors"
	"github.com/AmartiSamia/deploykit/pkg/params"
)

type fakeEngine struct {
	calls     []string
	buildTags []string
	failOn    string
}

func (f *fakeEngine) step(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return fmt.Errorf("%s failed", name)
	}
	return nil
}

func (f *fakeEngine) BuildImage(_ context.Context, buildContext io.Reader, dockerfile string, tags []string) error {
	if _, err := io.Copy(io.Discard, buildContext); err != nil {
		return err
	}
	f.buildTags = tags
	return f.step("build")
}

func (f *fakeEngine) TagImage(_ context.Context, source, target string) error {
	return f.step(fmt.Sprintf("tag %s -> %s", source, target))
}

func (f *fakeEngine) Login(_ context.Context, _ creds.Registry) error {
	return f.step("login")
}

func (f *fakeEngine) PushImage(_ context.Context, ref string, _ creds.Registry) error {
	return f.step("push " + ref)
}

func testPublisher(engine Engine) *Publisher {
	p := New(engine, &creds.StaticStore{Creds: creds.Registry{Username: "u", Password: "p"}})
	p.verify = nil
	return p
}

func testRunParams() *params.RunParameters {
	return &params.RunParameters{
		RepoURL:     "https://example.com/demo.git",
		Project:     "demo",
		Registry:    "registry.example.com",
		BuildNumber: "42",
	}
}

func testTree(t *testing.T) (string, *artifact.BuildSpec) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html/>"), 0o644))
	spec, err := artifact.GenerateBuildSpec(dir, detect.KindStatic)
	require.NoError(t, err)
	return dir, spec
}

func TestPublishSequence(t *testing.T) {
	engine := &fakeEngine{}
	dir, spec := testTree(t)

	ref, err := testPublisher(engine).Publish(context.Background(), dir, spec, testRunParams())
	require.NoError(t, err)

	assert.Equal(t, "registry.example.com/demo:42", ref.BuildRef())
	assert.Equal(t, "registry.example.com/demo:latest", ref.LatestRef())
	assert.Equal(t, []string{"registry.example.com/demo:42"}, engine.buildTags)
	assert.Equal(t, []string{
		"build",
		"tag registry.example.com/demo:42 -> registry.example.com/demo:latest",
		"login",
		"push registry.example.com/demo:42",
		"push registry.example.com/demo:latest",
	}, engine.calls)

	// Build spec was materialized into the context directory.
	_, statErr := os.Stat(filepath.Join(dir, artifact.DockerfileName))
	assert.NoError(t, statErr)
}

func TestPublishCustomImageName(t *testing.T) {
	engine := &fakeEngine{}
	dir, spec := testTree(t)
	prm := testRunParams()
	prm.ImageName = "frontend"

	ref, err := testPublisher(engine).Publish(context.Background(), dir, spec, prm)
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com/frontend:42", ref.BuildRef())
}

func TestPublishFailuresAreFatal(t *testing.T) {
	for _, failOn := range []string{"build", "login", "push registry.example.com/demo:42"} {
		t.Run(failOn, func(t *testing.T) {
			engine := &fakeEngine{failOn: failOn}
			dir, spec := testTree(t)

			_, err := testPublisher(engine).Publish(context.Background(), dir, spec, testRunParams())
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodePublish, errors.CodeOf(err))
		})
	}
}

func TestPublishStopsAfterAuthFailure(t *testing.T) {
	engine := &fakeEngine{failOn: "login"}
	dir, spec := testTree(t)

	_, err := testPublisher(engine).Publish(context.Background(), dir, spec, testRunParams())
	require.Error(t, err)

	for _, call := range engine.calls {
		assert.NotContains(t, call, "push", "nothing may be pushed after failed auth")
	}
}

func TestPublishMissingCredentials(t *testing.T) {
	engine := &fakeEngine{}
	dir, spec := testTree(t)

	t.Setenv(creds.EnvRegistryUsername, "")
	t.Setenv(creds.EnvRegistryPassword, "")
	p := New(engine, creds.NewEnvStore())
	p.verify = nil

	_, err := p.Publish(context.Background(), dir, spec, testRunParams())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePublish, errors.CodeOf(err))
}

func TestNewImageRef(t *testing.T) {
	ref, err := NewImageRef("registry.example.com", "demo", "7")
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com/demo", ref.Repository())
	assert.Equal(t, "registry.example.com/demo:7", ref.String())

	_, err = NewImageRef("registry.example.com", "Demo UPPER", "7")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePublish, errors.CodeOf(err))
}
