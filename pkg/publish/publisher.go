package publish

import (
	"context"
	"log/slog"

	"github.com/AmartiSamia/deploykit/pkg/artifact"
	"github.com/AmartiSamia/deploykit/pkg/creds"
	"github.com/AmartiSamia/deploykit/pkg/errors"
	"github.com/AmartiSamia/deploykit/pkg/params"
)

// Publisher builds and pushes the run's container image. Any build, auth,
// or push failure is fatal; there is no partial-push retry, the caller
// re-runs the whole publish step.
type Publisher struct {
	engine Engine
	store  creds.Store
	verify verifyFunc
}

// New creates a Publisher on the given engine and credential store.
func New(engine Engine, store creds.Store) *Publisher {
	return &Publisher{engine: engine, store: store, verify: verifyTagResolves}
}

// Publish builds the image from the tree with the run's build spec, tags
// the unique build reference and the latest alias, authenticates, and
// pushes both tags. On success it returns the image reference the cluster
// deployer consumes.
func (p *Publisher) Publish(ctx context.Context, treeDir string, spec *artifact.BuildSpec, prm *params.RunParameters) (*ImageRef, error) {
	ref, err := NewImageRef(prm.Registry, prm.ResolvedImageName(), prm.BuildNumber)
	if err != nil {
		return nil, err
	}

	if err := spec.Materialize(treeDir); err != nil {
		return nil, errors.Wrap(errors.ErrCodePublish, "failed to materialize build spec", err)
	}

	buildContext, err := tarBuildContext(treeDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePublish, "failed to package build context", err)
	}

	slog.Info("building image", "ref", ref.BuildRef())
	if err := p.engine.BuildImage(ctx, buildContext, artifact.DockerfileName, []string{ref.BuildRef()}); err != nil {
		return nil, errors.Wrap(errors.ErrCodePublish, "image build failed", err)
	}

	if err := p.engine.TagImage(ctx, ref.BuildRef(), ref.LatestRef()); err != nil {
		return nil, errors.Wrap(errors.ErrCodePublish, "image tag failed", err)
	}

	auth, err := p.store.RegistryCredentials(ref.Registry)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePublish, "registry credentials unavailable", err)
	}

	if err := p.engine.Login(ctx, auth); err != nil {
		return nil, errors.Wrap(errors.ErrCodePublish, "registry authentication failed", err)
	}

	for _, tag := range []string{ref.BuildRef(), ref.LatestRef()} {
		slog.Info("pushing image", "ref", tag)
		if err := p.engine.PushImage(ctx, tag, auth); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodePublish, "image push failed", err,
				map[string]any{"ref": tag})
		}
	}

	// Best-effort confirmation that the registry serves the new tag. A
	// verification failure never fails the publish: the push already
	// succeeded from the engine's perspective.
	if p.verify != nil {
		if digest, err := p.verify(ctx, ref, auth); err != nil {
			slog.Warn("pushed tag did not resolve in registry", "ref", ref.BuildRef(), "error", err)
		} else {
			slog.Info("image published", "ref", ref.BuildRef(), "digest", digest)
		}
	}

	return ref, nil
}
