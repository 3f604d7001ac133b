package publish

import (
	"context"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/AmartiSamia/deploykit/pkg/creds"
)

// verifyFunc resolves a freshly pushed tag in the registry and returns its
// digest. Injectable so publisher tests need no registry.
type verifyFunc func(ctx context.Context, ref *ImageRef, c creds.Registry) (string, error)

// verifyTagResolves asks the registry for the manifest descriptor of the
// build tag via the distribution API.
func verifyTagResolves(ctx context.Context, ref *ImageRef, c creds.Registry) (string, error) {
	repo, err := remote.NewRepository(ref.Repository())
	if err != nil {
		return "", err
	}
	repo.Client = &auth.Client{
		Cache: auth.NewCache(),
		Credential: auth.StaticCredential(ref.Registry, auth.Credential{
			Username: c.Username,
			Password: c.Password,
		}),
	}

	var desc ociv1.Descriptor
	if desc, err = repo.Resolve(ctx, ref.BuildTag); err != nil {
		return "", err
	}
	return desc.Digest.String(), nil
}
