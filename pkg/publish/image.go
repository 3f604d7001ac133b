// Package publish builds, tags, and pushes container images for a run.
package publish

import (
	"fmt"

	"github.com/distribution/reference"

	"github.com/AmartiSamia/deploykit/pkg/errors"
)

// LatestTag is the moving alias pushed alongside every build tag.
// Overwriting it on each run is intentional.
const LatestTag = "latest"

// ImageRef identifies the published image: registry host, image name, and
// the two tags every run produces. It is created only once publishing
// succeeds and is consumed by the cluster deployer.
type ImageRef struct {
	Registry string
	Name     string
	BuildTag string
}

// NewImageRef constructs and validates the image reference for a run.
func NewImageRef(registry, name, buildTag string) (*ImageRef, error) {
	r := &ImageRef{Registry: registry, Name: name, BuildTag: buildTag}
	for _, ref := range []string{r.BuildRef(), r.LatestRef()} {
		if _, err := reference.ParseNormalizedNamed(ref); err != nil {
			return nil, errors.Wrap(errors.ErrCodePublish,
				fmt.Sprintf("invalid image reference %q", ref), err)
		}
	}
	return r, nil
}

// Repository returns the registry-qualified image name without a tag.
func (r *ImageRef) Repository() string {
	return fmt.Sprintf("%s/%s", r.Registry, r.Name)
}

// BuildRef returns the unique per-run reference.
func (r *ImageRef) BuildRef() string {
	return fmt.Sprintf("%s:%s", r.Repository(), r.BuildTag)
}

// LatestRef returns the moving latest reference.
func (r *ImageRef) LatestRef() string {
	return fmt.Sprintf("%s:%s", r.Repository(), LatestTag)
}

// String returns the unique reference; that is what the manifests consume.
func (r *ImageRef) String() string {
	return r.BuildRef()
}
