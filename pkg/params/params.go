// Package params defines the immutable parameters of a single deployment run.
package params

import (
	"fmt"
	"strings"

	"github.com/AmartiSamia/deploykit/pkg/errors"
)

// Defaults applied when the caller leaves optional parameters blank.
const (
	DefaultBranch        = "main"
	DefaultRegistry      = "docker.io"
	DefaultIngressDomain = "deploy.local"

	namespaceSuffix = "-dev"
)

// RunParameters carries everything a run needs, resolved once at invocation.
// Values the original pipeline read from ambient process state (build number,
// registry host, ingress domain) are explicit fields here and threaded
// through each stage unchanged.
type RunParameters struct {
	// RepoURL is the source repository to deploy. Required.
	RepoURL string
	// Project names the deployment and derives its namespace and ingress
	// host. Required.
	Project string
	// ImageName overrides the image repository name. Defaults to Project.
	ImageName string
	// Branch is the preferred branch to check out. Defaults to "main".
	Branch string
	// BuildNumber becomes the unique image tag for this run.
	BuildNumber string
	// Registry is the image registry host images are pushed to.
	Registry string
	// IngressDomain is the base domain ingress hosts are derived from.
	IngressDomain string
	// Kubeconfig is the path to the cluster access descriptor. Empty means
	// automatic discovery.
	Kubeconfig string
	// WorkDir is the directory the source tree is materialized under.
	WorkDir string
}

// Validate checks required parameters and fills defaults for optional ones.
// It runs exactly once, before any stage.
func (p *RunParameters) Validate() error {
	if strings.TrimSpace(p.RepoURL) == "" {
		return errors.New(errors.ErrCodeValidation, "repository URL is required")
	}
	if strings.TrimSpace(p.Project) == "" {
		return errors.New(errors.ErrCodeValidation, "project name is required")
	}
	if p.Branch == "" {
		p.Branch = DefaultBranch
	}
	if p.Registry == "" {
		p.Registry = DefaultRegistry
	}
	if p.IngressDomain == "" {
		p.IngressDomain = DefaultIngressDomain
	}
	if p.BuildNumber == "" {
		p.BuildNumber = "0"
	}
	return nil
}

// ResolvedImageName returns the custom image name when supplied, else the
// project name.
func (p *RunParameters) ResolvedImageName() string {
	if p.ImageName != "" {
		return p.ImageName
	}
	return p.Project
}

// Namespace returns the cluster namespace the run deploys into.
func (p *RunParameters) Namespace() string {
	return p.Project + namespaceSuffix
}

// IngressHost returns the deterministic external host for the project.
func (p *RunParameters) IngressHost() string {
	return fmt.Sprintf("%s.%s", strings.ToLower(p.Project), p.IngressDomain)
}
