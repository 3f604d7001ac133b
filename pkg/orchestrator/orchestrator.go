// Package orchestrator sequences a deployment run: acquire source, detect
// the project kind, generate build artifacts, publish the image, apply
// manifests, and verify the published endpoint.
package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/AmartiSamia/deploykit/pkg/artifact"
	"github.com/AmartiSamia/deploykit/pkg/build"
	"github.com/AmartiSamia/deploykit/pkg/cluster"
	"github.com/AmartiSamia/deploykit/pkg/creds"
	"github.com/AmartiSamia/deploykit/pkg/detect"
	"github.com/AmartiSamia/deploykit/pkg/errors"
	"github.com/AmartiSamia/deploykit/pkg/k8s/client"
	"github.com/AmartiSamia/deploykit/pkg/params"
	"github.com/AmartiSamia/deploykit/pkg/publish"
	"github.com/AmartiSamia/deploykit/pkg/source"
)

// Stage names a pipeline phase, used in outcomes and metrics.
type Stage string

const (
	StageAcquire Stage = "acquire"
	StageDetect  Stage = "detect"
	StageBuild   Stage = "build"
	StagePublish Stage = "publish"
	StageDeploy  Stage = "deploy"
	StageVerify  Stage = "verify"
)

// Acquirer fetches a source tree for a repository.
type Acquirer interface {
	Acquire(ctx context.Context, repoURL, preferredBranch, dir string) (*source.Tree, error)
}

// Prebuilder runs a kind-specific build step inside the source tree.
type Prebuilder interface {
	Run(ctx context.Context, kind detect.Kind, treeDir string) error
}

// Publisher builds and pushes the container image for a run.
type Publisher interface {
	Publish(ctx context.Context, treeDir string, spec *artifact.BuildSpec, prm *params.RunParameters) (*publish.ImageRef, error)
}

// Deployer applies a manifest set to the cluster.
type Deployer interface {
	Deploy(ctx context.Context, m *artifact.ManifestSet, regCreds creds.Registry) error
}

// Verifier confirms the deployed application answers at its endpoint.
type Verifier interface {
	Verify(ctx context.Context, name, namespace, host string) (string, error)
}

// DiagnosticsFunc collects failure diagnostics for a deployment.
type DiagnosticsFunc func(ctx context.Context, name, namespace string) *cluster.Diagnostics

// Outcome is the result of a deployment run.
type Outcome struct {
	Project  string        `json:"project" yaml:"project"`
	Success  bool          `json:"success" yaml:"success"`
	Image    string        `json:"image,omitempty" yaml:"image,omitempty"`
	Endpoint string        `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Kind     detect.Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Commit   string        `json:"commit,omitempty" yaml:"commit,omitempty"`
	Branch   string        `json:"branch,omitempty" yaml:"branch,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Warning carries a non-fatal problem, currently only a failed
	// endpoint verification on an otherwise successful run.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`

	// FailedStage and Error are set on failed runs only.
	FailedStage Stage  `json:"failedStage,omitempty" yaml:"failedStage,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`

	// Diagnostics is collected when the deploy stage fails.
	Diagnostics *cluster.Diagnostics `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Orchestrator runs deployment pipelines. At most one run per project is
// allowed at a time; concurrent runs for distinct projects are fine.
type Orchestrator struct {
	acquirer   Acquirer
	prebuilder Prebuilder
	publisher  Publisher
	deployer   Deployer
	verifier   Verifier
	diagnose   DiagnosticsFunc
	store      creds.Store

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAcquirer overrides the source acquirer.
func WithAcquirer(a Acquirer) Option { return func(o *Orchestrator) { o.acquirer = a } }

// WithPrebuilder overrides the prebuild invoker.
func WithPrebuilder(p Prebuilder) Option { return func(o *Orchestrator) { o.prebuilder = p } }

// WithPublisher overrides the image publisher.
func WithPublisher(p Publisher) Option { return func(o *Orchestrator) { o.publisher = p } }

// WithDeployer overrides the cluster deployer.
func WithDeployer(d Deployer) Option { return func(o *Orchestrator) { o.deployer = d } }

// WithVerifier overrides the endpoint verifier.
func WithVerifier(v Verifier) Option { return func(o *Orchestrator) { o.verifier = v } }

// WithDiagnostics overrides the failure diagnostics collector.
func WithDiagnostics(fn DiagnosticsFunc) Option { return func(o *Orchestrator) { o.diagnose = fn } }

// WithCredentialStore overrides the registry credential store.
func WithCredentialStore(s creds.Store) Option { return func(o *Orchestrator) { o.store = s } }

// New creates an Orchestrator wired to the real pipeline stages, then
// applies the given options.
func New(clientset client.Interface, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		acquirer:   source.New(),
		prebuilder: build.New(),
		store:      creds.NewEnvStore(),
		locks:      make(map[string]*semaphore.Weighted),
	}
	if clientset != nil {
		o.deployer = cluster.NewDeployer(clientset)
		o.verifier = cluster.NewVerifier(clientset)
		o.diagnose = func(ctx context.Context, name, namespace string) *cluster.Diagnostics {
			return cluster.CollectDiagnostics(ctx, clientset, name, namespace)
		}
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the full pipeline for the given parameters and reports the
// outcome. Pipeline errors are folded into the Outcome; the error return is
// reserved for run admission (wiring, validation, and per-project
// conflicts).
func (o *Orchestrator) Run(ctx context.Context, prm *params.RunParameters) (*Outcome, error) {
	if o.publisher == nil || o.deployer == nil || o.verifier == nil {
		return nil, errors.New(errors.ErrCodeInternal,
			"orchestrator is not fully wired: publisher, deployer, and verifier are required")
	}
	if err := prm.Validate(); err != nil {
		return nil, err
	}

	lock := o.projectLock(prm.Project)
	if !lock.TryAcquire(1) {
		return nil, errors.Newf(errors.ErrCodeConflict,
			"a deployment for project %q is already running", prm.Project)
	}
	defer lock.Release(1)

	activeRuns.Inc()
	defer activeRuns.Dec()

	started := time.Now()
	out := &Outcome{Project: prm.Project}
	defer func() {
		out.Duration = time.Since(started)
		observeRun(out)
	}()

	slog.Info("starting deployment run",
		"project", prm.Project, "repo", prm.RepoURL, "branch", prm.Branch, "build", prm.BuildNumber)

	treeDir := filepath.Join(prm.WorkDir, prm.Project)

	tree, err := runStage(ctx, out, StageAcquire, func() (*source.Tree, error) {
		return o.acquirer.Acquire(ctx, prm.RepoURL, prm.Branch, treeDir)
	})
	if err != nil {
		return out, nil
	}
	defer func() {
		if err := os.RemoveAll(tree.Dir); err != nil {
			slog.Warn("failed to remove work tree", "dir", tree.Dir, "error", err)
		}
	}()
	out.Branch = tree.Branch
	out.Commit = tree.Commit

	kind, err := runStage(ctx, out, StageDetect, func() (detect.Kind, error) {
		return detect.Detect(tree.Dir), nil
	})
	if err != nil {
		return out, nil
	}
	out.Kind = kind
	slog.Info("detected project kind", "project", prm.Project, "kind", kind)

	spec, err := runStage(ctx, out, StageBuild, func() (*artifact.BuildSpec, error) {
		s, err := artifact.GenerateBuildSpec(tree.Dir, kind)
		if err != nil {
			return nil, err
		}
		return s, o.prebuilder.Run(ctx, kind, tree.Dir)
	})
	if err != nil {
		return out, nil
	}

	ref, err := runStage(ctx, out, StagePublish, func() (*publish.ImageRef, error) {
		return o.publisher.Publish(ctx, tree.Dir, spec, prm)
	})
	if err != nil {
		return out, nil
	}
	out.Image = ref.BuildRef()

	manifests := artifact.GenerateManifests(prm, kind, ref.BuildRef())
	_, err = runStage(ctx, out, StageDeploy, func() (struct{}, error) {
		regCreds, err := o.store.RegistryCredentials(prm.Registry)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, o.deployer.Deploy(ctx, manifests, regCreds)
	})
	if err != nil {
		if o.diagnose != nil {
			out.Diagnostics = o.diagnose(ctx, manifests.Deployment.Name, manifests.Namespace.Name)
		}
		return out, nil
	}

	// Verification failure does not undo a completed deployment; it is
	// reported as a warning on a successful run.
	endpoint, err := o.runVerify(ctx, manifests.Ingress.Name, manifests.Namespace.Name, prm.IngressHost())
	out.Endpoint = endpoint
	if err != nil {
		out.Warning = err.Error()
		slog.Warn("deployment succeeded but endpoint verification failed",
			"project", prm.Project, "endpoint", endpoint, "error", err)
	}

	out.Success = true
	slog.Info("deployment run complete",
		"project", prm.Project, "image", out.Image, "endpoint", out.Endpoint, "duration", time.Since(started))
	return out, nil
}

// runStage times a pipeline stage and records a failure on the outcome.
func runStage[T any](ctx context.Context, out *Outcome, stage Stage, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		werr := errors.Wrap(errors.ErrCodeInternal, "run canceled", err)
		out.FailedStage = stage
		out.Error = werr.Error()
		return zero, werr
	}

	started := time.Now()
	v, err := fn()
	stageDuration.WithLabelValues(string(stage)).Observe(time.Since(started).Seconds())
	if err != nil {
		out.FailedStage = stage
		out.Error = err.Error()
		slog.Error("pipeline stage failed", "stage", stage, "error", err)
		return zero, err
	}
	return v, nil
}

func (o *Orchestrator) runVerify(ctx context.Context, name, namespace, host string) (string, error) {
	started := time.Now()
	endpoint, err := o.verifier.Verify(ctx, name, namespace, host)
	stageDuration.WithLabelValues(string(StageVerify)).Observe(time.Since(started).Seconds())
	return endpoint, err
}

func (o *Orchestrator) projectLock(project string) *semaphore.Weighted {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[project]
	if !ok {
		lock = semaphore.NewWeighted(1)
		o.locks[project] = lock
	}
	return lock
}
