// Package build runs the kind-specific pre-containerization build step.
package build

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/AmartiSamia/deploykit/pkg/detect"
	"github.com/AmartiSamia/deploykit/pkg/errors"
)

// mavenArgs packages the archive without running tests; test execution
// belongs to CI, not the deployment path.
var mavenArgs = []string{"-B", "-DskipTests", "clean", "package"}

// RunFunc executes a build command in dir. Injectable for tests.
type RunFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// Invoker runs the prebuild step for a project kind. Only JVM projects have
// one: every other kind defers building into the container image itself.
type Invoker struct {
	run RunFunc
}

// New creates an Invoker that shells out to the real build tool.
func New() *Invoker {
	return &Invoker{run: runCommand}
}

// NewWithRunner creates an Invoker with a custom command runner.
func NewWithRunner(run RunFunc) *Invoker {
	return &Invoker{run: run}
}

// Run executes the prebuild for kind in treeDir. A failing build is fatal
// to the run. Non-JVM kinds are a no-op that always succeeds.
func (i *Invoker) Run(ctx context.Context, kind detect.Kind, treeDir string) error {
	if !kind.NeedsPrebuild() {
		slog.Debug("no prebuild step for kind", "kind", kind)
		return nil
	}

	slog.Info("running maven package", "dir", treeDir)
	out, err := i.run(ctx, treeDir, "mvn", mavenArgs...)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeBuild, "maven package failed", err,
			map[string]any{"output": tail(out, 4096)})
	}
	return nil
}

func runCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// tail returns at most the last n bytes of b, keeping diagnostics bounded.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
