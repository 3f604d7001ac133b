// Package source materializes working copies of deployment sources.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/AmartiSamia/deploykit/pkg/errors"
)

// shortHashLen is the provenance hash length captured after checkout.
const shortHashLen = 7

// Tree is the materialized working copy of one acquisition. It is owned
// exclusively by the run that produced it and is destroyed at the start of
// the next run for the same project.
type Tree struct {
	// Dir is the root of the working copy.
	Dir string
	// Branch is the branch that was actually checked out, which may be a
	// fallback rather than the preferred branch.
	Branch string
	// Commit is the short head commit hash, captured as build provenance.
	Commit string
}

// CheckoutFunc checks out url@branch into dir and returns the short head
// commit. Injectable so the fallback policy is testable without a remote.
type CheckoutFunc func(ctx context.Context, url, branch, dir string) (string, error)

// Acquirer fetches a source tree with ordered branch fallback.
type Acquirer struct {
	checkout CheckoutFunc
}

// New creates an Acquirer backed by a real git checkout.
func New() *Acquirer {
	return &Acquirer{checkout: gitCheckout}
}

// NewWithCheckout creates an Acquirer with a custom checkout implementation.
func NewWithCheckout(fn CheckoutFunc) *Acquirer {
	return &Acquirer{checkout: fn}
}

// Acquire checks out repoURL into dir, attempting preferredBranch first,
// then "main", then "master". The fallback order tolerates repositories
// with inconsistent default-branch naming; it is not a transient-failure
// retry. Each attempt is a full fresh checkout: partial state from the
// prior attempt is discarded before the next one. When every candidate
// fails the result is an acquisition error carrying each branch's cause.
func (a *Acquirer) Acquire(ctx context.Context, repoURL, preferredBranch, dir string) (*Tree, error) {
	candidates := branchCandidates(preferredBranch)
	causes := make(map[string]any, len(candidates))

	for _, branch := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAcquisition, "acquisition canceled", err)
		}

		if err := resetDir(dir); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAcquisition, "failed to reset working directory", err)
		}

		commit, err := a.checkout(ctx, repoURL, branch, dir)
		if err == nil {
			slog.Info("source acquired",
				"repo", repoURL,
				"branch", branch,
				"commit", commit,
			)
			return &Tree{Dir: dir, Branch: branch, Commit: commit}, nil
		}

		slog.Warn("branch checkout failed", "branch", branch, "error", err)
		causes[branch] = err.Error()
	}

	return nil, errors.WrapWithContext(errors.ErrCodeAcquisition,
		fmt.Sprintf("all branch candidates failed for %s", repoURL),
		nil, causes)
}

// branchCandidates returns the ordered fallback list for a preferred branch,
// collapsing duplicates while preserving order.
func branchCandidates(preferred string) []string {
	candidates := []string{preferred, "main", "master"}
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, b := range candidates {
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}

// resetDir discards any prior working copy and recreates an empty directory.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(dir), 0o755)
}

// gitCheckout clones a single branch at depth 1 and returns the short head
// commit hash.
func gitCheckout(ctx context.Context, url, branch, dir string) (string, error) {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           url,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         1,
		Tags:          git.NoTags,
	})
	if err != nil {
		return "", fmt.Errorf("clone %s@%s: %w", url, branch, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve head: %w", err)
	}

	return head.Hash().String()[:shortHashLen], nil
}
