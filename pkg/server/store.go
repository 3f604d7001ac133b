package server

import (
	"sort"
	"sync"
	"time"

	"github.com/AmartiSamia/deploykit/pkg/orchestrator"
)

// runStore tracks submitted runs in memory. Run history does not survive a
// server restart.
type runStore struct {
	mu      sync.RWMutex
	runs    map[string]*DeploymentRun
	running map[string]string // project -> run id
}

func newRunStore() *runStore {
	return &runStore{
		runs:    make(map[string]*DeploymentRun),
		running: make(map[string]string),
	}
}

// add registers a new run, rejecting the project if one is already running.
// It reports whether the run was admitted.
func (s *runStore) add(run *DeploymentRun) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[run.Project]; busy {
		return false
	}
	s.runs[run.ID] = run
	s.running[run.Project] = run.ID
	return true
}

// finish records the outcome of a run and frees its project for new runs.
func (s *runStore) finish(id string, out *orchestrator.Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return
	}

	now := time.Now().UTC()
	run.FinishedAt = &now
	switch {
	case err != nil:
		run.Status = StatusFailed
		run.Outcome = &orchestrator.Outcome{Project: run.Project, Error: err.Error()}
	case out.Success:
		run.Status = StatusSucceeded
		run.Warning = out.Warning
		run.Outcome = out
	default:
		run.Status = StatusFailed
		run.Outcome = out
	}
	delete(s.running, run.Project)
}

// get returns a copy of the run with the given id.
func (s *runStore) get(id string) (DeploymentRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return DeploymentRun{}, false
	}
	return *run, true
}

// list returns copies of all runs, newest first.
func (s *runStore) list() []DeploymentRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DeploymentRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}
