package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AmartiSamia/deploykit/pkg/params"
	"github.com/AmartiSamia/deploykit/pkg/serializer"
)

// handleDeployments handles /v1/deployments: POST submits a run, GET lists
// known runs.
func (s *Server) handleDeployments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitDeployment(w, r)
	case http.MethodGet:
		serializer.RespondJSON(w, http.StatusOK, s.runs.list())
	default:
		w.Header().Set("Allow", "GET, POST")
		s.writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed,
			"Method not allowed", false, nil)
	}
}

// handleDeployment handles GET /v1/deployments/{id}.
func (s *Server) handleDeployment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		s.writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed,
			"Method not allowed", false, nil)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/deployments/")
	run, ok := s.runs.get(id)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, ErrCodeNotFound,
			"Unknown deployment run", false, map[string]any{"id": id})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, run)
}

// submitDeployment admits a run and executes the pipeline in the
// background. The response is 202 with the run id; progress is polled via
// GET /v1/deployments/{id}.
func (s *Server) submitDeployment(w http.ResponseWriter, r *http.Request) {
	var req DeploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest,
			"Invalid request body", false, map[string]any{"error": err.Error()})
		return
	}

	prm := &params.RunParameters{
		RepoURL:       req.RepoURL,
		Project:       req.Project,
		Branch:        req.Branch,
		ImageName:     req.ImageName,
		BuildNumber:   req.BuildNumber,
		Registry:      req.Registry,
		IngressDomain: req.IngressDomain,
		Kubeconfig:    s.config.Kubeconfig,
		WorkDir:       s.config.WorkDir,
	}
	if err := prm.Validate(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest,
			err.Error(), false, nil)
		return
	}

	run := &DeploymentRun{
		ID:          uuid.New().String(),
		Project:     prm.Project,
		Status:      StatusRunning,
		SubmittedAt: time.Now().UTC(),
	}
	if !s.runs.add(run) {
		s.writeError(w, r, http.StatusConflict, ErrCodeConflict,
			"A deployment for this project is already running", true,
			map[string]any{"project": prm.Project})
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		out, err := s.runner.Run(s.baseCtx, prm)
		if err != nil {
			slog.Error("deployment run rejected", "id", run.ID, "project", prm.Project, "error", err)
		}
		s.runs.finish(run.ID, out, err)
	}()

	w.Header().Set("Location", "/v1/deployments/"+run.ID)
	serializer.RespondJSON(w, http.StatusAccepted, run)
}
