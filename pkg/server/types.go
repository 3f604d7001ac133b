package server

import (
	"time"

	"github.com/AmartiSamia/deploykit/pkg/orchestrator"
)

// RunStatus is the lifecycle state of a submitted deployment run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// DeploymentRequest is the POST /v1/deployments request body.
type DeploymentRequest struct {
	RepoURL       string `json:"repoUrl"`
	Project       string `json:"project"`
	Branch        string `json:"branch,omitempty"`
	ImageName     string `json:"imageName,omitempty"`
	BuildNumber   string `json:"buildNumber,omitempty"`
	Registry      string `json:"registry,omitempty"`
	IngressDomain string `json:"ingressDomain,omitempty"`
}

// DeploymentRun is the externally visible state of a run.
type DeploymentRun struct {
	ID          string                `json:"id"`
	Project     string                `json:"project"`
	Status      RunStatus             `json:"status"`
	Warning     string                `json:"warning,omitempty"`
	SubmittedAt time.Time             `json:"submittedAt"`
	FinishedAt  *time.Time            `json:"finishedAt,omitempty"`
	Outcome     *orchestrator.Outcome `json:"outcome,omitempty"`
}

// ErrorResponse is the error body for all non-2xx responses.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}
