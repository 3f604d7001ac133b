package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeValidation, "project name is required")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeValidation {
		t.Errorf("expected code %s, got %s", ErrCodeValidation, err.Code)
	}
	if err.Message != "project name is required" {
		t.Errorf("expected message 'project name is required', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodePublish, "image push failed", cause)

	if err.Code != ErrCodePublish {
		t.Errorf("expected code %s, got %s", ErrCodePublish, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("timeout")
	ctx := map[string]interface{}{
		"deployment": "demo",
		"namespace":  "demo-dev",
	}

	err := WrapWithContext(ErrCodeDeploy, "rollout did not complete", cause, ctx)

	if err.Code != ErrCodeDeploy {
		t.Errorf("expected code %s, got %s", ErrCodeDeploy, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["namespace"] != "demo-dev" {
		t.Errorf("expected namespace to be demo-dev")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeAcquisition, "all branches failed"),
			expected: "[ACQUISITION] all branches failed",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeBuild, "maven package failed", errors.New("exit status 1")),
			expected: "[BUILD] maven package failed: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(ErrCodeInternal, "wrapped", cause)

	unwrapped := err.Unwrap()
	if !errors.Is(unwrapped, cause) {
		t.Errorf("expected unwrapped error to be original cause")
	}

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should work with Unwrap")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(ErrCodeVerification, "no ingress host")); got != ErrCodeVerification {
		t.Errorf("expected %s, got %s", ErrCodeVerification, got)
	}
	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("expected %s for plain error, got %s", ErrCodeInternal, got)
	}

	wrapped := Wrap(ErrCodeDeploy, "apply failed", errors.New("boom"))
	if got := CodeOf(wrapped); got != ErrCodeDeploy {
		t.Errorf("expected %s, got %s", ErrCodeDeploy, got)
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeValidation,
		ErrCodeAcquisition,
		ErrCodeBuild,
		ErrCodePublish,
		ErrCodeDeploy,
		ErrCodeVerification,
		ErrCodeConflict,
		ErrCodeInternal,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("error code should not be empty: %v", code)
		}
	}
}
