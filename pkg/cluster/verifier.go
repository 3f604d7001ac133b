package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/AmartiSamia/deploykit/pkg/errors"
	"github.com/AmartiSamia/deploykit/pkg/k8s/client"
)

// Verification bounds: up to DefaultVerifyAttempts probes, one every
// DefaultVerifyInterval.
const (
	DefaultVerifyAttempts = 20
	DefaultVerifyInterval = 10 * time.Second

	verifyRequestTimeout = 15 * time.Second
)

// Verifier probes the published ingress host until the application
// answers, for a bounded number of attempts.
type Verifier struct {
	clientset client.Interface
	httpc     *http.Client

	// MaxAttempts is the probe budget. Defaults to DefaultVerifyAttempts.
	MaxAttempts int
	// Interval is the pause between probes. Defaults to
	// DefaultVerifyInterval.
	Interval time.Duration
}

// NewVerifier creates a Verifier on the given cluster client.
func NewVerifier(clientset client.Interface) *Verifier {
	return &Verifier{
		clientset:   clientset,
		httpc:       &http.Client{Timeout: verifyRequestTimeout},
		MaxAttempts: DefaultVerifyAttempts,
		Interval:    DefaultVerifyInterval,
	}
}

// Verify polls the deployed application over HTTP until it answers with a
// non-5xx status and returns the endpoint URL that answered. The ingress
// status is re-read on every attempt: load balancers publish their address
// some time after the first apply, so an address assigned mid-poll is
// picked up by the next attempt. Until then the configured host is probed.
// Exhausting the attempt budget is a verification error; the caller
// decides whether that is fatal.
func (v *Verifier) Verify(ctx context.Context, name, namespace, host string) (string, error) {
	endpoint := fmt.Sprintf("http://%s", host)
	var lastErr error

	for attempt := 1; attempt <= v.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return endpoint, errors.Wrap(errors.ErrCodeVerification, "verification canceled", err)
		}

		resolved, err := v.resolveEndpoint(ctx, name, namespace, host)
		if err != nil {
			lastErr = err
			slog.Debug("ingress not yet resolvable",
				"ingress", name, "namespace", namespace, "attempt", attempt, "error", err)
		} else {
			endpoint = resolved
			if err := v.probe(ctx, endpoint); err == nil {
				slog.Info("application reachable", "endpoint", endpoint, "attempt", attempt)
				return endpoint, nil
			} else {
				lastErr = err
				slog.Debug("application not yet reachable",
					"endpoint", endpoint, "attempt", attempt, "maxAttempts", v.MaxAttempts, "error", err)
			}
		}

		if attempt < v.MaxAttempts {
			select {
			case <-time.After(v.Interval):
			case <-ctx.Done():
				return endpoint, errors.Wrap(errors.ErrCodeVerification, "verification canceled", ctx.Err())
			}
		}
	}

	return endpoint, errors.WrapWithContext(errors.ErrCodeVerification,
		fmt.Sprintf("application at %s not reachable after %d attempts", endpoint, v.MaxAttempts),
		lastErr, map[string]any{"endpoint": endpoint, "attempts": v.MaxAttempts})
}

// resolveEndpoint prefers the address published on the ingress status and
// falls back to the configured ingress host.
func (v *Verifier) resolveEndpoint(ctx context.Context, name, namespace, host string) (string, error) {
	ing, err := v.clientset.NetworkingV1().Ingresses(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeVerification, "failed to read ingress", err)
	}

	addr := host
	for _, lb := range ing.Status.LoadBalancer.Ingress {
		if lb.Hostname != "" {
			addr = lb.Hostname
			break
		}
		if lb.IP != "" {
			addr = lb.IP
			break
		}
	}
	if addr == "" {
		return "", errors.New(errors.ErrCodeVerification, "ingress has no resolvable address")
	}

	return fmt.Sprintf("http://%s", addr), nil
}

func (v *Verifier) probe(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return nil
}
