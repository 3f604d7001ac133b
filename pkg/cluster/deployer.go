// Package cluster applies generated manifests to the target cluster and
// verifies the resulting deployment.
package cluster

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/AmartiSamia/deploykit/pkg/artifact"
	"github.com/AmartiSamia/deploykit/pkg/creds"
	"github.com/AmartiSamia/deploykit/pkg/errors"
	"github.com/AmartiSamia/deploykit/pkg/k8s/client"
)

// Rollout wait bounds. The timeout is a hard deadline: exceeding it is a
// fatal deploy error, never a silent partial success.
const (
	DefaultRolloutTimeout = 300 * time.Second
	rolloutPollInterval   = 5 * time.Second
)

// Deployer applies a manifest set and waits for the rollout to complete.
type Deployer struct {
	clientset client.Interface

	// RolloutTimeout bounds the rollout wait. Defaults to
	// DefaultRolloutTimeout.
	RolloutTimeout time.Duration
	// PollInterval is the rollout status poll cadence.
	PollInterval time.Duration
}

// NewDeployer creates a Deployer on the given cluster client.
func NewDeployer(clientset client.Interface) *Deployer {
	return &Deployer{
		clientset:      clientset,
		RolloutTimeout: DefaultRolloutTimeout,
		PollInterval:   rolloutPollInterval,
	}
}

// Deploy realizes the manifest set on the cluster: namespace first
// (create-if-absent), then the registry pull secret (apply, never
// duplicate), then workload, service, and ingress in order, and finally a
// bounded wait for rollout completion.
func (d *Deployer) Deploy(ctx context.Context, m *artifact.ManifestSet, regCreds creds.Registry) error {
	ns := m.Namespace.Name

	if err := d.ensureNamespace(ctx, m.Namespace); err != nil {
		return errors.Wrap(errors.ErrCodeDeploy, "failed to ensure namespace", err)
	}

	if err := d.applyPullSecret(ctx, ns, regCreds); err != nil {
		return errors.Wrap(errors.ErrCodeDeploy, "failed to apply registry pull secret", err)
	}

	if err := d.applyWorkload(ctx, m); err != nil {
		return err
	}

	slog.Info("waiting for rollout", "deployment", m.Deployment.Name, "namespace", ns, "timeout", d.RolloutTimeout)
	if err := d.waitForRollout(ctx, m.Deployment.Name, ns); err != nil {
		return err
	}

	slog.Info("rollout complete", "deployment", m.Deployment.Name, "namespace", ns)
	return nil
}

// ensureNamespace creates the namespace if absent. Already existing is not
// an error: namespaces are shared across runs of the same project.
func (d *Deployer) ensureNamespace(ctx context.Context, ns *corev1.Namespace) error {
	_, err := d.clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// applyPullSecret creates or overwrites the registry credential secret.
// Re-applying with new credentials must replace the old ones, never
// produce a second secret.
func (d *Deployer) applyPullSecret(ctx context.Context, namespace string, c creds.Registry) error {
	secret, err := pullSecret(namespace, c)
	if err != nil {
		return err
	}

	secrets := d.clientset.CoreV1().Secrets(namespace)
	if _, err := secrets.Create(ctx, secret, metav1.CreateOptions{}); err != nil {
		if !apierrors.IsAlreadyExists(err) {
			return err
		}
		if _, err := secrets.Update(ctx, secret, metav1.UpdateOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// applyWorkload applies deployment, service, and ingress in manifest order,
// updating resources that already exist.
func (d *Deployer) applyWorkload(ctx context.Context, m *artifact.ManifestSet) error {
	ns := m.Namespace.Name

	deployments := d.clientset.AppsV1().Deployments(ns)
	if _, err := deployments.Create(ctx, m.Deployment, metav1.CreateOptions{}); err != nil {
		if !apierrors.IsAlreadyExists(err) {
			return errors.Wrap(errors.ErrCodeDeploy, "failed to apply deployment", err)
		}
		if _, err := deployments.Update(ctx, m.Deployment, metav1.UpdateOptions{}); err != nil {
			return errors.Wrap(errors.ErrCodeDeploy, "failed to update deployment", err)
		}
	}

	services := d.clientset.CoreV1().Services(ns)
	if _, err := services.Create(ctx, m.Service, metav1.CreateOptions{}); err != nil {
		if !apierrors.IsAlreadyExists(err) {
			return errors.Wrap(errors.ErrCodeDeploy, "failed to apply service", err)
		}
		existing, getErr := services.Get(ctx, m.Service.Name, metav1.GetOptions{})
		if getErr != nil {
			return errors.Wrap(errors.ErrCodeDeploy, "failed to read existing service", getErr)
		}
		// ClusterIP is immutable; carry it over on update.
		updated := m.Service.DeepCopy()
		updated.ResourceVersion = existing.ResourceVersion
		updated.Spec.ClusterIP = existing.Spec.ClusterIP
		if _, err := services.Update(ctx, updated, metav1.UpdateOptions{}); err != nil {
			return errors.Wrap(errors.ErrCodeDeploy, "failed to update service", err)
		}
	}

	ingresses := d.clientset.NetworkingV1().Ingresses(ns)
	if _, err := ingresses.Create(ctx, m.Ingress, metav1.CreateOptions{}); err != nil {
		if !apierrors.IsAlreadyExists(err) {
			return errors.Wrap(errors.ErrCodeDeploy, "failed to apply ingress", err)
		}
		if _, err := ingresses.Update(ctx, m.Ingress, metav1.UpdateOptions{}); err != nil {
			return errors.Wrap(errors.ErrCodeDeploy, "failed to update ingress", err)
		}
	}

	return nil
}

// waitForRollout blocks until the deployment reports the new generation
// fully available, or the deadline passes.
func (d *Deployer) waitForRollout(ctx context.Context, name, namespace string) error {
	err := wait.PollUntilContextTimeout(ctx, d.PollInterval, d.RolloutTimeout, true,
		func(ctx context.Context) (bool, error) {
			dep, err := d.clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
			if err != nil {
				return false, err
			}

			if dep.Generation > dep.Status.ObservedGeneration {
				return false, nil
			}
			want := int32(1)
			if dep.Spec.Replicas != nil {
				want = *dep.Spec.Replicas
			}
			done := dep.Status.UpdatedReplicas == want &&
				dep.Status.AvailableReplicas == want &&
				dep.Status.UnavailableReplicas == 0
			return done, nil
		},
	)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeDeploy,
			fmt.Sprintf("rollout of %s/%s did not complete within %s", namespace, name, d.RolloutTimeout),
			err, map[string]any{"deployment": name, "namespace": namespace})
	}
	return nil
}

// pullSecret builds a dockerconfigjson secret for the registry.
func pullSecret(namespace string, c creds.Registry) (*corev1.Secret, error) {
	cfg := map[string]any{
		"auths": map[string]any{
			c.Server: map[string]string{
				"username": c.Username,
				"password": c.Password,
				"auth":     base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password)),
			},
		},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      artifact.PullSecretName,
			Namespace: namespace,
		},
		Type: corev1.SecretTypeDockerConfigJson,
		Data: map[string][]byte{
			corev1.DockerConfigJsonKey: data,
		},
	}, nil
}
