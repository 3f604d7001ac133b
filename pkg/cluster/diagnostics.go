package cluster

import (
	"context"
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/AmartiSamia/deploykit/pkg/k8s/client"
)

const maxDiagnosticEvents = 20

// Diagnostics is a point-in-time snapshot of deployment health, collected
// after a deploy failure to make the failure report actionable.
type Diagnostics struct {
	Deployment string   `json:"deployment" yaml:"deployment"`
	Namespace  string   `json:"namespace" yaml:"namespace"`
	Replicas   string   `json:"replicas" yaml:"replicas"`
	Conditions []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Pods       []string `json:"pods,omitempty" yaml:"pods,omitempty"`
	Events     []string `json:"events,omitempty" yaml:"events,omitempty"`
}

// CollectDiagnostics gathers deployment status, pod states, and recent
// namespace events. It is best effort: lookup failures leave the
// corresponding section empty rather than failing the collection.
func CollectDiagnostics(ctx context.Context, clientset client.Interface, name, namespace string) *Diagnostics {
	d := &Diagnostics{
		Deployment: name,
		Namespace:  namespace,
	}

	if dep, err := clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{}); err == nil {
		want := int32(1)
		if dep.Spec.Replicas != nil {
			want = *dep.Spec.Replicas
		}
		d.Replicas = fmt.Sprintf("%d/%d available, %d updated",
			dep.Status.AvailableReplicas, want, dep.Status.UpdatedReplicas)
		for _, c := range dep.Status.Conditions {
			d.Conditions = append(d.Conditions,
				fmt.Sprintf("%s=%s: %s", c.Type, c.Status, c.Message))
		}
	}

	opts := metav1.ListOptions{LabelSelector: "app=" + name}
	if pods, err := clientset.CoreV1().Pods(namespace).List(ctx, opts); err == nil {
		for _, p := range pods.Items {
			state := string(p.Status.Phase)
			for _, cs := range p.Status.ContainerStatuses {
				if cs.State.Waiting != nil {
					state = fmt.Sprintf("%s (%s)", state, cs.State.Waiting.Reason)
					break
				}
			}
			d.Pods = append(d.Pods, fmt.Sprintf("%s: %s", p.Name, state))
		}
	}

	if events, err := clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{}); err == nil {
		items := events.Items
		if len(items) > maxDiagnosticEvents {
			items = items[len(items)-maxDiagnosticEvents:]
		}
		for _, e := range items {
			d.Events = append(d.Events,
				fmt.Sprintf("%s %s/%s: %s", e.Type, e.InvolvedObject.Kind, e.InvolvedObject.Name, e.Message))
		}
	}

	return d
}

// Summary renders the diagnostics as a short human-readable block.
func (d *Diagnostics) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "deployment %s/%s: %s\n", d.Namespace, d.Deployment, d.Replicas)
	for _, c := range d.Conditions {
		fmt.Fprintf(&b, "  condition: %s\n", c)
	}
	for _, p := range d.Pods {
		fmt.Fprintf(&b, "  pod: %s\n", p)
	}
	for _, e := range d.Events {
		fmt.Fprintf(&b, "  event: %s\n", e)
	}
	return b.String()
}
