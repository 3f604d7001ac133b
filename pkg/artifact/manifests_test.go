package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"

	"github.com/AmartiSamia/deploykit/pkg/detect"
	"github.com/AmartiSamia/deploykit/pkg/params"
)

func testParams() *params.RunParameters {
	return &params.RunParameters{
		RepoURL:       "https://example.com/demo.git",
		Project:       "demo",
		IngressDomain: "apps.example.com",
	}
}

func TestGenerateManifestsShape(t *testing.T) {
	m := GenerateManifests(testParams(), detect.KindNode, "registry.example.com/demo:42")

	require.NotNil(t, m.Namespace)
	require.NotNil(t, m.Deployment)
	require.NotNil(t, m.Service)
	require.NotNil(t, m.Ingress)

	assert.Equal(t, "demo-dev", m.Namespace.Name)
	assert.Equal(t, "demo-dev", m.Deployment.Namespace)

	// Workload shape
	require.NotNil(t, m.Deployment.Spec.Replicas)
	assert.Equal(t, int32(2), *m.Deployment.Spec.Replicas)
	ru := m.Deployment.Spec.Strategy.RollingUpdate
	require.NotNil(t, ru)
	assert.Equal(t, 0, ru.MaxUnavailable.IntValue())
	assert.Equal(t, 1, ru.MaxSurge.IntValue())

	require.Len(t, m.Deployment.Spec.Template.Spec.Containers, 1)
	c := m.Deployment.Spec.Template.Spec.Containers[0]
	assert.Equal(t, "registry.example.com/demo:42", c.Image)
	assert.Equal(t, int32(3000), c.Ports[0].ContainerPort)
	assert.Equal(t, int32(10), c.ReadinessProbe.InitialDelaySeconds)
	assert.Equal(t, int32(5), c.ReadinessProbe.PeriodSeconds)
	assert.Equal(t, int32(30), c.LivenessProbe.InitialDelaySeconds)
	assert.Equal(t, int32(10), c.LivenessProbe.PeriodSeconds)
	assert.False(t, c.Resources.Requests.Cpu().IsZero())
	assert.False(t, c.Resources.Limits.Memory().IsZero())

	// Pull secret reference
	require.Len(t, m.Deployment.Spec.Template.Spec.ImagePullSecrets, 1)
	assert.Equal(t, PullSecretName, m.Deployment.Spec.Template.Spec.ImagePullSecrets[0].Name)

	// Service routes 80 to the kind port
	assert.Equal(t, corev1.ServiceTypeClusterIP, m.Service.Spec.Type)
	assert.Equal(t, int32(80), m.Service.Spec.Ports[0].Port)
	assert.Equal(t, int32(3000), m.Service.Spec.Ports[0].TargetPort.IntVal)

	// Deterministic host from project name
	require.Len(t, m.Ingress.Spec.Rules, 1)
	assert.Equal(t, "demo.apps.example.com", m.Ingress.Spec.Rules[0].Host)
}

func TestGenerateManifestsKindPorts(t *testing.T) {
	tests := []struct {
		kind detect.Kind
		port int32
	}{
		{detect.KindNode, 3000},
		{detect.KindJVM, 8080},
		{detect.KindPython, 8000},
		{detect.KindStatic, 80},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			m := GenerateManifests(testParams(), tt.kind, "img:1")
			c := m.Deployment.Spec.Template.Spec.Containers[0]
			assert.Equal(t, tt.port, c.Ports[0].ContainerPort)
			assert.Equal(t, tt.port, m.Service.Spec.Ports[0].TargetPort.IntVal)
		})
	}
}

func TestGenerateManifestsDeterministic(t *testing.T) {
	a := GenerateManifests(testParams(), detect.KindPython, "registry.example.com/demo:7")
	b := GenerateManifests(testParams(), detect.KindPython, "registry.example.com/demo:7")

	assert.Equal(t, a, b)

	ya, err := a.RenderYAML()
	require.NoError(t, err)
	yb, err := b.RenderYAML()
	require.NoError(t, err)
	assert.Equal(t, ya, yb, "identical inputs must render byte-identical YAML")
}

func TestOrderedApplyOrder(t *testing.T) {
	m := GenerateManifests(testParams(), detect.KindStatic, "img:1")
	objs := m.Ordered()

	require.Len(t, objs, 4)
	assert.Same(t, m.Namespace, objs[0])
	assert.Same(t, m.Deployment, objs[1])
	assert.Same(t, m.Service, objs[2])
	assert.Same(t, m.Ingress, objs[3])
}

func TestRenderYAMLContainsDocuments(t *testing.T) {
	m := GenerateManifests(testParams(), detect.KindStatic, "img:1")
	out, err := m.RenderYAML()
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "kind: Namespace")
	assert.Contains(t, s, "kind: Deployment")
	assert.Contains(t, s, "kind: Service")
	assert.Contains(t, s, "kind: Ingress")
}
