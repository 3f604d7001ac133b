package artifact

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	"github.com/AmartiSamia/deploykit/pkg/detect"
	"github.com/AmartiSamia/deploykit/pkg/params"
)

// PullSecretName is the registry credential secret referenced by every
// generated workload and applied by the cluster deployer.
const PullSecretName = "deploykit-registry"

// Fixed workload shape. These are deliberate constants, not knobs: every
// deployment the orchestrator produces rolls out the same way.
const (
	replicas = 2

	readinessDelaySeconds  = 10
	readinessPeriodSeconds = 5
	livenessDelaySeconds   = 30
	livenessPeriodSeconds  = 10

	servicePort = 80
)

// ManifestSet is the ordered cluster resource set realizing one deployment.
// It is generated fresh each run and never persisted between runs.
type ManifestSet struct {
	Namespace  *corev1.Namespace
	Deployment *appsv1.Deployment
	Service    *corev1.Service
	Ingress    *netv1.Ingress
}

// GenerateManifests produces the manifest set for a run. It is a pure
// function of its inputs: identical (params, kind, image) yield deeply
// equal objects, with no clock or randomness involved.
func GenerateManifests(p *params.RunParameters, kind detect.Kind, image string) *ManifestSet {
	name := p.Project
	namespace := p.Namespace()
	port := kind.Port()
	labels := map[string]string{
		"app":                          name,
		"app.kubernetes.io/managed-by": "deploykit",
	}

	return &ManifestSet{
		Namespace: &corev1.Namespace{
			TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
			ObjectMeta: metav1.ObjectMeta{
				Name:   namespace,
				Labels: labels,
			},
		},
		Deployment: &appsv1.Deployment{
			TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: namespace,
				Labels:    labels,
			},
			Spec: appsv1.DeploymentSpec{
				Replicas: ptr.To(int32(replicas)),
				Selector: &metav1.LabelSelector{
					MatchLabels: map[string]string{"app": name},
				},
				Strategy: appsv1.DeploymentStrategy{
					Type: appsv1.RollingUpdateDeploymentStrategyType,
					RollingUpdate: &appsv1.RollingUpdateDeployment{
						MaxUnavailable: ptr.To(intstr.FromInt32(0)),
						MaxSurge:       ptr.To(intstr.FromInt32(1)),
					},
				},
				Template: corev1.PodTemplateSpec{
					ObjectMeta: metav1.ObjectMeta{
						Labels: labels,
					},
					Spec: corev1.PodSpec{
						ImagePullSecrets: []corev1.LocalObjectReference{
							{Name: PullSecretName},
						},
						Containers: []corev1.Container{
							{
								Name:  name,
								Image: image,
								Ports: []corev1.ContainerPort{
									{ContainerPort: port},
								},
								ReadinessProbe: &corev1.Probe{
									ProbeHandler: corev1.ProbeHandler{
										HTTPGet: &corev1.HTTPGetAction{
											Path: "/",
											Port: intstr.FromInt32(port),
										},
									},
									InitialDelaySeconds: readinessDelaySeconds,
									PeriodSeconds:       readinessPeriodSeconds,
								},
								LivenessProbe: &corev1.Probe{
									ProbeHandler: corev1.ProbeHandler{
										HTTPGet: &corev1.HTTPGetAction{
											Path: "/",
											Port: intstr.FromInt32(port),
										},
									},
									InitialDelaySeconds: livenessDelaySeconds,
									PeriodSeconds:       livenessPeriodSeconds,
								},
								Resources: corev1.ResourceRequirements{
									Requests: corev1.ResourceList{
										corev1.ResourceCPU:    resource.MustParse("100m"),
										corev1.ResourceMemory: resource.MustParse("128Mi"),
									},
									Limits: corev1.ResourceList{
										corev1.ResourceCPU:    resource.MustParse("500m"),
										corev1.ResourceMemory: resource.MustParse("512Mi"),
									},
								},
							},
						},
					},
				},
			},
		},
		Service: &corev1.Service{
			TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: namespace,
				Labels:    labels,
			},
			Spec: corev1.ServiceSpec{
				Type:     corev1.ServiceTypeClusterIP,
				Selector: map[string]string{"app": name},
				Ports: []corev1.ServicePort{
					{
						Port:       servicePort,
						TargetPort: intstr.FromInt32(port),
					},
				},
			},
		},
		Ingress: &netv1.Ingress{
			TypeMeta: metav1.TypeMeta{APIVersion: "networking.k8s.io/v1", Kind: "Ingress"},
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: namespace,
				Labels:    labels,
			},
			Spec: netv1.IngressSpec{
				Rules: []netv1.IngressRule{
					{
						Host: p.IngressHost(),
						IngressRuleValue: netv1.IngressRuleValue{
							HTTP: &netv1.HTTPIngressRuleValue{
								Paths: []netv1.HTTPIngressPath{
									{
										Path:     "/",
										PathType: ptr.To(netv1.PathTypePrefix),
										Backend: netv1.IngressBackend{
											Service: &netv1.IngressServiceBackend{
												Name: name,
												Port: netv1.ServiceBackendPort{
													Number: servicePort,
												},
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

// Ordered returns the resources in their required apply order.
func (m *ManifestSet) Ordered() []runtime.Object {
	return []runtime.Object{m.Namespace, m.Deployment, m.Service, m.Ingress}
}

// RenderYAML renders the manifest set as a multi-document YAML stream in
// apply order. Rendering is deterministic for identical inputs.
func (m *ManifestSet) RenderYAML() ([]byte, error) {
	var out []byte
	for i, obj := range m.Ordered() {
		doc, err := yaml.Marshal(obj)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			out = append(out, []byte("---\n")...)
		}
		out = append(out, doc...)
	}
	return out, nil
}
