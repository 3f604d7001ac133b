// Package k8s provides Kubernetes integration for deploykit.
//
// The client sub-package builds an authenticated clientset, detecting
// whether the process runs in-cluster (service account) or out-of-cluster
// (kubeconfig file):
//
//	clientset, config, err := client.BuildKubeClient(kubeconfig)
//	if err != nil {
//	    return err
//	}
//
// Cluster-side deployment logic lives in the cluster package, which takes
// the clientset produced here.
package k8s
