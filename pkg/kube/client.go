// Package kube runs aimless jobs as Kubernetes batch Jobs.
package kube

import (
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/quatton/aimless/pkg/aerr"
)

// NewClient builds the clientset for kube.kubeconfig (see GetConfig).
func NewClient(kubeconfig string) (*kubernetes.Clientset, error) {
	config, err := GetConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, aerr.Newf(aerr.CodeConfig, "kube client for %s: %w", config.Host, err)
	}
	return client, nil
}

// GetConfig uses kube.kubeconfig when set. Otherwise a run started inside
// a pod talks to its own cluster, and a run on a login node falls back to
// $KUBECONFIG or ~/.kube/config.
func GetConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		if config, err := rest.InClusterConfig(); err == nil {
			return config, nil
		}
	}
	path, err := kubeconfigPath(kubeconfig)
	if err != nil {
		return nil, err
	}
	config, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, aerr.Newf(aerr.CodeConfig, "kube.kubeconfig %s: %w", path, err)
	}
	return config, nil
}

func kubeconfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(clientcmd.RecommendedConfigPathEnvVar); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", aerr.Newf(aerr.CodeConfig, "no kube.kubeconfig and no home directory: %w", err)
	}
	return filepath.Join(home, clientcmd.RecommendedHomeDir, clientcmd.RecommendedFileName), nil
}
