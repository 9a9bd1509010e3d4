package watcher

import (
	"fmt"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/educates/lookup-service/internal/cache"
)

// restConfigForCluster derives the connection details for a managed cluster
// from its current ClusterConfig. It is called when a watcher (re)starts,
// so a rotated kubeconfig takes effect on the next reconnect rather than
// instantly.
func restConfigForCluster(cluster *cache.ClusterConfig) (*rest.Config, error) {
	if len(cluster.Kubeconfig) == 0 {
		return nil, fmt.Errorf("cluster %q has no kubeconfig", cluster.Name)
	}

	config, err := clientcmd.RESTConfigFromKubeConfig(cluster.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("parsing kubeconfig for cluster %q: %w", cluster.Name, err)
	}

	return config, nil
}
