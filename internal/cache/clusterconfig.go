package cache

// ClusterConfig holds the connection details for one managed cluster,
// mirrored from a ClusterConfig custom resource. The kubeconfig is the raw
// document carried in the resource and is only parsed when a watcher
// (re)connects, so a rotated credential takes effect on the next reconnect.
type ClusterConfig struct {
	Name string

	// Kubeconfig is the raw kubeconfig document for the cluster.
	Kubeconfig []byte
}

// AccessConfig holds one named allow-list of browser origins permitted to
// call the service, mirrored from an AccessConfig custom resource. The CORS
// policy is computed from the union of all AccessConfig allow-lists.
type AccessConfig struct {
	Name string

	AllowedOrigins []string
}
