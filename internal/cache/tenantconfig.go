package cache

import "github.com/gobwas/glob"

// TenantConfig holds the configuration for one tenant, mirrored from a
// TenantConfig custom resource. The pattern lists select which clusters and
// portals the tenant may use. An empty pattern list matches everything.
type TenantConfig struct {
	Name string

	// Clusters is a list of glob patterns matched against cluster names.
	Clusters []string

	// Portals is a list of glob patterns matched against portal names.
	Portals []string
}

func matchesAnyPattern(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if g.Match(name) {
			return true
		}
	}
	return false
}

// AllowsCluster reports whether the tenant may use portals on the named
// cluster.
func (t *TenantConfig) AllowsCluster(cluster string) bool {
	return matchesAnyPattern(cluster, t.Clusters)
}

// AllowsPortal reports whether the tenant may use the named portal.
func (t *TenantConfig) AllowsPortal(portal string) bool {
	return matchesAnyPattern(portal, t.Portals)
}

// PortalsWhichAreAccessible computes the set of portals in the portal
// database which this tenant may use. The relationship is computed from the
// pattern lists on every call, never stored.
func (t *TenantConfig) PortalsWhichAreAccessible(state *ServiceState) []*Portal {
	var accessible []*Portal
	for _, portal := range state.PortalDatabase.All() {
		if t.AllowsCluster(portal.Cluster) && t.AllowsPortal(portal.Name) {
			accessible = append(accessible, portal)
		}
	}
	return accessible
}
