// Package broker decides which concrete workshop environment should service
// an incoming session request. It reads only through the in-memory caches
// kept by the reconciliation watchers and drives remote allocation calls
// through the portal client.
package broker

import (
	"log/slog"

	"github.com/educates/lookup-service/internal/cache"
	"github.com/educates/lookup-service/internal/portal"
)

// Workshop is one entry in a workshop listing.
type Workshop struct {
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Labels      map[string]string `json:"labels"`
}

// Broker implements the workshop listing and session scheduling operations.
type Broker struct {
	logger  *slog.Logger
	state   *cache.ServiceState
	portals portal.Client
}

func NewBroker(logger *slog.Logger, state *cache.ServiceState, portals portal.Client) *Broker {
	return &Broker{
		logger:  logger,
		state:   state,
		portals: portals,
	}
}

// ListWorkshops returns the workshops currently available to the named
// tenant, or across every cluster when no tenant name is given. The list is
// de-duplicated by workshop name; when multiple environments run the same
// workshop the metadata of the last one seen wins, so portals are expected
// to keep these consistent.
func (b *Broker) ListWorkshops(tenantName string) ([]Workshop, error) {
	var accessiblePortals []*cache.Portal

	if tenantName != "" {
		tenant, ok := b.state.TenantDatabase.Get(tenantName)
		if !ok {
			return nil, &AvailabilityError{Message: "Tenant not available"}
		}
		accessiblePortals = tenant.PortalsWhichAreAccessible(b.state)
	} else {
		accessiblePortals = b.state.PortalDatabase.All()
	}

	index := make(map[string]Workshop)
	var order []string

	for _, p := range accessiblePortals {
		for _, environment := range b.state.RunningEnvironmentsForPortal(p.Key()) {
			if _, seen := index[environment.Workshop]; !seen {
				order = append(order, environment.Workshop)
			}
			index[environment.Workshop] = Workshop{
				Name:        environment.Workshop,
				Title:       environment.Title,
				Description: environment.Description,
				Labels:      environment.Labels,
			}
		}
	}

	workshops := make([]Workshop, 0, len(order))
	for _, name := range order {
		workshops = append(workshops, index[name])
	}

	return workshops, nil
}
