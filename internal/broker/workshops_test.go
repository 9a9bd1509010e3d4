package broker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educates/lookup-service/internal/broker"
	"github.com/educates/lookup-service/internal/cache"
)

func newListingState() *cache.ServiceState {
	state := cache.NewServiceState()

	state.TenantDatabase.Update(&cache.TenantConfig{
		Name:    "team-a",
		Portals: []string{"portal-east"},
	})
	state.TenantDatabase.Update(&cache.TenantConfig{Name: "team-open"})

	state.PortalDatabase.Update(&cache.Portal{
		Name: "portal-east", Cluster: "east", Phase: cache.PortalPhaseRunning})
	state.PortalDatabase.Update(&cache.Portal{
		Name: "portal-west", Cluster: "west", Phase: cache.PortalPhaseRunning})

	state.EnvironmentDatabase.Update(&cache.Environment{
		Name: "env-1", Cluster: "east", Portal: "portal-east",
		Workshop: "lab-intro", Title: "Introduction",
		State: cache.EnvironmentStateRunning,
	})
	state.EnvironmentDatabase.Update(&cache.Environment{
		Name: "env-2", Cluster: "west", Portal: "portal-west",
		Workshop: "lab-advanced", Title: "Advanced",
		State: cache.EnvironmentStateRunning,
	})

	// A second copy of lab-intro elsewhere should not produce a duplicate
	// listing entry.
	state.EnvironmentDatabase.Update(&cache.Environment{
		Name: "env-3", Cluster: "west", Portal: "portal-west",
		Workshop: "lab-intro", Title: "Introduction",
		State: cache.EnvironmentStateRunning,
	})

	// Environments which are not running never appear.
	state.EnvironmentDatabase.Update(&cache.Environment{
		Name: "env-4", Cluster: "east", Portal: "portal-east",
		Workshop: "lab-stopped", State: cache.EnvironmentStateStopping,
	})

	return state
}

func workshopNames(workshops []broker.Workshop) []string {
	names := make([]string, 0, len(workshops))
	for _, workshop := range workshops {
		names = append(names, workshop.Name)
	}
	return names
}

func TestListWorkshopsForTenant(t *testing.T) {
	b := broker.NewBroker(testLogger(), newListingState(), nil)

	workshops, err := b.ListWorkshops("team-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"lab-intro"}, workshopNames(workshops))
	assert.Equal(t, "Introduction", workshops[0].Title)
}

func TestListWorkshopsUnrestrictedTenant(t *testing.T) {
	b := broker.NewBroker(testLogger(), newListingState(), nil)

	workshops, err := b.ListWorkshops("team-open")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lab-intro", "lab-advanced"}, workshopNames(workshops))
}

func TestListWorkshopsAcrossAllPortals(t *testing.T) {
	b := broker.NewBroker(testLogger(), newListingState(), nil)

	workshops, err := b.ListWorkshops("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lab-intro", "lab-advanced"}, workshopNames(workshops))
}

func TestListWorkshopsUnknownTenant(t *testing.T) {
	b := broker.NewBroker(testLogger(), newListingState(), nil)

	_, err := b.ListWorkshops("team-missing")

	var availability *broker.AvailabilityError
	require.ErrorAs(t, err, &availability)
	assert.Equal(t, "Tenant not available", availability.Message)
}

func TestListWorkshopsEmpty(t *testing.T) {
	state := cache.NewServiceState()
	state.TenantDatabase.Update(&cache.TenantConfig{Name: "team-a"})
	b := broker.NewBroker(testLogger(), state, nil)

	workshops, err := b.ListWorkshops("team-a")
	require.NoError(t, err)
	assert.Empty(t, workshops)
}
