package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseUpdateThenGet(t *testing.T) {
	database := NewDatabase(func(t *TenantConfig) string { return t.Name })

	tenant := &TenantConfig{Name: "team-a", Portals: []string{"*"}}
	database.Update(tenant)

	found, ok := database.Get("team-a")
	require.True(t, ok)
	assert.Same(t, tenant, found)
}

func TestDatabaseUpdateReplacesWholesale(t *testing.T) {
	database := NewDatabase(func(t *TenantConfig) string { return t.Name })

	database.Update(&TenantConfig{Name: "team-a", Portals: []string{"first-*"}})
	database.Update(&TenantConfig{Name: "team-a", Portals: []string{"second-*"}})

	found, ok := database.Get("team-a")
	require.True(t, ok)
	assert.Equal(t, []string{"second-*"}, found.Portals)
	assert.Equal(t, 1, database.Len())
}

func TestDatabaseRemoveAbsentKey(t *testing.T) {
	database := NewDatabase(func(t *TenantConfig) string { return t.Name })

	database.Update(&TenantConfig{Name: "team-a"})

	// Removing a key that was never added must not disturb anything else.
	database.Remove("no-such-tenant")

	_, ok := database.Get("team-a")
	assert.True(t, ok)
	assert.Equal(t, 1, database.Len())
}

func TestDatabaseRemove(t *testing.T) {
	database := NewDatabase(func(t *TenantConfig) string { return t.Name })

	database.Update(&TenantConfig{Name: "team-a"})
	database.Remove("team-a")

	_, ok := database.Get("team-a")
	assert.False(t, ok)
	assert.Equal(t, 0, database.Len())
}

func TestDatabaseAll(t *testing.T) {
	database := NewDatabase(func(t *TenantConfig) string { return t.Name })

	for i := 0; i < 5; i++ {
		database.Update(&TenantConfig{Name: fmt.Sprintf("team-%d", i)})
	}

	names := make(map[string]bool)
	for _, tenant := range database.All() {
		names[tenant.Name] = true
	}

	assert.Len(t, names, 5)
}

func TestDatabaseConcurrentReadersAndWriter(t *testing.T) {
	database := NewDatabase(func(t *TenantConfig) string { return t.Name })

	var group sync.WaitGroup

	group.Add(1)
	go func() {
		defer group.Done()
		for i := 0; i < 1000; i++ {
			database.Update(&TenantConfig{Name: fmt.Sprintf("team-%d", i%10)})
			database.Remove(fmt.Sprintf("team-%d", (i+5)%10))
		}
	}()

	for reader := 0; reader < 4; reader++ {
		group.Add(1)
		go func() {
			defer group.Done()
			for i := 0; i < 1000; i++ {
				database.Get("team-3")
				database.All()
			}
		}()
	}

	group.Wait()
}
