package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/educates/lookup-service/internal/cache"
)

func capacity(v int) *int {
	return &v
}

func named(candidates []candidate) []string {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.environment.Name)
	}
	return names
}

func TestSortCandidates(t *testing.T) {
	openPortal := &cache.Portal{Name: "portal-open", Cluster: "east",
		Capacity: capacity(5), Allocated: 3}
	fullPortal := &cache.Portal{Name: "portal-full", Cluster: "east",
		Capacity: capacity(5), Allocated: 5}
	uncappedPortal := &cache.Portal{Name: "portal-uncapped", Cluster: "east"}

	tests := []struct {
		name       string
		candidates []candidate
		want       []string
	}{
		{
			name: "portal with room beats full portal",
			candidates: []candidate{
				{environment: &cache.Environment{Name: "on-full"}, portal: fullPortal},
				{environment: &cache.Environment{Name: "on-open"}, portal: openPortal},
			},
			want: []string{"on-open", "on-full"},
		},
		{
			name: "environment with room beats full environment",
			candidates: []candidate{
				{
					environment: &cache.Environment{Name: "env-full", Capacity: capacity(4), Allocated: 4},
					portal:      openPortal,
				},
				{
					environment: &cache.Environment{Name: "env-open", Capacity: capacity(4), Allocated: 2},
					portal:      openPortal,
				},
			},
			want: []string{"env-open", "env-full"},
		},
		{
			name: "available reserved sessions break ties",
			candidates: []candidate{
				{
					environment: &cache.Environment{Name: "env-cold", Capacity: capacity(4), Allocated: 1},
					portal:      openPortal,
				},
				{
					environment: &cache.Environment{Name: "env-warm", Capacity: capacity(4), Allocated: 1,
						Reserved: 2, Available: 2},
					portal: openPortal,
				},
			},
			want: []string{"env-warm", "env-cold"},
		},
		{
			name: "declared headroom beats uncapped sentinel",
			candidates: []candidate{
				{environment: &cache.Environment{Name: "on-uncapped"}, portal: uncappedPortal},
				{environment: &cache.Environment{Name: "on-capped"}, portal: openPortal},
			},
			want: []string{"on-capped", "on-uncapped"},
		},
		{
			name: "raw remaining capacity is the last resort",
			candidates: []candidate{
				{
					environment: &cache.Environment{Name: "env-tight", Capacity: capacity(4), Allocated: 3},
					portal:      openPortal,
				},
				{
					environment: &cache.Environment{Name: "env-roomy", Capacity: capacity(4), Allocated: 1},
					portal:      openPortal,
				},
			},
			want: []string{"env-roomy", "env-tight"},
		},
		{
			name: "equal scores keep cache order",
			candidates: []candidate{
				{environment: &cache.Environment{Name: "env-a", Capacity: capacity(4), Allocated: 2}, portal: openPortal},
				{environment: &cache.Environment{Name: "env-b", Capacity: capacity(4), Allocated: 2}, portal: openPortal},
			},
			want: []string{"env-a", "env-b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sortCandidates(tt.candidates)
			assert.Equal(t, tt.want, named(tt.candidates))
		})
	}
}

func TestCandidateScoreUncappedSentinel(t *testing.T) {
	c := candidate{
		environment: &cache.Environment{Name: "env"},
		portal:      &cache.Portal{Name: "portal", Cluster: "east"},
	}

	assert.Equal(t, [6]int{1, 1, 1, 0, 1, 1}, candidateScore(c))
}
