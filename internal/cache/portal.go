package cache

import "k8s.io/apimachinery/pkg/types"

// Portal phase values mirrored from the remote resource status.
const (
	PortalPhaseRunning = "Running"
)

// Environment state values mirrored from the remote resource status.
const (
	EnvironmentStateRunning  = "Running"
	EnvironmentStateStopping = "Stopping"
)

// PortalCredentials are the robot-account credentials used to call a
// training portal's own REST API when allocating sessions.
type PortalCredentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Portal is the mirror of one training portal hosted on a managed cluster.
// Portal names are only unique within a cluster so records are keyed by
// cluster and name.
type Portal struct {
	Name    string
	Cluster string

	UID        types.UID
	Generation int64

	// URL is the external address of the portal's REST API.
	URL string

	Credentials PortalCredentials

	// Capacity is the maximum number of sessions the portal will host, or
	// nil when unlimited. Allocated is the current count.
	Capacity  *int
	Allocated int

	Phase string
}

// Key returns the portal database key for the portal.
func (p *Portal) Key() string {
	return p.Cluster + "/" + p.Name
}

// HasCapacityRemaining reports whether the portal can host at least one
// more session. A portal without a capacity ceiling always has room.
func (p *Portal) HasCapacityRemaining() bool {
	if p.Capacity == nil {
		return true
	}
	return *p.Capacity-p.Allocated > 0
}

// CapacityRemaining returns the number of free session slots on the portal.
// A portal without a capacity ceiling is treated as having exactly one
// spare slot so that portals which declare real headroom win ranking ties.
func (p *Portal) CapacityRemaining() int {
	if p.Capacity == nil {
		return 1
	}
	return *p.Capacity - p.Allocated
}

// Environment is the mirror of one workshop environment hosted by a portal.
type Environment struct {
	Name    string
	Cluster string

	// Portal is the name of the owning portal on the same cluster.
	Portal string

	// Workshop is the name of the workshop the environment runs.
	Workshop string

	Title       string
	Description string
	Labels      map[string]string

	Capacity  *int
	Allocated int

	// Reserved is the number of pre-warmed sessions the portal tries to
	// keep ready. Available is how many of those are currently unallocated.
	Reserved  int
	Available int

	State string
}

func (e *Environment) Key() string {
	return e.Cluster + "/" + e.Name
}

// PortalKey returns the portal database key of the owning portal.
func (e *Environment) PortalKey() string {
	return e.Cluster + "/" + e.Portal
}

// IsRunning reports whether the environment is accepting new sessions.
func (e *Environment) IsRunning() bool {
	return e.State == EnvironmentStateRunning
}

// HasCapacityRemaining reports whether the environment can host at least
// one more session.
func (e *Environment) HasCapacityRemaining() bool {
	if e.Capacity == nil {
		return true
	}
	return *e.Capacity-e.Allocated > 0
}

// CapacityRemaining returns the number of free session slots in the
// environment, with the same single-slot sentinel as portals when no
// capacity ceiling is set.
func (e *Environment) CapacityRemaining() int {
	if e.Capacity == nil {
		return 1
	}
	return *e.Capacity - e.Allocated
}

// Session is the mirror of one allocated workshop session. The session
// lifecycle is owned by the per-cluster session controller; the lookup
// service only tracks enough to find an existing session for a user.
type Session struct {
	Name    string
	Cluster string

	Portal      string
	Environment string
	Workshop    string

	// User is the id of the user the session is allocated to.
	User string
}

func (s *Session) Key() string {
	return s.Cluster + "/" + s.Name
}

// PortalKey returns the portal database key of the owning portal.
func (s *Session) PortalKey() string {
	return s.Cluster + "/" + s.Portal
}
