package broker

import (
	"context"
	"sort"

	"github.com/educates/lookup-service/internal/cache"
	"github.com/educates/lookup-service/internal/portal"
)

// SessionRequestOptions carries everything a client supplies when requesting
// a workshop session.
type SessionRequestOptions struct {
	TenantName   string
	WorkshopName string

	// UserID is the identity the session is bound to. When the user
	// already holds a session for the workshop anywhere, that session is
	// reacquired instead of allocating a new one.
	UserID string

	// ActionID is supplied by the client for its own correlation. It is
	// only logged.
	ActionID string

	// IndexURL is where the user is sent when their session ends.
	IndexURL string

	UserEmail     string
	UserFirstName string
	UserLastName  string

	Parameters []portal.SessionParameter

	AnalyticsURL string
}

// candidate pairs an environment with its hosting portal for ranking and
// allocation.
type candidate struct {
	environment *cache.Environment
	portal      *cache.Portal
}

// RequestSession finds or allocates a workshop session for the client. The
// search prefers reacquiring an existing session held by the user, then
// walks ranked candidate environments issuing allocation requests one at a
// time until one succeeds. Allocation is best effort: there is no
// cross-cluster reservation, and a candidate that fails is skipped rather
// than retried.
func (b *Broker) RequestSession(ctx context.Context, client *cache.ClientConfig, opts *SessionRequestOptions) (*portal.SessionDetails, error) {
	logger := b.logger.With(
		"client", client.Name,
		"tenant", opts.TenantName,
		"workshop", opts.WorkshopName,
		"user", opts.UserID,
		"action", opts.ActionID,
	)

	logger.Info("workshop session request")

	// A user keeps access to a session they already hold even when tenant
	// policy has since changed, so the reuse scan runs before any input or
	// access checks and is not filtered by tenant accessibility.
	for _, session := range b.state.SessionsForUser(opts.UserID, opts.WorkshopName) {
		hosting, ok := b.state.PortalDatabase.Get(session.PortalKey())
		if !ok {
			continue
		}

		details, err := b.portals.ReacquireWorkshopSession(ctx, hosting, session.Name, opts.IndexURL)
		if err != nil {
			logger.Warn("failed to reacquire existing session",
				"session", session.Name, "portal", hosting.Name, "error", err)
			continue
		}

		details.TenantName = opts.TenantName
		return details, nil
	}

	if opts.TenantName == "" {
		logger.Warn("missing tenant name in session request")
		return nil, &ValidationError{Message: "Missing tenantName"}
	}

	if opts.WorkshopName == "" {
		logger.Warn("missing workshop name in session request")
		return nil, &ValidationError{Message: "Missing workshopName"}
	}

	if !client.AllowedAccessToTenant(opts.TenantName) {
		logger.Warn("client not allowed access to tenant")
		return nil, &AuthorizationError{Message: "Client not allowed access to tenant"}
	}

	tenant, ok := b.state.TenantDatabase.Get(opts.TenantName)
	if !ok {
		logger.Error("configuration for tenant could not be found")
		return nil, &AvailabilityError{Message: "Tenant not available"}
	}

	var selectedPortals []*cache.Portal
	for _, p := range tenant.PortalsWhichAreAccessible(b.state) {
		if b.state.PortalHostsWorkshop(p.Key(), opts.WorkshopName) {
			selectedPortals = append(selectedPortals, p)
		}
	}

	if len(selectedPortals) == 0 {
		logger.Warn("workshop not hosted by any portal accessible to tenant")
		return nil, &AvailabilityError{Message: "Workshop not available"}
	}

	var candidates []candidate
	for _, p := range selectedPortals {
		for _, environment := range b.state.RunningEnvironmentsForPortal(p.Key()) {
			if environment.Workshop == opts.WorkshopName {
				candidates = append(candidates, candidate{environment: environment, portal: p})
			}
		}
	}

	if len(candidates) == 0 {
		logger.Warn("no running environments for workshop")
		return nil, &AvailabilityError{Message: "Workshop not available"}
	}

	sortCandidates(candidates)

	request := &portal.SessionRequest{
		UserID:        opts.UserID,
		UserEmail:     opts.UserEmail,
		UserFirstName: opts.UserFirstName,
		UserLastName:  opts.UserLastName,
		Parameters:    opts.Parameters,
		IndexURL:      opts.IndexURL,
		AnalyticsURL:  opts.AnalyticsURL,
	}

	for _, c := range candidates {
		details, err := b.portals.RequestWorkshopSession(ctx, c.portal, c.environment, request)
		if err != nil {
			logger.Warn("failed to allocate session from environment",
				"environment", c.environment.Name, "portal", c.portal.Name, "error", err)
			continue
		}

		details.TenantName = opts.TenantName
		return details, nil
	}

	logger.Warn("no capacity for workshop session")
	return nil, &AvailabilityError{Message: "Workshop not available"}
}

// candidateScore computes the composite ranking key for an environment.
// Levels are compared lexicographically, highest first:
//
//  1. whether the hosting portal has any room at all
//  2. whether the environment itself has any room at all
//  3. portal headroom alongside the environment's reserved sessions
//     currently available
//  4. portal headroom alongside the environment's raw remaining capacity
//
// Headroom of an uncapped portal or environment counts as a single spare
// slot so that explicitly capped candidates with real room rank ahead of
// uncapped ones at the same level.
func candidateScore(c candidate) [6]int {
	var score [6]int

	if c.portal.HasCapacityRemaining() {
		score[0] = 1
	}

	if c.environment.HasCapacityRemaining() {
		score[1] = 1
	}

	score[2] = c.portal.CapacityRemaining()
	score[3] = c.environment.Available

	score[4] = c.portal.CapacityRemaining()
	score[5] = c.environment.CapacityRemaining()

	return score
}

// sortCandidates orders candidates so the best allocation target comes
// first. The sort is stable so equally scored environments keep their
// cache order.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidateScore(candidates[i]), candidateScore(candidates[j])
		for level := range a {
			if a[level] != b[level] {
				return a[level] > b[level]
			}
		}
		return false
	})
}
