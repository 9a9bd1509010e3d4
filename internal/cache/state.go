package cache

// ServiceState bundles every database the service keeps. One instance is
// constructed at startup and passed by reference into the watchers (which
// write) and the request handlers (which read); nothing reaches for it
// through a global.
type ServiceState struct {
	ClientDatabase      *Database[*ClientConfig]
	TenantDatabase      *Database[*TenantConfig]
	ClusterDatabase     *Database[*ClusterConfig]
	AccessDatabase      *Database[*AccessConfig]
	PortalDatabase      *Database[*Portal]
	EnvironmentDatabase *Database[*Environment]
	SessionDatabase     *Database[*Session]
}

// NewServiceState returns a ServiceState with empty databases.
func NewServiceState() *ServiceState {
	return &ServiceState{
		ClientDatabase:      NewDatabase(func(c *ClientConfig) string { return c.Name }),
		TenantDatabase:      NewDatabase(func(t *TenantConfig) string { return t.Name }),
		ClusterDatabase:     NewDatabase(func(c *ClusterConfig) string { return c.Name }),
		AccessDatabase:      NewDatabase(func(a *AccessConfig) string { return a.Name }),
		PortalDatabase:      NewDatabase(func(p *Portal) string { return p.Key() }),
		EnvironmentDatabase: NewDatabase(func(e *Environment) string { return e.Key() }),
		SessionDatabase:     NewDatabase(func(s *Session) string { return s.Key() }),
	}
}

// AuthenticateClient checks a client's password credentials, returning the
// client when they are valid.
func (s *ServiceState) AuthenticateClient(name, password string) (*ClientConfig, bool) {
	client, ok := s.ClientDatabase.Get(name)
	if !ok {
		return nil, false
	}
	if !client.CheckPassword(password) {
		return nil, false
	}
	return client, true
}

// AllowedOrigins returns the union of the allow-lists of every access
// configuration currently mirrored.
func (s *ServiceState) AllowedOrigins() []string {
	var origins []string
	for _, config := range s.AccessDatabase.All() {
		origins = append(origins, config.AllowedOrigins...)
	}
	return origins
}

// EnvironmentsForPortal returns the environments owned by the portal with
// the given database key.
func (s *ServiceState) EnvironmentsForPortal(portalKey string) []*Environment {
	var environments []*Environment
	for _, environment := range s.EnvironmentDatabase.All() {
		if environment.PortalKey() == portalKey {
			environments = append(environments, environment)
		}
	}
	return environments
}

// RunningEnvironmentsForPortal returns the environments owned by the portal
// which are in a running state.
func (s *ServiceState) RunningEnvironmentsForPortal(portalKey string) []*Environment {
	var environments []*Environment
	for _, environment := range s.EnvironmentsForPortal(portalKey) {
		if environment.IsRunning() {
			environments = append(environments, environment)
		}
	}
	return environments
}

// PortalHostsWorkshop reports whether the portal with the given key hosts a
// running environment for the named workshop.
func (s *ServiceState) PortalHostsWorkshop(portalKey, workshop string) bool {
	for _, environment := range s.RunningEnvironmentsForPortal(portalKey) {
		if environment.Workshop == workshop {
			return true
		}
	}
	return false
}

// SessionsForUser scans every mirrored session for those bound to the given
// user and workshop, regardless of which tenant the hosting portal belongs
// to.
func (s *ServiceState) SessionsForUser(userID, workshop string) []*Session {
	if userID == "" {
		return nil
	}
	var sessions []*Session
	for _, session := range s.SessionDatabase.All() {
		if session.User == userID && session.Workshop == workshop {
			sessions = append(sessions, session)
		}
	}
	return sessions
}
