package broker

// ValidationError reports a missing or malformed required input. Mapped to
// a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthorizationError reports a role or tenant-access mismatch. Mapped to a
// 403 response.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// AvailabilityError reports that a tenant, workshop or environment is not
// currently available. Mapped to a 503 response rather than a 404: the
// condition is transient and the caller should retry later.
type AvailabilityError struct {
	Message string
}

func (e *AvailabilityError) Error() string {
	return e.Message
}
