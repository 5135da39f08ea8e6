package core

import "fmt"

// AuthError is the one user-visible failure in the core: the authentication
// authority rejected a subscription, or could not be reached at all. Status
// carries the authority's numeric code, zero when no response was received.
type AuthError struct {
	Reason string
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("subscription rejected: %s (status %d)", e.Reason, e.Status)
}
