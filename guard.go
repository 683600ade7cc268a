package auth

// Authorize checks the resolved session's role against the allowed set. It
// is a pure function that runs strictly after the verifier reached
// StateAuthenticated; with no session the verifier has already rejected
// the request and the guard is unreachable.
func Authorize(record *SessionRecord, allowed ...UserRole) error {
	if record == nil {
		return ErrMissingCredential
	}

	for _, role := range allowed {
		if record.User.Role == role {
			return nil
		}
	}

	return forbiddenRole(record.User.Role)
}
