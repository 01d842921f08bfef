package credential

// CountLoginCapable returns the number of credentials in the set that can be
// used to establish a session.
func CountLoginCapable(creds []Credential) int {
	count := 0
	for _, c := range creds {
		if c.IsLoginCapable() {
			count++
		}
	}
	return count
}

// CanRemove reports whether removing candidate from the set would still leave
// the owner able to log in. API keys never gate the login invariant and may
// always be removed. Every removal path must consult this guard.
func CanRemove(creds []Credential, candidate Credential) bool {
	if candidate.IsAPIKey() {
		return true
	}

	remaining := 0
	removed := false
	for _, c := range creds {
		if !removed && c.SameType(candidate) && c.Value == candidate.Value {
			removed = true
			continue
		}
		if c.IsLoginCapable() {
			remaining++
		}
	}
	return remaining >= 1
}
