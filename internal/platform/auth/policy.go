package auth

const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleReader    = "reader"
)

// Allowed is the authorization policy: admin satisfies any requirement,
// otherwise the role must match exactly.
func Allowed(role, required string) bool {
	return role == RoleAdmin || role == required
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLibrarian, RoleReader:
		return true
	}
	return false
}
