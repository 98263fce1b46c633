// Package auth holds the pure building blocks of the session system: the
// closed role set with its escalation rule, and the opaque-token codec.
// Nothing in here touches HTTP or the database.
package auth

// Roles form a closed set. SELF is virtual: it is never stored on a user
// and only means "the acting principal owns the addressed resource" when it
// appears in a route's permitted roles.
const (
	RoleAdmin       = "ADMIN"
	RoleContributor = "CONTRIBUTOR"
	RoleSelf        = "SELF"
)

// IsValidRole reports whether role is a member of the closed role set.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleContributor, RoleSelf:
		return true
	}
	return false
}

// IsRoleEscalation decides whether the acting principal may set the target
// user's role to requestedAuth. The rule: granting ADMIN requires already
// holding ADMIN. A CONTRIBUTOR can never hand out ADMIN, neither to another
// user nor to themselves; an ADMIN may assign any role to anyone, including
// demoting themselves. actingEmail/targetEmail are part of the signature so
// the policy can become identity-sensitive without touching call sites.
func IsRoleEscalation(actingAuth, actingEmail, targetEmail, requestedAuth string) bool {
	_ = actingEmail
	_ = targetEmail
	return requestedAuth == RoleAdmin && actingAuth != RoleAdmin
}
