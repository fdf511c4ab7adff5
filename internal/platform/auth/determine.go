package auth

import "strings"

// RolePolicy holds the organization-specific inputs of role determination.
type RolePolicy struct {
	// OrgDomain is the organization's email domain; members get super_admin.
	OrgDomain string
	// SuperAdminMarker is a substring of the email or username that marks a
	// super admin account.
	SuperAdminMarker string
}

// adminAliases are usernames that map straight to super_admin.
var adminAliases = map[string]bool{
	"admin":         true,
	"administrator": true,
	"root":          true,
	"sysadmin":      true,
}

// DetermineRole derives a role for an identity whose stored role is missing
// or not a member of the enumeration. The precedence order is fixed:
// org-domain/marker match, then admin alias, then doctor pattern, then
// nurse/staff literal, then an existing valid role, then the doctor default.
// The function is deterministic and idempotent.
func DetermineRole(policy RolePolicy, username, email string, current Role) Role {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if policy.OrgDomain != "" && strings.HasSuffix(email, "@"+strings.ToLower(policy.OrgDomain)) {
		return RoleSuperAdmin
	}
	if m := strings.ToLower(policy.SuperAdminMarker); m != "" {
		if strings.Contains(email, m) || strings.Contains(username, m) {
			return RoleSuperAdmin
		}
	}

	if adminAliases[username] {
		return RoleSuperAdmin
	}

	if username == "doctor" || strings.HasPrefix(username, "dr.") || strings.HasPrefix(username, "dr_") {
		return RoleDoctor
	}

	if username == "nurse" {
		return RoleNurse
	}
	if username == "staff" {
		return RoleStaff
	}

	if ValidRole(current) {
		return current
	}

	return RoleDoctor
}

// RepairRole returns the stored role when valid, otherwise derives one. The
// "unknown" sentinels written by older clients count as missing.
func RepairRole(policy RolePolicy, username, email string, stored Role) Role {
	switch stored {
	case "", "unknown", "Unknown User":
		return DetermineRole(policy, username, email, "")
	}
	if !ValidRole(stored) {
		return DetermineRole(policy, username, email, "")
	}
	return stored
}

// DisplayName resolves a user-facing name: explicit name, then username, then
// the local part of the email, then a generic fallback.
func DisplayName(name, username, email string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	if strings.TrimSpace(username) != "" {
		return username
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return "User"
}
