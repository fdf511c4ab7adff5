package auth

// Role is the closed set of user roles. Role strings are stored on user
// records and embedded in session tokens.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleAdmin           Role = "admin"
	RoleDoctor          Role = "doctor"
	RoleMedicalProvider Role = "medical_provider"
	RoleNurse           Role = "nurse"
	RoleStaff           Role = "staff"
	RoleSupportStaff    Role = "support_staff"
)

// Action names a capability a role may hold.
type Action string

const (
	ActionScribe         Action = "scribe"
	ActionTraining       Action = "training"
	ActionAddPatients    Action = "add_patients"
	ActionEditPatients   Action = "edit_patients"
	ActionDeletePatients Action = "delete_patients"
	ActionManageUsers    Action = "manage_users"
	ActionReadAllNotes   Action = "read_all_notes"
	ActionReadOwnNotes   Action = "read_own_notes"
	ActionEditOwnNotes   Action = "edit_own_notes"
)

// permissions is the fixed role-to-action table. Note the asymmetry between
// doctor (broad clinical plus patient-admin rights) and medical_provider
// (scribe/training/own-notes only); the two are distinct roles, not aliases.
var permissions = map[Role]map[Action]bool{
	RoleSuperAdmin: {
		ActionScribe:         true,
		ActionTraining:       true,
		ActionAddPatients:    true,
		ActionEditPatients:   true,
		ActionDeletePatients: true,
		ActionManageUsers:    true,
		ActionReadAllNotes:   true,
		ActionReadOwnNotes:   true,
		ActionEditOwnNotes:   true,
	},
	RoleAdmin: {
		ActionScribe:       true,
		ActionTraining:     true,
		ActionAddPatients:  true,
		ActionEditPatients: true,
		ActionManageUsers:  true,
		ActionReadAllNotes: true,
		ActionEditOwnNotes: true,
	},
	RoleDoctor: {
		ActionScribe:         true,
		ActionTraining:       true,
		ActionAddPatients:    true,
		ActionEditPatients:   true,
		ActionDeletePatients: true,
		ActionReadOwnNotes:   true,
		ActionEditOwnNotes:   true,
	},
	RoleMedicalProvider: {
		ActionScribe:       true,
		ActionTraining:     true,
		ActionReadOwnNotes: true,
		ActionEditOwnNotes: true,
	},
	RoleNurse: {
		ActionAddPatients:  true,
		ActionEditPatients: true,
		ActionReadAllNotes: true,
	},
	RoleStaff: {
		ActionAddPatients:  true,
		ActionEditPatients: true,
		ActionReadAllNotes: true,
	},
	RoleSupportStaff: {
		ActionAddPatients:  true,
		ActionReadAllNotes: true,
	},
}

// ValidRole reports whether r is a member of the role enumeration.
func ValidRole(r Role) bool {
	_, ok := permissions[r]
	return ok
}

// HasPermission reports whether role may perform action. Unknown roles and
// unknown actions yield false; the check is pure and has no side effects.
func HasPermission(role Role, action Action) bool {
	return permissions[role][action]
}
