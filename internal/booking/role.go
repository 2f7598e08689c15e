package booking

// Role is the closed set of user roles known to the booking core.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLecturer Role = "lecturer"
	RoleStudent  Role = "student"
)

// IsValid reports whether the role is one of the known variants.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleLecturer, RoleStudent:
		return true
	}
	return false
}

// Actor identifies the authenticated user invoking a core operation. The
// core trusts these values as supplied by the identity layer.
type Actor struct {
	UserID string
	Role   Role
}

// Action names a core operation subject to the capability table.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// capabilities is the per-action role table. Cancel additionally requires
// the actor to be the requester unless they are an admin; that ownership
// check happens where the occurrence is known.
var capabilities = map[Action]map[Role]bool{
	ActionSubmit:  {RoleAdmin: true, RoleLecturer: true, RoleStudent: true},
	ActionApprove: {RoleAdmin: true},
	ActionReject:  {RoleAdmin: true},
	ActionCancel:  {RoleAdmin: true, RoleLecturer: true, RoleStudent: true},
}

// Allowed reports whether the role may perform the action at all.
func Allowed(role Role, action Action) bool {
	return capabilities[action][role]
}
