package educontent

import "github.com/google/uuid"

// Action is an operation guarded by the access control policy.
type Action string

const (
	ActionReadDraft Action = "read_draft"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
)

// Decision is the outcome of a policy evaluation.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Decide evaluates whether actor may perform action on c. The owner of a
// record and admins are allowed every action; everyone else, including the
// anonymous nil actor, is denied. Reading a published record never consults
// the policy.
func Decide(actor *Actor, c *Content, action Action) Decision {
	if actor == nil || c == nil {
		return Deny
	}
	switch action {
	case ActionReadDraft, ActionUpdate, ActionDelete:
	default:
		return Deny
	}
	if actor.Role == RoleAdmin {
		return Allow
	}
	if actor.UserID != uuid.Nil && actor.UserID == c.OwnerID {
		return Allow
	}
	return Deny
}
