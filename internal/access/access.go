// Package access decides which caller may mutate which asset or material.
// The policy is a strategy selected by configuration; the lifecycle engine
// only ever calls Check.
package access

import (
	"fmt"

	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/models"
)

// Operation names a guarded lifecycle command.
type Operation string

const (
	OpCreate         Operation = "create"
	OpUpdate         Operation = "update"
	OpCheckout       Operation = "checkout"
	OpCheckin        Operation = "checkin"
	OpUpdateSerial   Operation = "update_serial"
	OpDelete         Operation = "delete"
	OpAdjustMaterial Operation = "adjust_material"
	OpExportAudit    Operation = "export_audit"
)

// Caller is the authenticated identity supplied by the auth layer.
// A zero ID means no identity.
type Caller struct {
	ID   int
	Role models.Role
}

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool {
	return c.ID > 0
}

// Guard is an access policy. ownerID is the owner of the target entity, or 0
// for operations without a target (create, export).
type Guard interface {
	Name() string
	Allow(c Caller, ownerID int, op Operation) bool
}

// Check runs g and converts a denial into a typed error.
func Check(g Guard, c Caller, ownerID int, op Operation) error {
	if !c.Authenticated() {
		return apperr.Unauthorized("authentication required")
	}
	if !g.Allow(c, ownerID, op) {
		return apperr.Forbidden(fmt.Sprintf("not allowed to %s", op))
	}
	return nil
}

// RequireRole fails unless the caller holds at least role. It does not
// consult the configured policy and guards user administration.
func RequireRole(c Caller, role models.Role) error {
	if !c.Authenticated() {
		return apperr.Unauthorized("authentication required")
	}
	if !c.Role.AtLeast(role) {
		return apperr.Forbidden(fmt.Sprintf("requires role %s", role))
	}
	return nil
}

// Open lets any authenticated caller do anything.
type Open struct{}

func (Open) Name() string { return "open" }

func (Open) Allow(Caller, int, Operation) bool { return true }

// OwnerScoped lets anyone create, and restricts every other mutation to the
// entity's owner.
type OwnerScoped struct{}

func (OwnerScoped) Name() string { return "owner" }

func (OwnerScoped) Allow(c Caller, ownerID int, op Operation) bool {
	switch op {
	case OpCreate, OpExportAudit:
		return true
	default:
		return c.ID == ownerID
	}
}

// RoleScoped restricts create and delete to foremen and above. Superintendents
// may act on any entity; everyone else must own it.
type RoleScoped struct{}

func (RoleScoped) Name() string { return "role" }

func (RoleScoped) Allow(c Caller, ownerID int, op Operation) bool {
	switch op {
	case OpCreate:
		return c.Role.AtLeast(models.RoleForeman)
	case OpExportAudit:
		return c.Role == models.RoleSuperintendent
	case OpDelete:
		if !c.Role.AtLeast(models.RoleForeman) {
			return false
		}
	}
	if c.Role == models.RoleSuperintendent {
		return true
	}
	return c.ID == ownerID
}

// FromName returns the guard registered under name.
func FromName(name string) (Guard, error) {
	switch name {
	case "open":
		return Open{}, nil
	case "", "owner":
		return OwnerScoped{}, nil
	case "role":
		return RoleScoped{}, nil
	default:
		return nil, fmt.Errorf("unknown access policy: %s", name)
	}
}
