package auth

import (
	"errors"

	"rolepush/internal/apierr"
	"rolepush/internal/models"
)

// Capability is an action on the admin surface.
type Capability int

const (
	CanManageAdmins Capability = iota
	CanManageUsers
	CanSendNotifications
)

var (
	ErrSelfAction          = errors.New("actor cannot modify own account")
	ErrSuperAdminProtected = errors.New("super admin accounts cannot be modified")
)

// Allowed reports whether a role holds the capability.
func Allowed(role models.Role, c Capability) bool {
	switch c {
	case CanManageAdmins, CanManageUsers, CanSendNotifications:
		return role == models.RoleSuperAdmin
	default:
		return false
	}
}

// Require returns a forbidden API error unless the actor holds c.
func Require(actor models.User, c Capability) error {
	if !Allowed(actor.Role, c) {
		return apierr.Forbidden("Access denied. Only a super admin can perform this action.")
	}
	return nil
}

// CheckTargetMutable enforces that nobody deletes or re-roles their own account
// and that super admins are never deleted or re-roled.
func CheckTargetMutable(actor, target models.User) error {
	if actor.ID == target.ID {
		return ErrSelfAction
	}
	if target.Role == models.RoleSuperAdmin {
		return ErrSuperAdminProtected
	}
	return nil
}
