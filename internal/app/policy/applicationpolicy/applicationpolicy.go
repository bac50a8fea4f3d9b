// internal/app/policy/applicationpolicy/applicationpolicy.go
package applicationpolicy

import (
	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/domain/models"
)

// IsOwner reports whether actor is the volunteer who applied.
func IsOwner(actor models.Actor, a models.Application) bool {
	return actor.ID != "" && actor.ID == a.VolunteerID
}

// CheckView allows admins and the owning volunteer.
func CheckView(actor models.Actor, a models.Application) error {
	if actor.IsAdmin() || IsOwner(actor, a) {
		return nil
	}
	return apperr.Forbidden("not your application")
}

// CheckUpdate decides whether actor may change a. Status changes are
// admin-only; owners may edit their message and available time while the
// application is pending.
func CheckUpdate(actor models.Actor, a models.Application, changesStatus bool) error {
	if actor.IsAdmin() {
		return nil
	}
	if !IsOwner(actor, a) {
		return apperr.Forbidden("not your application")
	}
	if changesStatus {
		return apperr.Forbidden("only admins can change application status")
	}
	if a.Status != models.ApplicationPending {
		return apperr.BadRequest("only pending applications can be edited")
	}
	return nil
}

// CheckWithdraw allows admins to delete any application and owners to
// withdraw theirs while it is pending.
func CheckWithdraw(actor models.Actor, a models.Application) error {
	if actor.IsAdmin() {
		return nil
	}
	if !IsOwner(actor, a) {
		return apperr.Forbidden("not your application")
	}
	if a.Status != models.ApplicationPending {
		return apperr.BadRequest("only pending applications can be withdrawn")
	}
	return nil
}

// ScopeList returns the volunteer filter to apply when actor lists
// applications. Volunteers only ever see their own.
func ScopeList(actor models.Actor, requested string) (string, error) {
	if actor.IsAdmin() {
		return requested, nil
	}
	if !actor.IsVolunteer() {
		return "", apperr.Forbidden("insufficient role")
	}
	if requested != "" && requested != actor.ID {
		return "", apperr.Forbidden("volunteers can only list their own applications")
	}
	return actor.ID, nil
}
