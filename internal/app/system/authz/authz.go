// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/domain/models"
)

// UserCtx returns the user's role, name, id, and a found flag.
// If no user is present in context it returns "", "", "", false.
func UserCtx(r *http.Request) (role models.Role, name string, userID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID == "" {
		return "", "", "", false
	}
	return user.Role, user.Name, user.ID, true
}

// Actor returns the workflow actor for the signed-in user.
func Actor(r *http.Request) (models.Actor, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID == "" {
		return models.Actor{}, false
	}
	return user.Actor(), true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// IsVolunteer reports whether the current request's user is a volunteer.
func IsVolunteer(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleVolunteer
}

// IsApprovedVolunteer reports whether the user is a volunteer whose account
// review has been approved.
func IsApprovedVolunteer(r *http.Request) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.Role == models.RoleVolunteer && user.Status == models.UserApproved
}
