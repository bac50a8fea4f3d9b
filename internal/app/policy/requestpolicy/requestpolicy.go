// internal/app/policy/requestpolicy/requestpolicy.go
package requestpolicy

import "github.com/dalemusser/mansiuk/internal/domain/models"

// volunteerVisible are the statuses a volunteer may browse.
var volunteerVisible = []models.RequestStatus{models.RequestOpen, models.RequestPublished}

// ListableStatuses returns the statuses actor may list. Nil means any.
func ListableStatuses(actor models.Actor) []models.RequestStatus {
	if actor.IsAdmin() {
		return nil
	}
	return append([]models.RequestStatus(nil), volunteerVisible...)
}

// CanView reports whether actor may read r:
//   - Admins always can
//   - Volunteers can if the request is open or published, or if they applied to it
func CanView(actor models.Actor, r models.Request, applied bool) bool {
	if actor.IsAdmin() {
		return true
	}
	if !actor.IsVolunteer() {
		return false
	}
	if applied {
		return true
	}
	for _, s := range volunteerVisible {
		if r.Status == s {
			return true
		}
	}
	return false
}

// Present returns r as actor may see it. Requester details and admin notes
// are hidden from everyone but admins.
func Present(actor models.Actor, r models.Request) models.Request {
	if actor.IsAdmin() {
		return r
	}
	r.Requester = r.Requester.Masked()
	r.AdminNotes = ""
	r.FollowUps = nil
	return r
}

// PresentAll applies Present to each request.
func PresentAll(actor models.Actor, rs []models.Request) []models.Request {
	out := make([]models.Request, len(rs))
	for i, r := range rs {
		out[i] = Present(actor, r)
	}
	return out
}
