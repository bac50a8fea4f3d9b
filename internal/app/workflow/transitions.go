// internal/app/workflow/transitions.go
package workflow

import "github.com/dalemusser/mansiuk/internal/domain/models"

// requestTransitions is the request lifecycle. Anything absent is rejected.
var requestTransitions = map[models.RequestStatus][]models.RequestStatus{
	models.RequestPending:    {models.RequestOpen, models.RequestCancelled},
	models.RequestOpen:       {models.RequestPublished, models.RequestCancelled},
	models.RequestPublished:  {models.RequestMatched},
	models.RequestMatched:    {models.RequestInProgress},
	models.RequestInProgress: {models.RequestCompleted, models.RequestCancelled},
}

var applicationTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationPending:  {models.ApplicationApproved, models.ApplicationRejected},
	models.ApplicationApproved: {models.ApplicationRejected, models.ApplicationCompleted},
	models.ApplicationRejected: {models.ApplicationApproved},
}

var volunteerTransitions = map[models.UserStatus][]models.UserStatus{
	models.UserPending:   {models.UserApproved, models.UserRejected},
	models.UserApproved:  {models.UserSuspended},
	models.UserSuspended: {models.UserApproved},
	models.UserRejected:  {models.UserApproved},
}

func allowed[S comparable](table map[S][]S, from, to S) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionRequest reports whether from -> to is a request lifecycle edge.
func CanTransitionRequest(from, to models.RequestStatus) bool {
	return allowed(requestTransitions, from, to)
}

// CanTransitionApplication reports whether from -> to is an application edge.
func CanTransitionApplication(from, to models.ApplicationStatus) bool {
	return allowed(applicationTransitions, from, to)
}

// CanTransitionVolunteer reports whether from -> to is a volunteer review edge.
func CanTransitionVolunteer(from, to models.UserStatus) bool {
	return allowed(volunteerTransitions, from, to)
}

// NextRequestStatuses lists the statuses reachable from s in one step.
func NextRequestStatuses(s models.RequestStatus) []models.RequestStatus {
	return append([]models.RequestStatus(nil), requestTransitions[s]...)
}
