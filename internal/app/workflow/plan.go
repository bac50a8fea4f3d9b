// internal/app/workflow/plan.go
package workflow

import (
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/domain/models"
)

// The Plan* functions are pure: they take the current documents and return
// the documents to write. The service loads, plans, and commits the result
// as one batch.

// RequestPlan is the outcome of a request status change.
type RequestPlan struct {
	Request      models.Request
	From         models.RequestStatus
	Changed      bool                 // false for a same-status no-op
	Applications []models.Application // cascaded applications, already updated
}

// PlanRequestTransition moves r to status to. apps are the request's
// applications; only the ones the cascade touches come back in the plan.
func PlanRequestTransition(r models.Request, apps []models.Application, to models.RequestStatus, now time.Time) (RequestPlan, error) {
	plan := RequestPlan{Request: r, From: r.Status}
	if r.IsMerged {
		return plan, apperr.Conflict("request has been merged and can no longer change")
	}
	if to == r.Status {
		return plan, nil
	}
	if !CanTransitionRequest(r.Status, to) {
		return plan, apperr.InvalidTransition("request", r.Status, to)
	}

	r.Status = to
	r.UpdatedAt = now
	switch to {
	case models.RequestMatched:
		if r.MatchedAt == nil {
			r.MatchedAt = ptr(now)
		}
	case models.RequestCompleted:
		r.CompletedAt = ptr(now)
		for _, a := range apps {
			if a.Status != models.ApplicationApproved {
				continue
			}
			a.Status = models.ApplicationCompleted
			a.CompletedAt = ptr(now)
			a.UpdatedAt = now
			plan.Applications = append(plan.Applications, a)
		}
	case models.RequestCancelled:
		for _, a := range apps {
			if a.Status != models.ApplicationApproved {
				continue
			}
			a.Status = models.ApplicationRejected
			a.UpdatedAt = now
			plan.Applications = append(plan.Applications, a)
			r.AssignedVolunteerIDs = without(r.AssignedVolunteerIDs, a.VolunteerID)
		}
	}

	plan.Request = r
	plan.Changed = true
	return plan, nil
}

// ApplicationPlan is the outcome of an application status change.
type ApplicationPlan struct {
	Application models.Application
	From        models.ApplicationStatus
	Changed     bool
	// Parent is the updated parent request, or nil when it is unchanged.
	Parent     *models.Request
	ParentFrom models.RequestStatus
}

// PlanApplicationTransition moves a to status to. parent may be nil when the
// request no longer exists; approving then fails with NotFound.
func PlanApplicationTransition(a models.Application, parent *models.Request, to models.ApplicationStatus, now time.Time) (ApplicationPlan, error) {
	plan := ApplicationPlan{Application: a, From: a.Status}
	if to == a.Status {
		return plan, nil
	}
	if !CanTransitionApplication(a.Status, to) {
		return plan, apperr.InvalidTransition("application", a.Status, to)
	}

	a.Status = to
	a.UpdatedAt = now

	switch to {
	case models.ApplicationApproved:
		if parent == nil {
			return plan, apperr.NotFound("request not found")
		}
		if parent.IsMerged {
			return plan, apperr.Conflict("request has been merged")
		}
		if parent.Status.IsTerminal() {
			return plan, apperr.Conflict("request is already " + string(parent.Status))
		}
		a.MatchedAt = ptr(now)

		p := *parent
		plan.ParentFrom = p.Status
		switch {
		case p.Status == models.RequestPublished || p.Status == models.RequestOpen:
			p.Status = models.RequestMatched
			p.MatchedAt = ptr(now)
		case p.MatchedAt == nil && p.Status != models.RequestMatched:
			p.MatchedAt = ptr(now)
		}
		if !slices.Contains(p.AssignedVolunteerIDs, a.VolunteerID) {
			p.AssignedVolunteerIDs = append(slices.Clone(p.AssignedVolunteerIDs), a.VolunteerID)
		}
		p.UpdatedAt = now
		plan.Parent = &p

	case models.ApplicationRejected:
		if parent != nil && slices.Contains(parent.AssignedVolunteerIDs, a.VolunteerID) && !parent.IsMerged {
			p := *parent
			plan.ParentFrom = p.Status
			p.AssignedVolunteerIDs = without(p.AssignedVolunteerIDs, a.VolunteerID)
			p.UpdatedAt = now
			plan.Parent = &p
		}

	case models.ApplicationCompleted:
		if a.CompletedAt == nil {
			a.CompletedAt = ptr(now)
		}
	}

	plan.Application = a
	plan.Changed = true
	return plan, nil
}

// NormalizeMergeIDs validates a merge request and returns ids de-duplicated
// with their first-seen order kept.
func NormalizeMergeIDs(mainID string, ids []string) ([]string, error) {
	mainID = strings.TrimSpace(mainID)
	if mainID == "" {
		return nil, apperr.BadRequest("mainRequestId is required")
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if id == mainID {
			return nil, apperr.BadRequest("a request cannot be merged into itself")
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, apperr.BadRequest("mergeRequestIds must not be empty")
	}
	return out, nil
}

// PlanMerge folds absorbed into main. It returns the survivor followed by
// every absorbed request, all updated.
func PlanMerge(main models.Request, absorbed []models.Request, now time.Time) ([]models.Request, error) {
	if main.IsMerged {
		return nil, apperr.Conflict("request " + main.ID + " has already been merged")
	}
	ids := make([]string, 0, len(absorbed))
	out := make([]models.Request, 0, len(absorbed)+1)
	for _, r := range absorbed {
		if r.IsMerged {
			return nil, apperr.Conflict("request " + r.ID + " has already been merged")
		}
		if len(r.MergedWith) > 0 {
			return nil, apperr.Conflict("request " + r.ID + " already has requests merged into it")
		}
		r.IsMerged = true
		r.MergedWith = []string{main.ID}
		r.UpdatedAt = now
		out = append(out, r)
		ids = append(ids, r.ID)
	}

	merged := slices.Clone(main.MergedWith)
	for _, id := range ids {
		if !slices.Contains(merged, id) {
			merged = append(merged, id)
		}
	}
	main.MergedWith = merged
	main.UpdatedAt = now

	return append([]models.Request{main}, out...), nil
}

// VolunteerReview carries an admin's decision on a volunteer account.
type VolunteerReview struct {
	Status          *string `json:"status"`
	InterviewNotes  *string `json:"interviewNotes"`
	RejectionReason *string `json:"rejectionReason"`
}

// PlanVolunteerReview applies review to u.
func PlanVolunteerReview(u models.User, review VolunteerReview, now time.Time) (models.User, bool, error) {
	if u.Role != models.RoleVolunteer {
		return u, false, apperr.BadRequest("user is not a volunteer")
	}
	from := u.Status
	if review.InterviewNotes != nil {
		u.InterviewNotes = *review.InterviewNotes
	}
	if review.RejectionReason != nil {
		u.RejectionReason = *review.RejectionReason
	}
	if review.Status == nil {
		return u, false, nil
	}

	to, ok := models.ParseUserStatus(*review.Status)
	if !ok {
		return u, false, apperr.BadRequest("invalid status %q", *review.Status)
	}
	if to == from {
		return u, false, nil
	}
	if !CanTransitionVolunteer(from, to) {
		return u, false, apperr.InvalidTransition("volunteer", from, to)
	}
	u.Status = to
	if to == models.UserApproved {
		u.InterviewDate = ptr(now)
		u.RejectionReason = ""
	}
	return u, true, nil
}

func ptr[T any](v T) *T { return &v }

func without(ids []string, id string) []string {
	var out []string
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
