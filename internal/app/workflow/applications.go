// internal/app/workflow/applications.go
package workflow

import (
	"context"
	"errors"

	"github.com/dalemusser/mansiuk/internal/app/policy/applicationpolicy"
	applicationstore "github.com/dalemusser/mansiuk/internal/app/store/applications"
	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"go.uber.org/zap"
)

// NewApplication is the body of an application.
type NewApplication struct {
	RequestID     string `json:"requestId" validate:"required"`
	VolunteerID   string `json:"volunteerId" validate:"required"`
	Message       string `json:"message" validate:"max=2000"`
	AvailableTime string `json:"availableTime" validate:"max=500"`
}

// CreateApplication records actor's application to a request. Only approved
// volunteers may apply, once per request, and never to a merged or finished
// request.
func (s *Service) CreateApplication(ctx context.Context, actor models.Actor, in NewApplication) (a models.Application, err error) {
	defer s.observe("create_application", &err)()

	if in.RequestID == "" || in.VolunteerID == "" {
		return models.Application{}, apperr.BadRequest("requestId and volunteerId are required")
	}
	if in.VolunteerID != actor.ID {
		return models.Application{}, apperr.Forbidden("volunteerId does not match the signed-in user")
	}
	if !actor.IsVolunteer() {
		return models.Application{}, apperr.Forbidden("only volunteers can apply")
	}

	u, err := s.users.GetByID(ctx, actor.ID)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Application{}, apperr.Forbidden("volunteer profile not found")
	}
	if err != nil {
		return models.Application{}, err
	}
	if u.Status != models.UserApproved {
		return models.Application{}, apperr.Forbidden("volunteer account is not approved")
	}

	r, err := s.loadRequest(ctx, in.RequestID)
	if err != nil {
		return models.Application{}, err
	}
	switch {
	case r.IsMerged:
		return models.Application{}, apperr.Conflict("request has been merged")
	case r.Status.IsTerminal():
		return models.Application{}, apperr.Conflict("request is already " + string(r.Status))
	}

	// Fast path; the pair-derived id below is what guarantees uniqueness.
	existing, err := s.apps.FindByPair(ctx, in.RequestID, actor.ID)
	if err != nil {
		return models.Application{}, err
	}
	if existing != nil {
		return models.Application{}, apperr.Conflict("you have already applied to this request")
	}

	now := s.now()
	name := u.DisplayName
	if name == "" {
		name = actor.Name
	}
	a = models.Application{
		ID:            applicationstore.PairID(in.RequestID, actor.ID),
		RequestID:     in.RequestID,
		VolunteerID:   actor.ID,
		VolunteerName: name,
		Message:       htmlsanitize.Clean(in.Message),
		AvailableTime: htmlsanitize.Clean(in.AvailableTime),
		Status:        models.ApplicationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.apps.Create(ctx, a); err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return models.Application{}, apperr.Conflict("you have already applied to this request")
		}
		return models.Application{}, err
	}
	s.log.Info("application created",
		zap.String("application_id", a.ID),
		zap.String("request_id", a.RequestID),
		zap.String("volunteer_id", a.VolunteerID))
	return a, nil
}

// ApplicationUpdate is a partial edit of an application.
type ApplicationUpdate struct {
	Status        *string `json:"status"`
	Message       *string `json:"message" validate:"omitempty,max=2000"`
	AvailableTime *string `json:"availableTime" validate:"omitempty,max=500"`
	AdminNotes    *string `json:"adminNotes" validate:"omitempty,max=2000"`
}

// UpdateApplication changes an application's status (admins) or its
// message and available time (owner, while pending). A status change and
// its effect on the parent request commit together.
func (s *Service) UpdateApplication(ctx context.Context, actor models.Actor, id string, upd ApplicationUpdate) (a models.Application, err error) {
	defer s.observe("update_application", &err)()

	var to models.ApplicationStatus
	if upd.Status != nil {
		var ok bool
		if to, ok = models.ParseApplicationStatus(*upd.Status); !ok {
			return models.Application{}, apperr.BadRequest("invalid status %q", *upd.Status)
		}
	}

	cur, err := s.loadApplication(ctx, id)
	if err != nil {
		return models.Application{}, err
	}
	if err := applicationpolicy.CheckUpdate(actor, cur, upd.Status != nil); err != nil {
		return models.Application{}, err
	}
	if upd.AdminNotes != nil && !actor.IsAdmin() {
		return models.Application{}, apperr.Forbidden("only admins can edit admin notes")
	}

	edited := cur
	edits := false
	for _, f := range []struct {
		in  *string
		dst *string
	}{
		{upd.Message, &edited.Message},
		{upd.AvailableTime, &edited.AvailableTime},
		{upd.AdminNotes, &edited.AdminNotes},
	} {
		if f.in == nil {
			continue
		}
		if v := htmlsanitize.Clean(*f.in); v != *f.dst {
			*f.dst = v
			edits = true
		}
	}

	now := s.now()
	plan := ApplicationPlan{Application: edited, From: cur.Status}
	if upd.Status != nil {
		parent, err := s.loadParent(ctx, cur.RequestID)
		if err != nil {
			return models.Application{}, err
		}
		if plan, err = PlanApplicationTransition(edited, parent, to, now); err != nil {
			return models.Application{}, err
		}
	}
	if !edits && !plan.Changed {
		return cur, nil
	}
	plan.Application.UpdatedAt = now

	b := s.db.Batch()
	s.apps.StageSave(b, plan.Application)
	if plan.Parent != nil {
		s.requests.StageSave(b, *plan.Parent)
	}
	if err := s.commit(ctx, b, "application update"); err != nil {
		return models.Application{}, err
	}

	if plan.Changed {
		s.metrics.Transition("application", string(plan.From), string(plan.Application.Status))
		if plan.Parent != nil && plan.Parent.Status != plan.ParentFrom {
			s.metrics.Transition("request", string(plan.ParentFrom), string(plan.Parent.Status))
		}
		s.audit.ApplicationStatusChanged(ctx, actor, plan.Application, plan.From)
	}
	return plan.Application, nil
}

// TransitionApplication changes only the status of an application.
func (s *Service) TransitionApplication(ctx context.Context, actor models.Actor, id string, to models.ApplicationStatus) (models.Application, error) {
	st := string(to)
	return s.UpdateApplication(ctx, actor, id, ApplicationUpdate{Status: &st})
}

// WithdrawApplication deletes an application: owners while it is pending,
// admins at any time. Removing an approved application also drops the
// volunteer from the request's assignment list.
func (s *Service) WithdrawApplication(ctx context.Context, actor models.Actor, id string) (err error) {
	defer s.observe("withdraw_application", &err)()

	a, err := s.loadApplication(ctx, id)
	if err != nil {
		return err
	}
	if err := applicationpolicy.CheckWithdraw(actor, a); err != nil {
		return err
	}

	b := s.db.Batch()
	s.apps.StageDelete(b, a.ID)
	if a.Status == models.ApplicationApproved {
		parent, err := s.loadParent(ctx, a.RequestID)
		if err != nil {
			return err
		}
		if parent != nil && !parent.IsMerged {
			p := *parent
			if n := without(p.AssignedVolunteerIDs, a.VolunteerID); len(n) != len(p.AssignedVolunteerIDs) {
				p.AssignedVolunteerIDs = n
				p.UpdatedAt = s.now()
				s.requests.StageSave(b, p)
			}
		}
	}
	if err := s.commit(ctx, b, "application withdraw"); err != nil {
		return err
	}

	if actor.IsAdmin() {
		s.audit.ApplicationDeleted(ctx, actor, a)
	}
	return nil
}

