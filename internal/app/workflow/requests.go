// internal/app/workflow/requests.go
package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"go.uber.org/zap"
)

// RequesterInput is the requester block of a new request.
type RequesterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=30"`
	Age      string `json:"age" validate:"required,max=10"`
	District string `json:"district" validate:"required,max=50"`
}

// NewRequest is the body of a request submission.
type NewRequest struct {
	Requester         RequesterInput        `json:"requester" validate:"required"`
	Description       string                `json:"description" validate:"required,max=5000"`
	Fields            []models.ServiceField `json:"fields" validate:"required,min=1,dive,oneof=生活助手 社區拍檔 街坊樹窿"`
	Urgency           string                `json:"urgency" validate:"omitempty,oneof=urgent normal"`
	ServiceType       string                `json:"serviceType" validate:"max=200"`
	EstimatedDuration string                `json:"estimatedDuration" validate:"max=200"`
	Appreciation      string                `json:"appreciation" validate:"max=1000"`
	AdminNotes        string                `json:"adminNotes" validate:"max=5000"`
}

func (in NewRequest) toModel() (models.Request, error) {
	r := models.Request{
		Requester: models.Requester{
			Name:     htmlsanitize.Clean(in.Requester.Name),
			Phone:    htmlsanitize.Clean(in.Requester.Phone),
			Age:      htmlsanitize.Clean(in.Requester.Age),
			District: htmlsanitize.Clean(in.Requester.District),
		},
		Description:       htmlsanitize.Clean(in.Description),
		Fields:            in.Fields,
		Urgency:           in.Urgency,
		ServiceType:       htmlsanitize.Clean(in.ServiceType),
		EstimatedDuration: htmlsanitize.Clean(in.EstimatedDuration),
		Appreciation:      htmlsanitize.Clean(in.Appreciation),
		AdminNotes:        htmlsanitize.Clean(in.AdminNotes),
	}
	switch {
	case r.Requester.Name == "", r.Requester.Phone == "", r.Requester.Age == "", r.Requester.District == "":
		return r, apperr.BadRequest("requester name, phone, age and district are required")
	case r.Description == "":
		return r, apperr.BadRequest("description is required")
	case len(r.Fields) == 0:
		return r, apperr.BadRequest("fields must not be empty")
	}
	return r, nil
}

// SubmitRequest stores a request from the public form. It starts pending
// and is not audited, having no actor.
func (s *Service) SubmitRequest(ctx context.Context, in NewRequest) (r models.Request, err error) {
	defer s.observe("submit_request", &err)()

	r, err = in.toModel()
	if err != nil {
		return models.Request{}, err
	}
	r.AdminNotes = ""
	r, err = s.requests.Create(ctx, r)
	if err != nil {
		return models.Request{}, err
	}
	s.log.Info("request submitted", zap.String("request_id", r.ID))
	return r, nil
}

// CreateRequest stores a request entered by an admin.
func (s *Service) CreateRequest(ctx context.Context, actor models.Actor, in NewRequest) (r models.Request, err error) {
	defer s.observe("create_request", &err)()

	if err := requireAdmin(actor); err != nil {
		return models.Request{}, err
	}
	r, err = in.toModel()
	if err != nil {
		return models.Request{}, err
	}
	r, err = s.requests.Create(ctx, r)
	if err != nil {
		return models.Request{}, err
	}
	s.audit.RequestCreated(ctx, actor, r)
	return r, nil
}

// RequestUpdate is a partial edit of a request. Nil fields are left alone.
type RequestUpdate struct {
	Status            *string               `json:"status"`
	Requester         *RequesterInput       `json:"requester"`
	Description       *string               `json:"description" validate:"omitempty,max=5000"`
	Fields            *[]models.ServiceField `json:"fields" validate:"omitempty,min=1,dive,oneof=生活助手 社區拍檔 街坊樹窿"`
	Urgency           *string               `json:"urgency" validate:"omitempty,oneof=urgent normal"`
	ServiceType       *string               `json:"serviceType" validate:"omitempty,max=200"`
	EstimatedDuration *string               `json:"estimatedDuration" validate:"omitempty,max=200"`
	Appreciation      *string               `json:"appreciation" validate:"omitempty,max=1000"`
	AdminNotes        *string               `json:"adminNotes" validate:"omitempty,max=5000"`
}

// apply copies the set fields onto r and returns what changed.
func (u RequestUpdate) apply(r *models.Request) (map[string]any, error) {
	changes := map[string]any{}
	setString := func(name string, in *string, dst *string) {
		if in == nil {
			return
		}
		v := htmlsanitize.Clean(*in)
		if v != *dst {
			*dst = v
			changes[name] = v
		}
	}

	if u.Requester != nil {
		req := models.Requester{
			Name:     htmlsanitize.Clean(u.Requester.Name),
			Phone:    htmlsanitize.Clean(u.Requester.Phone),
			Age:      htmlsanitize.Clean(u.Requester.Age),
			District: htmlsanitize.Clean(u.Requester.District),
		}
		if req != r.Requester {
			r.Requester = req
			changes["requester"] = "updated"
		}
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		return nil, apperr.BadRequest("description must not be empty")
	}
	setString("description", u.Description, &r.Description)
	if u.Fields != nil {
		if len(*u.Fields) == 0 {
			return nil, apperr.BadRequest("fields must not be empty")
		}
		if !slices.Equal(*u.Fields, r.Fields) {
			r.Fields = append([]models.ServiceField(nil), (*u.Fields)...)
			changes["fields"] = r.Fields
		}
	}
	if u.Urgency != nil && *u.Urgency != r.Urgency {
		r.Urgency = *u.Urgency
		changes["urgency"] = r.Urgency
	}
	setString("serviceType", u.ServiceType, &r.ServiceType)
	setString("estimatedDuration", u.EstimatedDuration, &r.EstimatedDuration)
	setString("appreciation", u.Appreciation, &r.Appreciation)
	setString("adminNotes", u.AdminNotes, &r.AdminNotes)
	return changes, nil
}

// UpdateRequest applies field edits and an optional status change to a
// request in one batch, together with any application cascade.
func (s *Service) UpdateRequest(ctx context.Context, actor models.Actor, id string, upd RequestUpdate) (r models.Request, err error) {
	defer s.observe("update_request", &err)()

	if err := requireAdmin(actor); err != nil {
		return models.Request{}, err
	}
	var to models.RequestStatus
	if upd.Status != nil {
		var ok bool
		if to, ok = models.ParseRequestStatus(*upd.Status); !ok {
			return models.Request{}, apperr.BadRequest("invalid status %q", *upd.Status)
		}
	}

	cur, err := s.loadRequest(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if cur.IsMerged {
		return models.Request{}, apperr.Conflict("request has been merged and can no longer change")
	}

	edited := cur
	changes, err := upd.apply(&edited)
	if err != nil {
		return models.Request{}, err
	}

	plan := RequestPlan{Request: edited, From: cur.Status}
	if upd.Status != nil {
		var apps []models.Application
		if to == models.RequestCompleted || to == models.RequestCancelled {
			if apps, err = s.apps.ListByRequest(ctx, id); err != nil {
				return models.Request{}, err
			}
		}
		if plan, err = PlanRequestTransition(edited, apps, to, s.now()); err != nil {
			return models.Request{}, err
		}
	}

	if len(changes) == 0 && !plan.Changed {
		return cur, nil
	}
	plan.Request.UpdatedAt = s.now()

	b := s.db.Batch()
	s.requests.StageSave(b, plan.Request)
	for _, a := range plan.Applications {
		s.apps.StageSave(b, a)
	}
	if err := s.commit(ctx, b, "request update"); err != nil {
		return models.Request{}, err
	}

	if len(changes) > 0 {
		s.audit.RequestUpdated(ctx, actor, id, changes)
	}
	if plan.Changed {
		s.metrics.Transition("request", string(plan.From), string(plan.Request.Status))
		s.audit.RequestStatusChanged(ctx, actor, id, plan.From, plan.Request.Status, len(plan.Applications))
	}
	return plan.Request, nil
}

// TransitionRequest changes only the status of a request.
func (s *Service) TransitionRequest(ctx context.Context, actor models.Actor, id string, to models.RequestStatus) (models.Request, error) {
	st := string(to)
	return s.UpdateRequest(ctx, actor, id, RequestUpdate{Status: &st})
}

// DeleteRequest removes a request and all of its applications.
//
// A survivor that still holds absorbed requests cannot be deleted, since
// merges are not reversible. Deleting an absorbed request drops its id from
// the survivor's mergedWith in the same batch.
func (s *Service) DeleteRequest(ctx context.Context, actor models.Actor, id string) (err error) {
	defer s.observe("delete_request", &err)()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	r, err := s.loadRequest(ctx, id)
	if err != nil {
		return err
	}
	if !r.IsMerged && len(r.MergedWith) > 0 {
		return apperr.Conflict("request has merged requests; delete those first")
	}

	var survivor *models.Request
	if r.IsMerged && len(r.MergedWith) > 0 {
		if survivor, err = s.loadParent(ctx, r.MergedWith[0]); err != nil {
			return err
		}
	}

	apps, err := s.apps.ListByRequest(ctx, id)
	if err != nil {
		return err
	}

	b := s.db.Batch()
	if survivor != nil && slices.Contains(survivor.MergedWith, id) {
		survivor.MergedWith = without(survivor.MergedWith, id)
		survivor.UpdatedAt = s.now()
		s.requests.StageSave(b, *survivor)
	}
	for _, a := range apps {
		s.apps.StageDelete(b, a.ID)
	}
	s.requests.StageDelete(b, id)
	if err := s.commit(ctx, b, "request delete"); err != nil {
		return err
	}
	s.audit.RequestDeleted(ctx, actor, id, len(apps))
	return nil
}

// FollowUpInput is one contact record.
type FollowUpInput struct {
	Method  string `json:"method" validate:"required,max=50"`
	Content string `json:"content" validate:"required,max=5000"`
}

// AddFollowUp appends a follow-up attributed to actor.
func (s *Service) AddFollowUp(ctx context.Context, actor models.Actor, id string, in FollowUpInput) (fu models.FollowUp, err error) {
	defer s.observe("add_follow_up", &err)()

	if err := requireAdmin(actor); err != nil {
		return models.FollowUp{}, err
	}
	method := htmlsanitize.Clean(in.Method)
	content := htmlsanitize.Clean(in.Content)
	if method == "" || content == "" {
		return models.FollowUp{}, apperr.BadRequest("method and content are required")
	}

	r, err := s.loadRequest(ctx, id)
	if err != nil {
		return models.FollowUp{}, err
	}
	if r.IsMerged {
		return models.FollowUp{}, apperr.Conflict("request has been merged and can no longer change")
	}

	now := s.now()
	fu = models.FollowUp{Date: now, Method: method, Content: content, AdminID: actor.ID}
	r.FollowUps = append(r.FollowUps, fu)
	r.UpdatedAt = now
	if err := s.requests.Save(ctx, r); err != nil {
		return models.FollowUp{}, fmt.Errorf("add follow-up: %w", err)
	}
	s.audit.FollowUpAdded(ctx, actor, id, method)
	return fu, nil
}
