// internal/app/workflow/volunteers.go
package workflow

import (
	"context"
	"errors"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/domain/models"
)

// ReviewVolunteer records an admin's decision on a volunteer account.
func (s *Service) ReviewVolunteer(ctx context.Context, actor models.Actor, uid string, review VolunteerReview) (u models.User, err error) {
	defer s.observe("review_volunteer", &err)()

	if err := requireAdmin(actor); err != nil {
		return models.User{}, err
	}
	cur, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.User{}, apperr.NotFound("volunteer not found")
	}
	if err != nil {
		return models.User{}, err
	}

	u, changed, err := PlanVolunteerReview(cur, review, s.now())
	if err != nil {
		return models.User{}, err
	}
	if u, err = s.users.Save(ctx, u); err != nil {
		return models.User{}, err
	}
	if changed {
		s.metrics.Transition("volunteer", string(cur.Status), string(u.Status))
		s.audit.VolunteerStatusChanged(ctx, actor, uid, cur.Status, u.Status)
	}
	return u, nil
}
