// internal/app/workflow/merge.go
package workflow

import (
	"context"

	"github.com/dalemusser/mansiuk/internal/domain/models"
)

// MergeRequests folds mergeIDs into mainID. Absorbed requests are frozen and
// drop out of default listings; there is no unmerge.
func (s *Service) MergeRequests(ctx context.Context, actor models.Actor, mainID string, mergeIDs []string) (main models.Request, err error) {
	defer s.observe("merge_requests", &err)()

	if err := requireAdmin(actor); err != nil {
		return models.Request{}, err
	}
	ids, err := NormalizeMergeIDs(mainID, mergeIDs)
	if err != nil {
		return models.Request{}, err
	}

	main, err = s.loadRequest(ctx, mainID)
	if err != nil {
		return models.Request{}, err
	}
	absorbed := make([]models.Request, 0, len(ids))
	for _, id := range ids {
		r, err := s.loadRequest(ctx, id)
		if err != nil {
			return models.Request{}, err
		}
		absorbed = append(absorbed, r)
	}

	docs, err := PlanMerge(main, absorbed, s.now())
	if err != nil {
		return models.Request{}, err
	}

	b := s.db.Batch()
	for _, r := range docs {
		s.requests.StageSave(b, r)
	}
	if err := s.commit(ctx, b, "merge"); err != nil {
		return models.Request{}, err
	}

	s.metrics.Merged()
	s.audit.RequestsMerged(ctx, actor, main.ID, ids)
	return docs[0], nil
}
