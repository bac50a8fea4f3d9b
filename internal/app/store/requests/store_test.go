package requeststore_test

import (
	"errors"
	"testing"
	"time"

	requeststore "github.com/dalemusser/mansiuk/internal/app/store/requests"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/dalemusser/mansiuk/internal/testutil"
	"github.com/google/go-cmp/cmp"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	store := requeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Request{
		Requester:   models.Requester{Name: "李先生", Phone: "98765432", Age: "80", District: "觀塘"},
		Description: "Escort to clinic",
		Fields:      []models.ServiceField{models.FieldCommunityPartner},
		IsMerged:    true,
		MergedWith:  []string{"bogus"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}
	if created.Status != models.RequestPending {
		t.Errorf("status: got %q, want pending", created.Status)
	}
	if created.IsMerged || created.MergedWith != nil {
		t.Error("new requests must start unmerged")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.NewDB(t)
	store := requeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, "missing")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixtures(t, db)
	store := requeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	oldest := fx.CreateRequest(ctx, models.RequestOpen, models.Request{CreatedAt: base})
	middle := fx.CreateRequest(ctx, models.RequestPending, models.Request{CreatedAt: base.Add(time.Hour)})
	newest := fx.CreateRequest(ctx, models.RequestPublished, models.Request{CreatedAt: base.Add(2 * time.Hour)})
	merged := fx.CreateRequest(ctx, models.RequestOpen, models.Request{
		CreatedAt:  base.Add(3 * time.Hour),
		IsMerged:   true,
		MergedWith: []string{oldest.ID},
	})

	ids := func(rs []models.Request) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter requeststore.ListFilter
		want   []string
	}{
		{"default hides merged", requeststore.ListFilter{}, []string{newest.ID, middle.ID, oldest.ID}},
		{"include merged", requeststore.ListFilter{IncludeMerged: true}, []string{merged.ID, newest.ID, middle.ID, oldest.ID}},
		{"single status", requeststore.ListFilter{Statuses: []models.RequestStatus{models.RequestOpen}}, []string{oldest.ID}},
		{"status set", requeststore.ListFilter{Statuses: []models.RequestStatus{models.RequestOpen, models.RequestPublished}}, []string{newest.ID, oldest.ID}},
		{"limit", requeststore.ListFilter{Limit: 1}, []string{newest.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_StagedWritesCommitTogether(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixtures(t, db)
	store := requeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	keep := fx.CreateRequest(ctx, models.RequestOpen, models.Request{})
	drop := fx.CreateRequest(ctx, models.RequestOpen, models.Request{})

	b := store.Batch()
	keep.AdminNotes = "called twice"
	store.StageSave(b, keep)
	store.StageDelete(b, drop.ID)
	if err := b.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if got := fx.GetRequest(ctx, keep.ID); got.AdminNotes != "called twice" {
		t.Errorf("adminNotes: got %q", got.AdminNotes)
	}
	if _, err := store.GetByID(ctx, drop.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected deleted request, got %v", err)
	}
}
