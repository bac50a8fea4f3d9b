package workflow_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	activitylogstore "github.com/dalemusser/mansiuk/internal/app/store/activitylog"
	applicationstore "github.com/dalemusser/mansiuk/internal/app/store/applications"
	requeststore "github.com/dalemusser/mansiuk/internal/app/store/requests"
	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/auditlog"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore/memdb"
	"github.com/dalemusser/mansiuk/internal/app/system/metrics"
	"github.com/dalemusser/mansiuk/internal/app/workflow"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/dalemusser/mansiuk/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

var svcNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type env struct {
	svc   *workflow.Service
	db    *memdb.DB
	fx    *testutil.Fixtures
	admin models.Actor
	vol   models.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	audit := auditlog.New(activitylogstore.New(db), zap.NewNop(), auditlog.Config{Admin: "db"})
	svc := workflow.New(db, audit, metrics.New(), zap.NewNop())
	svc.SetClock(func() time.Time { return svcNow })

	e := &env{
		svc:   svc,
		db:    db,
		fx:    testutil.NewFixtures(t, db),
		admin: testutil.AdminUser().Actor(),
		vol:   testutil.VolunteerUser().Actor(),
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateUser(ctx, e.admin.ID, models.RoleAdmin, models.UserApproved)
	e.fx.CreateUser(ctx, e.vol.ID, models.RoleVolunteer, models.UserApproved)
	return e
}

func (e *env) auditActions(t *testing.T) []string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	entries, err := activitylogstore.New(e.db).Query(ctx, activitylogstore.QueryFilter{})
	if err != nil {
		t.Fatalf("query audit: %v", err)
	}
	var out []string
	for _, en := range entries {
		out = append(out, en.Action)
	}
	slices.Sort(out)
	return out
}

func wantCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	if got := apperr.CodeOf(err); got != code {
		t.Fatalf("code = %q, want %q (err %v)", got, code, err)
	}
}

func TestScenario_ApproveOnPublishedRequestMatchesIt(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r1 := e.fx.CreateRequest(ctx, models.RequestPublished, models.Request{})
	a1, err := e.svc.CreateApplication(ctx, e.vol, workflow.NewApplication{
		RequestID:   r1.ID,
		VolunteerID: e.vol.ID,
		Message:     "I live nearby",
	})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if a1.Status != models.ApplicationPending {
		t.Fatalf("new application status = %s", a1.Status)
	}

	got, err := e.svc.TransitionApplication(ctx, e.admin, a1.ID, models.ApplicationApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != models.ApplicationApproved || got.MatchedAt == nil || !got.MatchedAt.Equal(svcNow) {
		t.Errorf("application = %+v", got)
	}

	stored := e.fx.GetApplication(ctx, a1.ID)
	if stored.Status != models.ApplicationApproved || stored.MatchedAt == nil {
		t.Errorf("stored application = %+v", stored)
	}
	r := e.fx.GetRequest(ctx, r1.ID)
	if r.Status != models.RequestMatched || r.MatchedAt == nil || !r.MatchedAt.Equal(svcNow) {
		t.Errorf("request = %s matchedAt=%v", r.Status, r.MatchedAt)
	}
	if !slices.Contains(r.AssignedVolunteerIDs, e.vol.ID) {
		t.Errorf("volunteer not assigned: %v", r.AssignedVolunteerIDs)
	}
	if diff := cmp.Diff([]string{auditlog.ActionUpdateApplicationStatus}, e.auditActions(t)); diff != "" {
		t.Errorf("audit (-want +got):\n%s", diff)
	}
}

func TestApprove_AlreadyMatchedParentKeepsStatus(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	earlier := svcNow.Add(-24 * time.Hour)
	r := e.fx.CreateRequest(ctx, models.RequestMatched, models.Request{MatchedAt: &earlier})
	a := e.fx.CreateApplication(ctx, r.ID, "v2", models.ApplicationPending)

	if _, err := e.svc.TransitionApplication(ctx, e.admin, a.ID, models.ApplicationApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got := e.fx.GetRequest(ctx, r.ID)
	if got.Status != models.RequestMatched || !got.MatchedAt.Equal(earlier) {
		t.Errorf("parent changed: %s %v", got.Status, got.MatchedAt)
	}
}

func TestScenario_CompletingRequestCompletesApprovedApplications(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r1 := e.fx.CreateRequest(ctx, models.RequestInProgress, models.Request{})
	a1 := e.fx.CreateApplication(ctx, r1.ID, "v1", models.ApplicationApproved)
	a2 := e.fx.CreateApplication(ctx, r1.ID, "v2", models.ApplicationApproved)
	a3 := e.fx.CreateApplication(ctx, r1.ID, "v3", models.ApplicationPending)
	a4 := e.fx.CreateApplication(ctx, r1.ID, "v4", models.ApplicationRejected)
	other := e.fx.CreateApplication(ctx, "other-request", "v1", models.ApplicationApproved)

	if _, err := e.svc.TransitionRequest(ctx, e.admin, r1.ID, models.RequestCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	r := e.fx.GetRequest(ctx, r1.ID)
	if r.Status != models.RequestCompleted || r.CompletedAt == nil || !r.CompletedAt.Equal(svcNow) {
		t.Errorf("request = %s completedAt=%v", r.Status, r.CompletedAt)
	}
	for _, id := range []string{a1.ID, a2.ID} {
		a := e.fx.GetApplication(ctx, id)
		if a.Status != models.ApplicationCompleted || a.CompletedAt == nil || !a.CompletedAt.Equal(svcNow) {
			t.Errorf("application %s = %s completedAt=%v", id, a.Status, a.CompletedAt)
		}
	}
	if got := e.fx.GetApplication(ctx, a3.ID).Status; got != models.ApplicationPending {
		t.Errorf("pending application changed to %s", got)
	}
	if got := e.fx.GetApplication(ctx, a4.ID).Status; got != models.ApplicationRejected {
		t.Errorf("rejected application changed to %s", got)
	}
	if got := e.fx.GetApplication(ctx, other.ID).Status; got != models.ApplicationApproved {
		t.Errorf("application of another request changed to %s", got)
	}
}

func TestCancellingRequestRejectsApprovedApplications(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r1 := e.fx.CreateRequest(ctx, models.RequestInProgress, models.Request{AssignedVolunteerIDs: []string{"v1"}})
	a1 := e.fx.CreateApplication(ctx, r1.ID, "v1", models.ApplicationApproved)
	a2 := e.fx.CreateApplication(ctx, r1.ID, "v2", models.ApplicationPending)

	if _, err := e.svc.TransitionRequest(ctx, e.admin, r1.ID, models.RequestCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := e.fx.GetApplication(ctx, a1.ID); got.Status != models.ApplicationRejected || got.CompletedAt != nil {
		t.Errorf("approved application = %+v", got)
	}
	if got := e.fx.GetApplication(ctx, a2.ID).Status; got != models.ApplicationPending {
		t.Errorf("pending application changed to %s", got)
	}
	if got := e.fx.GetRequest(ctx, r1.ID); got.CompletedAt != nil || len(got.AssignedVolunteerIDs) != 0 {
		t.Errorf("request = %+v", got)
	}
}

func TestCascadeIsAtomic(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r1 := e.fx.CreateRequest(ctx, models.RequestInProgress, models.Request{})
	a1 := e.fx.CreateApplication(ctx, r1.ID, "v1", models.ApplicationApproved)

	e.db.FailWrites(applicationstore.Collection, errors.New("unavailable"))
	_, err := e.svc.TransitionRequest(ctx, e.admin, r1.ID, models.RequestCompleted)
	if err == nil {
		t.Fatal("expected commit failure")
	}
	e.db.FailWrites(applicationstore.Collection, nil)

	if got := e.fx.GetRequest(ctx, r1.ID); got.Status != models.RequestInProgress || got.CompletedAt != nil {
		t.Errorf("request partially updated: %+v", got)
	}
	if got := e.fx.GetApplication(ctx, a1.ID).Status; got != models.ApplicationApproved {
		t.Errorf("application partially updated: %s", got)
	}
}

func TestAuditFailureDoesNotFailTransition(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})
	e.db.FailWrites(activitylogstore.Collection, errors.New("quota exceeded"))

	if _, err := e.svc.TransitionRequest(ctx, e.admin, r.ID, models.RequestOpen); err != nil {
		t.Fatalf("transition failed because of audit: %v", err)
	}
	if got := e.fx.GetRequest(ctx, r.ID).Status; got != models.RequestOpen {
		t.Errorf("status = %s", got)
	}
}

func TestTransitionRequest_Errors(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pending := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})

	_, err := e.svc.TransitionRequest(ctx, e.admin, "missing", models.RequestOpen)
	wantCode(t, err, apperr.CodeNotFound)

	_, err = e.svc.TransitionRequest(ctx, e.admin, pending.ID, models.RequestCompleted)
	wantCode(t, err, apperr.CodeInvalidTransition)
	if apperr.StatusFor(apperr.CodeInvalidTransition) != 400 {
		t.Error("invalid transitions must answer 400")
	}

	_, err = e.svc.TransitionRequest(ctx, e.vol, pending.ID, models.RequestOpen)
	wantCode(t, err, apperr.CodeForbidden)

	bad := "finished"
	_, err = e.svc.UpdateRequest(ctx, e.admin, pending.ID, workflow.RequestUpdate{Status: &bad})
	wantCode(t, err, apperr.CodeBadRequest)

	alias := "in_progress"
	open := e.fx.CreateRequest(ctx, models.RequestMatched, models.Request{})
	got, err := e.svc.UpdateRequest(ctx, e.admin, open.ID, workflow.RequestUpdate{Status: &alias})
	if err != nil || got.Status != models.RequestInProgress {
		t.Errorf("alias: %s, %v", got.Status, err)
	}
}

func TestTransitionRequest_StorageDeadlineIsUnavailable(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := e.svc.TransitionRequest(ctx, e.admin, "any", models.RequestOpen)
	wantCode(t, err, apperr.CodeUnavailable)
	if !apperr.From(err).Retryable {
		t.Error("deadline errors should be retryable")
	}
}

func TestUpdateRequest_FieldsAndStatusTogether(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})
	desc := "Grocery run <b>twice</b> a week"
	status := "open"
	fields := []models.ServiceField{models.FieldDailyHelper, models.FieldNeighbourhoodEar}

	got, err := e.svc.UpdateRequest(ctx, e.admin, r.ID, workflow.RequestUpdate{
		Status:      &status,
		Description: &desc,
		Fields:      &fields,
	})
	if err != nil {
		t.Fatalf("UpdateRequest: %v", err)
	}
	stored := e.fx.GetRequest(ctx, r.ID)
	if diff := cmp.Diff(got, stored); diff != "" {
		t.Errorf("returned vs stored (-got +stored):\n%s", diff)
	}
	if stored.Status != models.RequestOpen || stored.Description != "Grocery run twice a week" || len(stored.Fields) != 2 {
		t.Errorf("stored = %+v", stored)
	}
	if diff := cmp.Diff([]string{auditlog.ActionUpdateRequest, auditlog.ActionUpdateRequestStatus}, e.auditActions(t)); diff != "" {
		t.Errorf("audit (-want +got):\n%s", diff)
	}

	empty := []models.ServiceField{}
	_, err = e.svc.UpdateRequest(ctx, e.admin, r.ID, workflow.RequestUpdate{Fields: &empty})
	wantCode(t, err, apperr.CodeBadRequest)
}

func TestUpdateRequest_NoChangeWritesNothing(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestOpen, models.Request{})
	same := string(models.RequestOpen)
	got, err := e.svc.UpdateRequest(ctx, e.admin, r.ID, workflow.RequestUpdate{Status: &same})
	if err != nil {
		t.Fatalf("UpdateRequest: %v", err)
	}
	if !got.UpdatedAt.Equal(r.UpdatedAt) {
		t.Error("no-op should not bump updatedAt")
	}
	if len(e.auditActions(t)) != 0 {
		t.Error("no-op should not be audited")
	}

	fields := append([]models.ServiceField(nil), r.Fields...)
	desc := r.Description
	got, err = e.svc.UpdateRequest(ctx, e.admin, r.ID, workflow.RequestUpdate{Fields: &fields, Description: &desc})
	if err != nil {
		t.Fatalf("UpdateRequest with unchanged fields: %v", err)
	}
	if !got.UpdatedAt.Equal(r.UpdatedAt) {
		t.Error("resubmitting the same fields should not bump updatedAt")
	}
	if actions := e.auditActions(t); len(actions) != 0 {
		t.Errorf("resubmitting the same fields was audited: %v", actions)
	}
}

func TestScenario_MergeHidesAbsorbedRequests(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r1 := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})
	r2 := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})
	r3 := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})

	main, err := e.svc.MergeRequests(ctx, e.admin, r1.ID, []string{r2.ID, r3.ID})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if diff := cmp.Diff([]string{r2.ID, r3.ID}, main.MergedWith); diff != "" {
		t.Errorf("returned mergedWith (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{r2.ID, r3.ID}, e.fx.GetRequest(ctx, r1.ID).MergedWith); diff != "" {
		t.Errorf("stored mergedWith (-want +got):\n%s", diff)
	}
	for _, id := range []string{r2.ID, r3.ID} {
		got := e.fx.GetRequest(ctx, id)
		if !got.IsMerged || !slices.Equal(got.MergedWith, []string{r1.ID}) {
			t.Errorf("absorbed %s = isMerged %v mergedWith %v", id, got.IsMerged, got.MergedWith)
		}
	}

	listed, err := requeststore.New(e.db).List(ctx, requeststore.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != r1.ID {
		t.Errorf("default listing = %v", listed)
	}
}

func TestMergedRequestIsFrozen(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r1 := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})
	r2 := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})
	if _, err := e.svc.MergeRequests(ctx, e.admin, r1.ID, []string{r2.ID}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	_, err := e.svc.TransitionRequest(ctx, e.admin, r2.ID, models.RequestOpen)
	wantCode(t, err, apperr.CodeConflict)

	_, err = e.svc.AddFollowUp(ctx, e.admin, r2.ID, workflow.FollowUpInput{Method: "phone", Content: "x"})
	wantCode(t, err, apperr.CodeConflict)

	_, err = e.svc.MergeRequests(ctx, e.admin, r1.ID, []string{r2.ID})
	wantCode(t, err, apperr.CodeConflict)

	_, err = e.svc.CreateApplication(ctx, e.vol, workflow.NewApplication{RequestID: r2.ID, VolunteerID: e.vol.ID})
	wantCode(t, err, apperr.CodeConflict)

	if got := e.fx.GetRequest(ctx, r2.ID).Status; got != models.RequestPending {
		t.Errorf("merged request status changed to %s", got)
	}
}

func TestMerge_InvalidInputWritesNothing(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r1 := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})
	r2 := e.fx.CreateRequest(ctx, models.RequestOpen, models.Request{})
	before := []models.Request{e.fx.GetRequest(ctx, r1.ID), e.fx.GetRequest(ctx, r2.ID)}

	tests := []struct {
		name string
		main string
		ids  []string
		want apperr.Code
	}{
		{"empty list", r1.ID, []string{}, apperr.CodeBadRequest},
		{"nil list", r1.ID, nil, apperr.CodeBadRequest},
		{"missing main", "", []string{r2.ID}, apperr.CodeBadRequest},
		{"self merge", r1.ID, []string{r1.ID}, apperr.CodeBadRequest},
		{"unknown id", r1.ID, []string{r2.ID, "ghost"}, apperr.CodeNotFound},
		{"unknown main", "ghost", []string{r2.ID}, apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.MergeRequests(ctx, e.admin, tt.main, tt.ids)
			wantCode(t, err, tt.want)
		})
	}

	after := []models.Request{e.fx.GetRequest(ctx, r1.ID), e.fx.GetRequest(ctx, r2.ID)}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("requests modified (-before +after):\n%s", diff)
	}

	_, err := e.svc.MergeRequests(ctx, e.vol, r1.ID, []string{r2.ID})
	wantCode(t, err, apperr.CodeForbidden)
}

func TestCreateApplication_Guards(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	open := e.fx.CreateRequest(ctx, models.RequestOpen, models.Request{})
	done := e.fx.CreateRequest(ctx, models.RequestCompleted, models.Request{})
	pendingVol := testutil.PendingVolunteerUser().Actor()
	e.fx.CreateUser(ctx, pendingVol.ID, models.RoleVolunteer, models.UserPending)
	unknownVol := testutil.VolunteerUser().Actor()

	tests := []struct {
		name  string
		actor models.Actor
		in    workflow.NewApplication
		want  apperr.Code
	}{
		{"missing fields", e.vol, workflow.NewApplication{RequestID: open.ID}, apperr.CodeBadRequest},
		{"uid mismatch", e.vol, workflow.NewApplication{RequestID: open.ID, VolunteerID: "someone-else"}, apperr.CodeForbidden},
		{"admin", e.admin, workflow.NewApplication{RequestID: open.ID, VolunteerID: e.admin.ID}, apperr.CodeForbidden},
		{"pending volunteer", pendingVol, workflow.NewApplication{RequestID: open.ID, VolunteerID: pendingVol.ID}, apperr.CodeForbidden},
		{"no profile", unknownVol, workflow.NewApplication{RequestID: open.ID, VolunteerID: unknownVol.ID}, apperr.CodeForbidden},
		{"unknown request", e.vol, workflow.NewApplication{RequestID: "ghost", VolunteerID: e.vol.ID}, apperr.CodeNotFound},
		{"completed request", e.vol, workflow.NewApplication{RequestID: done.ID, VolunteerID: e.vol.ID}, apperr.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.CreateApplication(ctx, tt.actor, tt.in)
			wantCode(t, err, tt.want)
		})
	}
	if n := e.db.Count(applicationstore.Collection); n != 0 {
		t.Errorf("expected no applications, got %d", n)
	}
}

func TestCreateApplication_DuplicateIsConflict(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestPublished, models.Request{})
	in := workflow.NewApplication{RequestID: r.ID, VolunteerID: e.vol.ID}
	first, err := e.svc.CreateApplication(ctx, e.vol, in)
	if err != nil {
		t.Fatalf("first application: %v", err)
	}
	if first.VolunteerName != "User "+e.vol.ID {
		t.Errorf("volunteerName = %q", first.VolunteerName)
	}

	_, err = e.svc.CreateApplication(ctx, e.vol, in)
	wantCode(t, err, apperr.CodeConflict)
	if n := e.db.Count(applicationstore.Collection); n != 1 {
		t.Errorf("expected 1 application, got %d", n)
	}
}

// pairRaceDB holds every applications query until both callers have run
// theirs, so two applies both see no existing application before writing.
type pairRaceDB struct {
	*memdb.DB
	gate sync.WaitGroup
}

func (d *pairRaceDB) Query(ctx context.Context, coll string, q docstore.Query, dst any) error {
	err := d.DB.Query(ctx, coll, q, dst)
	if coll == applicationstore.Collection {
		d.gate.Done()
		d.gate.Wait()
	}
	return err
}

func TestCreateApplication_ConcurrentApplyCreatesOne(t *testing.T) {
	db := &pairRaceDB{DB: testutil.NewDB(t)}
	db.gate.Add(2)
	audit := auditlog.New(activitylogstore.New(db), zap.NewNop(), auditlog.Config{Admin: "off"})
	svc := workflow.New(db, audit, metrics.New(), zap.NewNop())
	fx := testutil.NewFixtures(t, db.DB)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	vol := testutil.VolunteerUser().Actor()
	fx.CreateUser(ctx, vol.ID, models.RoleVolunteer, models.UserApproved)
	r := fx.CreateRequest(ctx, models.RequestPublished, models.Request{})
	in := workflow.NewApplication{RequestID: r.ID, VolunteerID: vol.ID}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateApplication(ctx, vol, in)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.Is(err, apperr.CodeConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Errorf("got %d created and %d conflicts, want 1 and 1", ok, conflicts)
	}
	if n := db.Count(applicationstore.Collection); n != 1 {
		t.Errorf("stored %d applications for one (request, volunteer) pair, want 1", n)
	}
	fx.GetApplication(ctx, applicationstore.PairID(r.ID, vol.ID))
}

func TestCreateApplication_ReapplyAfterWithdraw(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestOpen, models.Request{})
	in := workflow.NewApplication{RequestID: r.ID, VolunteerID: e.vol.ID}
	a, err := e.svc.CreateApplication(ctx, e.vol, in)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.ID != applicationstore.PairID(r.ID, e.vol.ID) {
		t.Errorf("id = %q, want the pair id", a.ID)
	}
	if err := e.svc.WithdrawApplication(ctx, e.vol, a.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := e.svc.CreateApplication(ctx, e.vol, in); err != nil {
		t.Errorf("re-apply after withdrawal: %v", err)
	}
}

func TestUpdateApplication_Permissions(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestOpen, models.Request{})
	mine := e.fx.CreateApplication(ctx, r.ID, e.vol.ID, models.ApplicationPending)
	theirs := e.fx.CreateApplication(ctx, r.ID, "v-other", models.ApplicationPending)

	_, err := e.svc.TransitionApplication(ctx, e.vol, mine.ID, models.ApplicationApproved)
	wantCode(t, err, apperr.CodeForbidden)

	msg := "Can come on weekends"
	_, err = e.svc.UpdateApplication(ctx, e.vol, theirs.ID, workflow.ApplicationUpdate{Message: &msg})
	wantCode(t, err, apperr.CodeForbidden)

	got, err := e.svc.UpdateApplication(ctx, e.vol, mine.ID, workflow.ApplicationUpdate{Message: &msg})
	if err != nil || got.Message != msg {
		t.Fatalf("owner edit: %+v, %v", got, err)
	}

	notes := "reliable"
	_, err = e.svc.UpdateApplication(ctx, e.vol, mine.ID, workflow.ApplicationUpdate{AdminNotes: &notes})
	wantCode(t, err, apperr.CodeForbidden)

	_, err = e.svc.TransitionApplication(ctx, e.admin, "ghost", models.ApplicationApproved)
	wantCode(t, err, apperr.CodeNotFound)

	_, err = e.svc.TransitionApplication(ctx, e.admin, mine.ID, models.ApplicationCompleted)
	wantCode(t, err, apperr.CodeInvalidTransition)

	accepted := "accepted"
	got, err = e.svc.UpdateApplication(ctx, e.admin, mine.ID, workflow.ApplicationUpdate{Status: &accepted})
	if err != nil || got.Status != models.ApplicationApproved {
		t.Errorf("accepted alias: %s, %v", got.Status, err)
	}
}

func TestApproveAgainstFinishedRequestIsConflict(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestCancelled, models.Request{})
	a := e.fx.CreateApplication(ctx, r.ID, "v1", models.ApplicationPending)

	_, err := e.svc.TransitionApplication(ctx, e.admin, a.ID, models.ApplicationApproved)
	wantCode(t, err, apperr.CodeConflict)
	if got := e.fx.GetApplication(ctx, a.ID).Status; got != models.ApplicationPending {
		t.Errorf("application changed to %s", got)
	}
}

func TestWithdrawApplication(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestMatched, models.Request{AssignedVolunteerIDs: []string{e.vol.ID}})
	approved := e.fx.CreateApplication(ctx, r.ID, e.vol.ID, models.ApplicationApproved)

	err := e.svc.WithdrawApplication(ctx, e.vol, approved.ID)
	wantCode(t, err, apperr.CodeBadRequest)

	other := testutil.VolunteerUser().Actor()
	err = e.svc.WithdrawApplication(ctx, other, approved.ID)
	wantCode(t, err, apperr.CodeForbidden)

	if err := e.svc.WithdrawApplication(ctx, e.admin, approved.ID); err != nil {
		t.Fatalf("admin withdraw: %v", err)
	}
	if n := e.db.Count(applicationstore.Collection); n != 0 {
		t.Errorf("application not deleted")
	}
	if got := e.fx.GetRequest(ctx, r.ID).AssignedVolunteerIDs; len(got) != 0 {
		t.Errorf("volunteer still assigned: %v", got)
	}

	err = e.svc.WithdrawApplication(ctx, e.admin, approved.ID)
	wantCode(t, err, apperr.CodeNotFound)

	pending := e.fx.CreateApplication(ctx, r.ID, e.vol.ID, models.ApplicationPending)
	if err := e.svc.WithdrawApplication(ctx, e.vol, pending.ID); err != nil {
		t.Fatalf("owner withdraw of pending: %v", err)
	}
	if diff := cmp.Diff([]string{auditlog.ActionDeleteApplication}, e.auditActions(t)); diff != "" {
		t.Errorf("only admin deletes are audited (-want +got):\n%s", diff)
	}
}

func TestDeleteRequest_RemovesApplications(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestOpen, models.Request{})
	e.fx.CreateApplication(ctx, r.ID, "v1", models.ApplicationPending)
	e.fx.CreateApplication(ctx, r.ID, "v2", models.ApplicationApproved)
	keep := e.fx.CreateApplication(ctx, "other", "v1", models.ApplicationPending)

	if err := e.svc.DeleteRequest(ctx, e.admin, r.ID); err != nil {
		t.Fatalf("DeleteRequest: %v", err)
	}
	if n := e.db.Count(requeststore.Collection); n != 0 {
		t.Errorf("request not deleted")
	}
	if n := e.db.Count(applicationstore.Collection); n != 1 {
		t.Errorf("expected only the unrelated application to remain, got %d", n)
	}
	e.fx.GetApplication(ctx, keep.ID)

	wantCode(t, e.svc.DeleteRequest(ctx, e.admin, r.ID), apperr.CodeNotFound)
}

func TestDeleteRequest_MergeLinks(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	survivor := e.fx.CreateRequest(ctx, models.RequestOpen, models.Request{})
	dup1 := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})
	dup2 := e.fx.CreateRequest(ctx, models.RequestPending, models.Request{})
	if _, err := e.svc.MergeRequests(ctx, e.admin, survivor.ID, []string{dup1.ID, dup2.ID}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	wantCode(t, e.svc.DeleteRequest(ctx, e.admin, survivor.ID), apperr.CodeConflict)
	e.fx.GetRequest(ctx, survivor.ID)

	if err := e.svc.DeleteRequest(ctx, e.admin, dup1.ID); err != nil {
		t.Fatalf("delete absorbed request: %v", err)
	}
	if diff := cmp.Diff([]string{dup2.ID}, e.fx.GetRequest(ctx, survivor.ID).MergedWith); diff != "" {
		t.Errorf("survivor mergedWith (-want +got):\n%s", diff)
	}

	if err := e.svc.DeleteRequest(ctx, e.admin, dup2.ID); err != nil {
		t.Fatalf("delete last absorbed request: %v", err)
	}
	if got := e.fx.GetRequest(ctx, survivor.ID).MergedWith; len(got) != 0 {
		t.Errorf("survivor still lists %v", got)
	}
	if err := e.svc.DeleteRequest(ctx, e.admin, survivor.ID); err != nil {
		t.Errorf("delete survivor once emptied: %v", err)
	}
	if n := e.db.Count(requeststore.Collection); n != 0 {
		t.Errorf("%d requests left", n)
	}
}

func TestAddFollowUp_RecordsActor(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := e.fx.CreateRequest(ctx, models.RequestMatched, models.Request{})
	fu, err := e.svc.AddFollowUp(ctx, e.admin, r.ID, workflow.FollowUpInput{Method: "phone", Content: "Called, all good"})
	if err != nil {
		t.Fatalf("AddFollowUp: %v", err)
	}
	want := models.FollowUp{Date: svcNow, Method: "phone", Content: "Called, all good", AdminID: e.admin.ID}
	if diff := cmp.Diff(want, fu); diff != "" {
		t.Errorf("follow-up (-want +got):\n%s", diff)
	}
	if got := e.fx.GetRequest(ctx, r.ID).FollowUps; len(got) != 1 || got[0].AdminID != e.admin.ID {
		t.Errorf("stored follow-ups = %+v", got)
	}

	_, err = e.svc.AddFollowUp(ctx, e.admin, r.ID, workflow.FollowUpInput{Method: "phone", Content: "  "})
	wantCode(t, err, apperr.CodeBadRequest)
}

func TestSubmitAndCreateRequest(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	in := workflow.NewRequest{
		Requester:   workflow.RequesterInput{Name: "黃伯", Phone: "61234567", Age: "85", District: "元朗"},
		Description: "Needs help changing a light bulb",
		Fields:      []models.ServiceField{models.FieldDailyHelper},
		AdminNotes:  "Call before noon",
	}
	r, err := e.svc.SubmitRequest(ctx, in)
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if r.Status != models.RequestPending || r.IsMerged || r.AdminNotes != "" {
		t.Errorf("submitted = %+v", r)
	}
	if len(r.TrackingNumber()) != 8 {
		t.Errorf("tracking number = %q", r.TrackingNumber())
	}

	in.Description = "<script>x</script>"
	_, err = e.svc.SubmitRequest(ctx, in)
	wantCode(t, err, apperr.CodeBadRequest)

	in.Description = "Admin-entered"
	_, err = e.svc.CreateRequest(ctx, e.vol, in)
	wantCode(t, err, apperr.CodeForbidden)

	created, err := e.svc.CreateRequest(ctx, e.admin, in)
	if err != nil || created.AdminNotes != "Call before noon" {
		t.Fatalf("CreateRequest: %+v, %v", created, err)
	}
	if diff := cmp.Diff([]string{auditlog.ActionCreateRequest}, e.auditActions(t)); diff != "" {
		t.Errorf("audit (-want +got):\n%s", diff)
	}
}

func TestReviewVolunteer(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fx.CreateUser(ctx, "cand", models.RoleVolunteer, models.UserPending)
	approved := "approved"
	notes := "Interviewed by phone"

	u, err := e.svc.ReviewVolunteer(ctx, e.admin, "cand", workflow.VolunteerReview{Status: &approved, InterviewNotes: &notes})
	if err != nil {
		t.Fatalf("ReviewVolunteer: %v", err)
	}
	stored := e.fx.GetUser(ctx, "cand")
	if stored.Status != models.UserApproved || stored.InterviewNotes != notes || stored.InterviewDate == nil {
		t.Errorf("stored = %+v", stored)
	}
	if u.Status != models.UserApproved {
		t.Errorf("returned status = %s", u.Status)
	}
	if diff := cmp.Diff([]string{auditlog.ActionUpdateVolunteerStatus}, e.auditActions(t)); diff != "" {
		t.Errorf("audit (-want +got):\n%s", diff)
	}

	_, err = e.svc.ReviewVolunteer(ctx, e.admin, "ghost", workflow.VolunteerReview{Status: &approved})
	wantCode(t, err, apperr.CodeNotFound)

	_, err = e.svc.ReviewVolunteer(ctx, e.vol, "cand", workflow.VolunteerReview{Status: &approved})
	wantCode(t, err, apperr.CodeForbidden)
}
