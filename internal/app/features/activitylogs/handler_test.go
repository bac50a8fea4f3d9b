package activitylogs_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/mansiuk/internal/app/features/activitylogs"
	uierrors "github.com/dalemusser/mansiuk/internal/app/features/errors"
	activitylogstore "github.com/dalemusser/mansiuk/internal/app/store/activitylog"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/dalemusser/mansiuk/internal/testutil"
	"go.uber.org/zap"
)

type listBody struct {
	Logs  []models.ActivityLog `json:"logs"`
	Count int                  `json:"count"`
}

func newRouter(t *testing.T) (http.Handler, *activitylogstore.Store) {
	t.Helper()
	db := testutil.NewDB(t)
	logger := zap.NewNop()
	h := activitylogs.NewHandler(db, uierrors.NewErrorLogger(logger), logger)
	sm := testutil.NewSessionManager(t, db)

	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "admin-1", models.RoleAdmin, models.UserApproved)
	fx.CreateUser(ctx, "vol-1", models.RoleVolunteer, models.UserApproved)

	return sm.LoadSessionUser(activitylogs.Routes(h, sm)), h.Logs
}

func serve(h http.Handler, r *http.Request, uid string) *testutil.ResponseRecorder {
	if uid != "" {
		r = testutil.Bearer(r, uid)
	}
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestCreate(t *testing.T) {
	router, _ := newRouter(t)

	rec := serve(router, testutil.JSONRequest(http.MethodPost, "/", map[string]any{
		"action":      "phone_call",
		"targetType":  "request",
		"targetId":    "r1",
		"description": "Called requester to confirm address",
	}), "admin-1")
	rec.AssertStatus(t, http.StatusCreated)

	var entry models.ActivityLog
	rec.DecodeJSON(t, &entry)
	if entry.ID == "" || entry.UserID != "admin-1" || entry.CreatedAt.IsZero() {
		t.Errorf("unexpected entry: %+v", entry)
	}

	tests := []struct {
		name string
		body map[string]any
		uid  string
		want int
	}{
		{"missing description", map[string]any{"action": "x", "targetType": "request", "targetId": "r1"}, "admin-1", http.StatusBadRequest},
		{"unknown target type", map[string]any{"action": "x", "targetType": "planet", "targetId": "r1", "description": "d"}, "admin-1", http.StatusBadRequest},
		{"markup in action", map[string]any{"action": "<b>x</b>", "targetType": "request", "targetId": "r1", "description": "d"}, "admin-1", http.StatusBadRequest},
		{"volunteer", map[string]any{"action": "x", "targetType": "request", "targetId": "r1", "description": "d"}, "vol-1", http.StatusForbidden},
		{"anonymous", map[string]any{"action": "x", "targetType": "request", "targetId": "r1", "description": "d"}, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serve(router, testutil.JSONRequest(http.MethodPost, "/", tt.body), tt.uid).AssertStatus(t, tt.want)
		})
	}
}

func TestList_Filters(t *testing.T) {
	router, store := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	seed := []models.ActivityLog{
		{UserID: "admin-1", Action: "create_request", TargetType: models.TargetRequest, TargetID: "r1", CreatedAt: base},
		{UserID: "admin-1", Action: "merge_requests", TargetType: models.TargetRequest, TargetID: "r1", CreatedAt: base.Add(24 * time.Hour)},
		{UserID: "admin-2", Action: "update_volunteer_status", TargetType: models.TargetUser, TargetID: "vol-1", CreatedAt: base.Add(48 * time.Hour)},
	}
	for _, e := range seed {
		if _, err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{"/", 3},
		{"/?userId=admin-1", 2},
		{"/?action=merge_requests", 1},
		{"/?targetType=user&targetId=vol-1", 1},
		{"/?startDate=2025-05-02&endDate=2025-05-02", 1},
		{"/?endDate=2025-05-01", 1},
		{"/?startDate=2025-05-02T00:00:00Z", 2},
		{"/?limit=2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := serve(router, testutil.JSONRequest(http.MethodGet, tt.query, nil), "admin-1")
			rec.AssertStatus(t, http.StatusOK)
			var body listBody
			rec.DecodeJSON(t, &body)
			if body.Count != tt.want || len(body.Logs) != tt.want {
				t.Errorf("count = %d (%d logs), want %d", body.Count, len(body.Logs), tt.want)
			}
		})
	}

	for _, q := range []string{"/?startDate=yesterday", "/?endDate=05-01-2025", "/?limit=0", "/?limit=501"} {
		serve(router, testutil.JSONRequest(http.MethodGet, q, nil), "admin-1").AssertStatus(t, http.StatusBadRequest)
	}
	serve(router, testutil.JSONRequest(http.MethodGet, "/", nil), "vol-1").AssertStatus(t, http.StatusForbidden)
}
