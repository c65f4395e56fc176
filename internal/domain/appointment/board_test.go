package appointment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/akith22/DiagNote-sub000/internal/domain/status"
	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

// fakeBackend serves /doctor/appointments and its transitions from memory.
type fakeBackend struct {
	mu          sync.Mutex
	rows        []Appointment
	listCalls   int
	posts       []string
	omitID      bool
	dropOnPost  bool
	envelope    bool
	failStatus  int
	failMessage string
}

func (f *fakeBackend) register(e *echo.Echo) {
	e.GET("/api/doctor/appointments", func(c echo.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listCalls++
		return c.JSON(http.StatusOK, f.rows)
	})
	e.POST("/api/doctor/appointments/:id/:action", func(c echo.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.posts = append(f.posts, c.Param("action"))
		if f.failStatus != 0 {
			return c.JSON(f.failStatus, map[string]string{"message": f.failMessage})
		}
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		for i := range f.rows {
			if f.rows[i].ID != id {
				continue
			}
			switch c.Param("action") {
			case "accept":
				f.rows[i].Status = "CONFIRMED"
			case "decline":
				f.rows[i].Status = "REJECTED"
			}
			resp := f.rows[i]
			if f.dropOnPost {
				f.rows = append(f.rows[:i], f.rows[i+1:]...)
			}
			if f.omitID {
				resp.ID = 0
			}
			if f.envelope {
				return c.JSON(http.StatusOK, map[string]interface{}{"data": resp})
			}
			return c.JSON(http.StatusOK, resp)
		}
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Appointment not found"})
	})
}

func newTestBoard(t *testing.T, f *fakeBackend) *Board {
	t.Helper()
	e := echo.New()
	f.register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return NewBoard(apiclient.New(srv.URL+"/api", nil), zerolog.Nop())
}

func seedRows() []Appointment {
	return []Appointment{
		{ID: 1, PatientName: "Nimal", PatientID: 10, Date: "2024-01-15T09:00:00", Status: "PENDING"},
		{ID: 2, PatientName: "Kamala", PatientID: 11, Date: "2024-01-15T10:00:00", Status: "CONFIRMED"},
		{ID: 3, PatientName: "Sunil", PatientID: 12, Date: "2024-01-17T13:00:00", Status: "CANCELED"},
	}
}

func TestBoard_RefreshNormalizes(t *testing.T) {
	f := &fakeBackend{rows: seedRows()}
	b := newTestBoard(t, f)

	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := b.Rows()
	want := []string{status.Pending, status.Accepted, status.Declined}
	for i, r := range rows {
		if r.Status != want[i] {
			t.Errorf("row %d: expected %s, got %s", r.ID, want[i], r.Status)
		}
	}
}

func TestBoard_TransitionReplacesRowWithoutRefetch(t *testing.T) {
	for _, envelope := range []bool{false, true} {
		t.Run("envelope="+strconv.FormatBool(envelope), func(t *testing.T) {
			f := &fakeBackend{rows: seedRows(), envelope: envelope}
			b := newTestBoard(t, f)
			ctx := context.Background()
			if err := b.Refresh(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, err := b.Accept(ctx, 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != status.Accepted {
				t.Errorf("expected ACCEPTED, got %s", got.Status)
			}
			if f.listCalls != 1 {
				t.Errorf("expected no re-fetch, got %d list calls", f.listCalls)
			}

			rows := b.Rows()
			if rows[0].Status != status.Accepted {
				t.Errorf("expected row 1 to be ACCEPTED, got %s", rows[0].Status)
			}
			if rows[1].Status != status.Accepted || rows[2].Status != status.Declined {
				t.Errorf("other rows changed: %+v", rows)
			}
			if b.Busy(1) {
				t.Error("expected busy flag to be cleared")
			}
		})
	}
}

func TestBoard_TransitionWithoutIDRefetches(t *testing.T) {
	f := &fakeBackend{rows: seedRows(), omitID: true}
	b := newTestBoard(t, f)
	ctx := context.Background()
	b.Refresh(ctx)

	got, err := b.Decline(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.listCalls != 2 {
		t.Errorf("expected a full re-fetch, got %d list calls", f.listCalls)
	}
	if got == nil || got.Status != status.Declined {
		t.Errorf("expected refreshed row to be DECLINED, got %+v", got)
	}
}

func TestBoard_TransitionRowGoneAfterRefetch(t *testing.T) {
	f := &fakeBackend{rows: seedRows(), omitID: true, dropOnPost: true}
	b := newTestBoard(t, f)
	ctx := context.Background()
	b.Refresh(ctx)

	got, err := b.Accept(ctx, 1)
	if !errors.Is(err, ErrNotOnBoard) {
		t.Fatalf("expected ErrNotOnBoard, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no row, got %+v", got)
	}
	if f.listCalls != 2 {
		t.Errorf("expected a full re-fetch, got %d list calls", f.listCalls)
	}
	if b.Busy(1) {
		t.Error("expected busy flag cleared")
	}
	if _, ok := b.Find(1); ok {
		t.Error("expected row absent from the board")
	}
}

func TestBoard_CancelUsesDeclineTransition(t *testing.T) {
	f := &fakeBackend{rows: seedRows()}
	b := newTestBoard(t, f)
	ctx := context.Background()
	b.Refresh(ctx)

	got, err := b.Cancel(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.posts) != 1 || f.posts[0] != "decline" {
		t.Errorf("expected cancel to call decline, got %v", f.posts)
	}
	if got.Status != status.Declined {
		t.Errorf("expected DECLINED, got %s", got.Status)
	}
}

func TestBoard_AcceptAgain(t *testing.T) {
	f := &fakeBackend{rows: seedRows()}
	b := newTestBoard(t, f)
	ctx := context.Background()
	b.Refresh(ctx)

	got, err := b.Accept(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != status.Accepted {
		t.Errorf("expected ACCEPTED after accept again, got %s", got.Status)
	}
}

func TestBoard_RejectsActionsNotOffered(t *testing.T) {
	f := &fakeBackend{rows: seedRows()}
	b := newTestBoard(t, f)
	ctx := context.Background()
	b.Refresh(ctx)

	tests := []struct {
		id     int64
		action Action
	}{
		{1, ActionCancel},
		{2, ActionAccept},
		{3, ActionDecline},
		{99, ActionAccept},
	}
	for _, tt := range tests {
		if _, err := b.Transition(ctx, tt.id, tt.action); !apiclient.IsKind(err, apiclient.KindValidation) {
			t.Errorf("%s on %d: expected validation error, got %v", tt.action, tt.id, err)
		}
	}
	if len(f.posts) != 0 {
		t.Errorf("expected no transition calls, got %v", f.posts)
	}
}

func TestBoard_FailureSetsBannerAndClearsBusy(t *testing.T) {
	f := &fakeBackend{rows: seedRows(), failStatus: http.StatusInternalServerError, failMessage: "Transition failed"}
	b := newTestBoard(t, f)
	ctx := context.Background()
	b.Refresh(ctx)

	if _, err := b.Accept(ctx, 1); err == nil {
		t.Fatal("expected error")
	}
	if b.Banner() != "Transition failed" {
		t.Errorf("expected banner message, got %q", b.Banner())
	}
	if b.Busy(1) {
		t.Error("expected busy flag to be cleared after failure")
	}
	if row, _ := b.Find(1); row.Status != status.Pending {
		t.Errorf("expected row to stay PENDING, got %s", row.Status)
	}
	if len(f.posts) != 1 {
		t.Errorf("expected exactly one attempt, got %d", len(f.posts))
	}

	b.DismissBanner()
	if b.Banner() != "" {
		t.Error("expected banner to be dismissed")
	}
}

func TestActions(t *testing.T) {
	tests := []struct {
		status string
		want   []Action
	}{
		{"PENDING", []Action{ActionAccept, ActionDecline}},
		{"CONFIRMED", []Action{ActionCancel}},
		{"REJECTED", []Action{ActionAccept}},
		{"COMPLETED", nil},
	}
	for _, tt := range tests {
		got := Actions(tt.status)
		if len(got) != len(tt.want) {
			t.Errorf("Actions(%s) = %v, want %v", tt.status, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Actions(%s) = %v, want %v", tt.status, got, tt.want)
			}
		}
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction(" Cancel "); err != nil || a != ActionCancel {
		t.Errorf("expected cancel, got %q, %v", a, err)
	}
	if _, err := ParseAction("complete"); err == nil {
		t.Error("expected error for unknown action")
	}
}
