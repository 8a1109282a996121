package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/internal/apiclient"
	"github.com/taskboard/internal/session"
	"github.com/taskboard/internal/validation"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *session.Manager) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess, err := session.NewManager(srv.URL)
	require.NoError(t, err)
	cfg := apiclient.DefaultConfig()
	cfg.BaseURL = srv.URL
	client, err := apiclient.New(cfg, sess, nil)
	require.NoError(t, err)
	return NewService(client, nil), sess
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"", "", false},
		{"pending", StatusPending, false},
		{"COMPLETED", StatusCompleted, false},
		{" Completed ", StatusCompleted, false},
		{"done", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, validation.ErrInvalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "report", r.URL.Query().Get("search"))
		assert.Equal(t, "COMPLETED", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{
			"data": [{"id":"t1","title":"Write report","status":"COMPLETED","createdAt":"2026-01-02T03:04:05Z"}],
			"pagination": {"page":2,"limit":5,"total":6,"totalPages":2}
		}`))
	}))

	page, err := svc.List(context.Background(), ListParams{Page: 2, Search: "report", Status: StatusCompleted})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "t1", page.Data[0].ID)
	assert.Equal(t, StatusCompleted, page.Data[0].Status)
	assert.Nil(t, page.Data[0].Description)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestList_Defaults(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, has := r.URL.Query()["status"]
		assert.False(t, has, "no status filter is sent when unset")
		_, _ = w.Write([]byte(`{}`))
	}))

	page, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.Equal(t, 1, page.Pagination.Page)
}

func TestCreate(t *testing.T) {
	var got Input
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"t9","title":"Ship it","status":"PENDING"}}`))
	}))

	task, err := svc.Create(context.Background(), Input{Title: "  Ship it ", Description: " soon "})
	require.NoError(t, err)
	assert.Equal(t, "t9", task.ID)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, Input{Title: "Ship it", Description: "soon"}, got)
}

func TestCreate_RequiresTitle(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := svc.Create(context.Background(), Input{Title: "   "})
	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)
}

func TestUpdateDeleteToggle(t *testing.T) {
	var calls []string
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"success":true}`))
		case http.MethodPatch:
			_, _ = w.Write([]byte(`{"id":"t1","title":"Write tests","status":"COMPLETED"}`))
		default:
			_, _ = w.Write([]byte(`{"id":"t1","title":"Renamed","status":"PENDING"}`))
		}
	}))
	ctx := context.Background()

	updated, err := svc.Update(ctx, "t1", Input{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	toggled, err := svc.Toggle(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, toggled.Status)

	require.NoError(t, svc.Delete(ctx, "t1"))

	assert.Equal(t, []string{
		"PUT /tasks/t1",
		"PATCH /tasks/t1/toggle",
		"DELETE /tasks/t1",
	}, calls)
}

func TestRejectsPathLikeIDs(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "../users"), validation.ErrInvalid)
	_, err := svc.Toggle(ctx, "")
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestList_ServerErrorCarriesMessage(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database unavailable"}`))
	}))

	_, err := svc.List(context.Background(), ListParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apiclient.ErrApplication))
	assert.Equal(t, "database unavailable", apiclient.Message(err, "Failed to load tasks"))
}
