package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskpulse/taskpulse-go/internal/credstore"
	"github.com/taskpulse/taskpulse-go/internal/gateway"
	"github.com/taskpulse/taskpulse-go/internal/session"
	"github.com/taskpulse/taskpulse-go/internal/tasks"
	"github.com/taskpulse/taskpulse-go/internal/tokens/tokentest"
)

func TestTasks_CRUD(t *testing.T) {
	f := newFixture(t)
	tok, err := f.issuer.Issue(7, "seven@example.com")
	require.NoError(t, err)

	rw, body := f.do(t, http.MethodPost, "/api/v1/7/tasks", tok, map[string]interface{}{"title": "write docs"})
	require.Equal(t, http.StatusOK, rw.Code, rw.Body.String())
	require.Equal(t, "write docs", body["title"])
	require.EqualValues(t, 7, body["user_id"])
	require.Equal(t, false, body["is_completed"])
	id := strconv.FormatInt(int64(body["id"].(float64)), 10)

	rw, body = f.do(t, http.MethodPatch, "/api/v1/7/tasks/"+id, tok, map[string]interface{}{"is_completed": true})
	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, true, body["is_completed"])

	rw, body = f.do(t, http.MethodPut, "/api/v1/7/tasks/"+id, tok, map[string]interface{}{"title": "write better docs"})
	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, "write better docs", body["title"])

	rw, _ = f.do(t, http.MethodGet, "/api/v1/7/tasks", tok, nil)
	require.Equal(t, http.StatusOK, rw.Code)
	require.Contains(t, rw.Body.String(), "write better docs")

	rw, _ = f.do(t, http.MethodDelete, "/api/v1/7/tasks/"+id, tok, nil)
	require.Equal(t, http.StatusOK, rw.Code)

	rw, body = f.do(t, http.MethodGet, "/api/v1/7/tasks/"+id, tok, nil)
	require.Equal(t, http.StatusNotFound, rw.Code)
	require.Equal(t, "Task not found", body["detail"])
}

func TestTasks_OwnerIsolation(t *testing.T) {
	f := newFixture(t)
	seven, err := f.issuer.Issue(7, "seven@example.com")
	require.NoError(t, err)
	eight, err := f.issuer.Issue(8, "eight@example.com")
	require.NoError(t, err)

	rw, body := f.do(t, http.MethodPost, "/api/v1/7/tasks", seven, map[string]interface{}{"title": "private"})
	require.Equal(t, http.StatusOK, rw.Code)
	id := strconv.FormatInt(int64(body["id"].(float64)), 10)

	rw, body = f.do(t, http.MethodGet, "/api/v1/7/tasks", eight, nil)
	require.Equal(t, http.StatusForbidden, rw.Code)
	require.Contains(t, body["detail"], "Access denied")

	rw, _ = f.do(t, http.MethodGet, "/api/v1/8/tasks/"+id, eight, nil)
	require.Equal(t, http.StatusNotFound, rw.Code)
}

func TestTasks_Validation(t *testing.T) {
	f := newFixture(t)
	tok, err := f.issuer.Issue(7, "seven@example.com")
	require.NoError(t, err)

	rw, body := f.do(t, http.MethodPost, "/api/v1/7/tasks", tok, map[string]interface{}{"title": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rw.Code)
	require.NotEmpty(t, body["detail"])

	rw, _ = f.do(t, http.MethodPatch, "/api/v1/7/tasks/1", tok, map[string]interface{}{})
	require.Equal(t, http.StatusUnprocessableEntity, rw.Code)

	rw, _ = f.do(t, http.MethodGet, "/api/v1/7/tasks/abc", tok, nil)
	require.Equal(t, http.StatusBadRequest, rw.Code)

	rw, body = f.do(t, http.MethodGet, "/api/v1/7/tasks", "", nil)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Equal(t, "unauthorized", body["error"])
}

// The client stack against the dev router: sign up, work on tasks, then
// present a credential the server rejects and watch the 401 path clear the slot.
func TestClientAgainstRouter(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.engine)
	defer srv.Close()

	ctx := context.Background()
	store := credstore.NewMemoryStore()
	clk := session.New(store, nil)
	nav := &gateway.RecordingNavigator{}
	gw := gateway.New(store, clk, nav, gateway.Options{APIURL: srv.URL, APIRoot: "/api/v1"})
	client := tasks.NewClient(gw)

	res, err := gw.Register(ctx, "ada@example.com", "Secret123")
	require.NoError(t, err)
	require.True(t, clk.IsAuthenticated(ctx))

	created, err := client.Create(ctx, tasks.TaskCreate{Title: "from the client"})
	require.NoError(t, err)
	require.Equal(t, res.UserID, created.UserID)

	done, err := client.Toggle(ctx, created.ID, true)
	require.NoError(t, err)
	require.True(t, done.IsCompleted)

	list, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = client.Get(ctx, created.ID+100)
	require.Equal(t, http.StatusNotFound, gateway.StatusCode(err))
	require.Equal(t, 0, nav.Count())

	// A well-formed credential the server did not sign.
	require.NoError(t, store.Store(ctx, tokentest.For(res.UserID, time.Now().Add(time.Hour))))
	_, err = client.List(ctx)
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
	require.False(t, gateway.IsDisplayable(err))
	tok, err := store.Retrieve(ctx)
	require.NoError(t, err)
	require.Empty(t, tok)
	require.Equal(t, 1, nav.Count())
}
