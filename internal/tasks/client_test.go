package tasks_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpulse/taskpulse-go/internal/credstore"
	"github.com/taskpulse/taskpulse-go/internal/gateway"
	"github.com/taskpulse/taskpulse-go/internal/session"
	"github.com/taskpulse/taskpulse-go/internal/tasks"
	"github.com/taskpulse/taskpulse-go/internal/tokens/tokentest"
)

type recorded struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type harness struct {
	client *tasks.Client
	store  *credstore.MemoryStore
	nav    *gateway.RecordingNavigator
	mock   *clock.Mock

	mu   sync.Mutex
	reqs []recorded
}

func newHarness(t *testing.T, status int, reply string) *harness {
	t.Helper()
	h := &harness{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		h.mu.Lock()
		h.reqs = append(h.reqs, recorded{r.Method, r.URL.Path, r.Header.Get("Authorization"), string(b)})
		h.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	h.mock = clock.NewMock()
	h.mock.Set(time.Unix(1_700_000_000, 0))
	h.store = credstore.NewMemoryStore()
	h.nav = &gateway.RecordingNavigator{}
	gw := gateway.New(h.store, session.New(h.store, h.mock), h.nav, gateway.Options{
		APIURL:     srv.URL,
		APIRoot:    "/api/v1",
		SignInPath: "/signin",
		HTTPClient: srv.Client(),
	})
	h.client = tasks.NewClient(gw)
	return h
}

func (h *harness) requests() []recorded {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]recorded(nil), h.reqs...)
}

func TestList_ScopedToSubject(t *testing.T) {
	h := newHarness(t, http.StatusOK, `[{"id":1,"title":"milk","is_completed":false,"user_id":7}]`)
	raw := tokentest.For(7, h.mock.Now().Add(time.Hour))
	require.NoError(t, h.store.Store(context.Background(), raw))

	list, err := h.client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "milk", list[0].Title)

	reqs := h.requests()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodGet, reqs[0].Method)
	require.Equal(t, "/api/v1/7/tasks", reqs[0].Path)
	require.Equal(t, "Bearer "+raw, reqs[0].Auth)
}

func TestOperations_UseExpectedMethodsAndPaths(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"id":3,"title":"x","is_completed":true,"user_id":7}`)
	ctx := context.Background()
	require.NoError(t, h.store.Store(ctx, tokentest.For(7, h.mock.Now().Add(time.Hour))))

	_, err := h.client.Get(ctx, 3)
	require.NoError(t, err)
	_, err = h.client.Create(ctx, tasks.TaskCreate{Title: "x"})
	require.NoError(t, err)
	title := "y"
	_, err = h.client.Update(ctx, 3, tasks.TaskUpdate{Title: &title})
	require.NoError(t, err)
	tk, err := h.client.Toggle(ctx, 3, true)
	require.NoError(t, err)
	require.True(t, tk.IsCompleted)
	require.NoError(t, h.client.Delete(ctx, 3))

	reqs := h.requests()
	require.Len(t, reqs, 5)
	want := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/7/tasks/3"},
		{http.MethodPost, "/api/v1/7/tasks"},
		{http.MethodPut, "/api/v1/7/tasks/3"},
		{http.MethodPatch, "/api/v1/7/tasks/3"},
		{http.MethodDelete, "/api/v1/7/tasks/3"},
	}
	for i, w := range want {
		assert.Equal(t, w.method, reqs[i].Method)
		assert.Equal(t, w.path, reqs[i].Path)
		assert.True(t, strings.HasPrefix(reqs[i].Auth, "Bearer "))
	}

	var patch map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(reqs[3].Body), &patch))
	require.Equal(t, map[string]interface{}{"is_completed": true}, patch)

	var put map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(reqs[2].Body), &put))
	require.Equal(t, map[string]interface{}{"title": "y"}, put)
}

func TestUnauthorizedClearsStore(t *testing.T) {
	h := newHarness(t, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
	ctx := context.Background()
	require.NoError(t, h.store.Store(ctx, tokentest.For(7, h.mock.Now().Add(time.Hour))))

	_, err := h.client.List(ctx)
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
	got, _ := h.store.Retrieve(ctx)
	require.Empty(t, got)
	require.Equal(t, []string{"/signin"}, h.nav.Targets())
}

func TestNoCredentialNeverReachesServer(t *testing.T) {
	h := newHarness(t, http.StatusOK, `[]`)
	ctx := context.Background()

	_, err := h.client.List(ctx)
	require.ErrorIs(t, err, gateway.ErrAuthRequired)
	require.NoError(t, h.store.Store(ctx, tokentest.For(7, h.mock.Now().Add(-time.Second))))
	err = h.client.Delete(ctx, 1)
	require.ErrorIs(t, err, gateway.ErrAuthRequired)

	require.Empty(t, h.requests())
	require.Equal(t, 2, h.nav.Count())
}

func TestCreate_ValidatesLocally(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{}`)
	ctx := context.Background()
	require.NoError(t, h.store.Store(ctx, tokentest.For(7, h.mock.Now().Add(time.Hour))))

	_, err := h.client.Create(ctx, tasks.TaskCreate{Title: ""})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	long := strings.Repeat("d", 1001)
	_, err = h.client.Create(ctx, tasks.TaskCreate{Title: "ok", Description: &long})
	require.Error(t, err)

	empty := ""
	_, err = h.client.Update(ctx, 1, tasks.TaskUpdate{Title: &empty})
	require.Error(t, err)

	require.Empty(t, h.requests())
}
