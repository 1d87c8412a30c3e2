package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskpulse/taskpulse-go/internal/tasks/service"
	"github.com/taskpulse/taskpulse-go/internal/tokens"
	"github.com/taskpulse/taskpulse-go/internal/users"
)

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	engine *gin.Engine
	issuer *tokens.Issuer
	tasks  service.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	iss, err := tokens.NewIssuer("handlers-test-secret-xxxxxxxxxxxxxx", time.Hour)
	require.NoError(t, err)
	svc := service.NewMemoryService()
	r := NewRouter(RouterOptions{
		APIRoot: "/api/v1",
		Users:   users.NewService(users.NewMemoryUserRepository()).WithCost(bcrypt.MinCost),
		Issuer:  iss,
		Tasks:   svc,
	})
	return &fixture{engine: r, issuer: iss, tasks: svc}
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rw := httptest.NewRecorder()
	f.engine.ServeHTTP(rw, req)
	var out map[string]interface{}
	_ = json.Unmarshal(rw.Body.Bytes(), &out)
	return rw, out
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	f := newFixture(t)
	creds := gin.H{"email": "ada@example.com", "password": "Secret123"}

	rw, body := f.do(t, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusOK, rw.Code, rw.Body.String())
	data := body["data"].(map[string]interface{})
	require.Equal(t, "ada@example.com", data["email"])
	require.NotEmpty(t, data["token"])

	claims, err := f.issuer.Verify(data["token"].(string))
	require.NoError(t, err)
	id, ok := claims.SubjectID()
	require.True(t, ok)
	require.EqualValues(t, id, data["user_id"])

	rw, body = f.do(t, http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rw.Code)
	tok := body["data"].(map[string]interface{})["token"].(string)

	rw, body = f.do(t, http.MethodGet, "/api/v1/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, rw.Code)
	me := body["data"].(map[string]interface{})
	require.Equal(t, "ada@example.com", me["email"])
	require.Nil(t, me["token"])
}

func TestAuth_Failures(t *testing.T) {
	f := newFixture(t)
	creds := gin.H{"email": "ada@example.com", "password": "Secret123"}
	rw, _ := f.do(t, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusOK, rw.Code)

	rw, body := f.do(t, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusBadRequest, rw.Code)
	require.Equal(t, "User with this email already exists", body["detail"])

	rw, body = f.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "bob@example.com", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rw.Code)
	require.NotEmpty(t, body["detail"])

	rw, body = f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ada@example.com", "password": "Wrong1234"})
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Equal(t, "unauthorized", body["error"])
	require.Equal(t, "Incorrect email or password", body["message"])

	rw, _ = f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ada@example.com"})
	require.Equal(t, http.StatusBadRequest, rw.Code)

	rw, body = f.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Equal(t, "unauthorized", body["error"])
}

func TestAuth_LogoutAcknowledges(t *testing.T) {
	f := newFixture(t)
	rw, body := f.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, "Successfully logged out", body["message"])
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t)
	rw, _ := f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, "healthy", rw.Body.String())

	rw, body := f.do(t, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, "ready", body["status"])

	down := NewRouter(RouterOptions{
		APIRoot: "/api/v1",
		Users:   users.NewService(users.NewMemoryUserRepository()),
		Issuer:  f.issuer,
		Tasks:   f.tasks,
		Ready:   func() map[string]bool { return map[string]bool{"mongodb": false} },
	})
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	down.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
