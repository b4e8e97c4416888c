package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"

	"github.com/Anton0729/ToDo-List-Project/internal/auth"
	"github.com/Anton0729/ToDo-List-Project/internal/config"
	"github.com/Anton0729/ToDo-List-Project/internal/storage/sqlite"
)

type testEnv struct {
	srv   *Server
	store *sqlite.Store
	codec *auth.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		SecretKey:      "test-secret",
		Algorithm:      "HS256",
		AccessTokenTTL: time.Minute,
	}
	codec, err := auth.NewCodec(cfg)
	require.NoError(t, err)
	authn := auth.NewAuthenticator(store, codec, cfg.AccessTokenTTL)

	return &testEnv{
		srv:   New(store, logger, authn, codec),
		store: store,
		codec: codec,
	}
}

func (e *testEnv) handler() http.Handler {
	return e.srv.Engine()
}

func (e *testEnv) signup(t *testing.T, username, password string) {
	t.Helper()
	apitest.New().
		Handler(e.handler()).
		Post("/auth/signup").
		JSON(fmt.Sprintf(`{"username": %q, "first_name": "F", "password": %q}`, username, password)).
		Expect(t).
		Status(http.StatusCreated).
		End()
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func (e *testEnv) createTask(t *testing.T, token, title, status string) int64 {
	t.Helper()
	payload := map[string]string{"title": title}
	if status != "" {
		payload["status"] = status
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/tasks/", strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var task struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task.ID
}

func TestSignupDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "u1", "secret1")

	apitest.New().
		Handler(env.handler()).
		Post("/auth/signup").
		JSON(`{"username": "u1", "first_name": "F", "password": "secret1"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.detail", "Username already registered")).
		End()
}

func TestSignupRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)

	apitest.New().
		Handler(env.handler()).
		Post("/auth/signup").
		JSON(`{"username": "u1", "first_name": "F", "password": "short"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestLoginFailureIsIndistinct(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "u1", "secret1")

	for _, form := range []string{"username=u1&password=wrongpw", "username=nobody&password=secret1"} {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		env.handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Incorrect username or password")
		require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestTasksRequireValidToken(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "u1", "secret1")

	// Missing header.
	apitest.New().
		Handler(env.handler()).
		Get("/tasks/").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.detail", "Could not validate credentials")).
		End()

	// Garbage token.
	apitest.New().
		Handler(env.handler()).
		Get("/tasks/").
		Header("Authorization", "Bearer garbage").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	// Correctly signed but already expired.
	expired, err := env.codec.Issue("u1", -time.Second)
	require.NoError(t, err)
	apitest.New().
		Handler(env.handler()).
		Get("/tasks/").
		Header("Authorization", "Bearer "+expired).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestTokenForDeletedUserStopsResolving(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "u1", "secret1")
	token := env.login(t, "u1", "secret1")

	user, err := env.store.FindUserByUsername(context.Background(), "u1")
	require.NoError(t, err)
	require.NoError(t, env.store.DeleteUser(context.Background(), user.ID))

	// The token is still cryptographically valid, but the identity is gone.
	apitest.New().
		Handler(env.handler()).
		Get("/tasks/").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestTaskLifecycleEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "u1", "secret1")
	token := env.login(t, "u1", "secret1")

	user, err := env.store.FindUserByUsername(context.Background(), "u1")
	require.NoError(t, err)

	apitest.New().
		Handler(env.handler()).
		Post("/tasks/").
		Header("Authorization", "Bearer "+token).
		JSON(`{"title": "T1", "status": "New"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.status", "New")).
		Assert(jsonpath.Equal("$.user_id", float64(user.ID))).
		End()

	apitest.New().
		Handler(env.handler()).
		Get("/tasks/").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.tasks", 1)).
		Assert(jsonpath.Equal("$.tasks[0].title", "T1")).
		Assert(jsonpath.Equal("$.pagination.page", float64(1))).
		Assert(jsonpath.Equal("$.pagination.total", float64(1))).
		End()

	apitest.New().
		Handler(env.handler()).
		Put("/tasks/1").
		Header("Authorization", "Bearer "+token).
		JSON(`{"title": "T1 renamed", "description": "details", "status": "In progress"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.title", "T1 renamed")).
		Assert(jsonpath.Equal("$.status", "In progress")).
		End()

	apitest.New().
		Handler(env.handler()).
		Put("/tasks/1/complete").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "Completed")).
		End()

	apitest.New().
		Handler(env.handler()).
		Delete("/tasks/1").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.detail", "Task deleted successfully")).
		End()

	apitest.New().
		Handler(env.handler()).
		Get("/tasks/1").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusNotFound).
		Assert(jsonpath.Equal("$.detail", "Task not found")).
		End()
}

func TestOwnershipGuard(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "u1", "secret1")
	env.signup(t, "u2", "secret2")
	ownerToken := env.login(t, "u1", "secret1")
	otherToken := env.login(t, "u2", "secret2")

	taskID := env.createTask(t, ownerToken, "owned", "")
	path := fmt.Sprintf("/tasks/%d", taskID)

	// Reads are not owner-scoped; any authenticated user can fetch the task.
	apitest.New().
		Handler(env.handler()).
		Get(path).
		Header("Authorization", "Bearer "+otherToken).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(env.handler()).
		Put(path).
		Header("Authorization", "Bearer "+otherToken).
		JSON(`{"title": "hijack", "status": "New"}`).
		Expect(t).
		Status(http.StatusForbidden).
		Assert(jsonpath.Equal("$.detail", "You do not have permission to update this task.")).
		End()

	apitest.New().
		Handler(env.handler()).
		Delete(path).
		Header("Authorization", "Bearer "+otherToken).
		Expect(t).
		Status(http.StatusForbidden).
		Assert(jsonpath.Equal("$.detail", "You do not have permission to delete this task.")).
		End()

	apitest.New().
		Handler(env.handler()).
		Put(path+"/complete").
		Header("Authorization", "Bearer "+otherToken).
		Expect(t).
		Status(http.StatusForbidden).
		Assert(jsonpath.Equal("$.detail", "You do not have permission to change status of this task.")).
		End()

	// The owner's own mutation goes through.
	apitest.New().
		Handler(env.handler()).
		Put(path).
		Header("Authorization", "Bearer "+ownerToken).
		JSON(`{"title": "still mine", "status": "In progress"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestListAllTasksWithStatusFilter(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "u1", "secret1")
	env.signup(t, "u2", "secret2")
	firstToken := env.login(t, "u1", "secret1")
	secondToken := env.login(t, "u2", "secret2")

	env.createTask(t, firstToken, "Task 1", "New")
	env.createTask(t, firstToken, "Task 2", "In progress")
	env.createTask(t, secondToken, "Task 3", "Completed")

	// The unscoped listing includes other users' tasks.
	apitest.New().
		Handler(env.handler()).
		Get("/tasks/all").
		Header("Authorization", "Bearer "+firstToken).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.tasks", 3)).
		End()

	apitest.New().
		Handler(env.handler()).
		Get("/tasks/all").
		Query("page", "1").
		Query("size", "2").
		Query("status", "New").
		Header("Authorization", "Bearer "+firstToken).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.tasks", 1)).
		Assert(jsonpath.Equal("$.tasks[0].title", "Task 1")).
		End()

	apitest.New().
		Handler(env.handler()).
		Get("/tasks/all").
		Query("status", "Bogus").
		Header("Authorization", "Bearer "+firstToken).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestEmptyListIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "u1", "secret1")
	token := env.login(t, "u1", "secret1")

	for _, path := range []string{"/tasks/", "/tasks/all"} {
		apitest.New().
			Handler(env.handler()).
			Get(path).
			Header("Authorization", "Bearer "+token).
			Expect(t).
			Status(http.StatusNotFound).
			Assert(jsonpath.Equal("$.detail", "No tasks found")).
			End()
	}
}

func TestPaginationValidation(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "u1", "secret1")
	token := env.login(t, "u1", "secret1")

	for _, query := range [][2]string{{"page", "0"}, {"size", "0"}, {"size", "101"}, {"page", "x"}} {
		apitest.New().
			Handler(env.handler()).
			Get("/tasks/").
			Query(query[0], query[1]).
			Header("Authorization", "Bearer "+token).
			Expect(t).
			Status(http.StatusBadRequest).
			End()
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	apitest.New().
		Handler(env.handler()).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "ok")).
		End()
}
