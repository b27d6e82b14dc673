package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avelar/taskboard-be/internal/auth"
	"github.com/avelar/taskboard-be/internal/config"
	"github.com/avelar/taskboard-be/internal/database"
	"github.com/avelar/taskboard-be/internal/models"
	"github.com/avelar/taskboard-be/internal/services"
	"github.com/avelar/taskboard-be/internal/storage"
	ws "github.com/avelar/taskboard-be/internal/websocket"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:     []byte("test-secret"),
		TokenTTL:      time.Hour,
		AllowedOrigin: "http://localhost:3000",
		AppEnv:        "test",
	}

	db, err := database.New("file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	avatars, err := storage.NewAvatarStore(t.TempDir())
	require.NoError(t, err)

	hub := ws.NewHub()
	go hub.Run()

	userService := services.NewUserService(db)
	taskService := services.NewTaskService(db)
	guard := auth.NewGuard(cfg.JWTSecret, userService)

	srv := httptest.NewServer(NewRouter(cfg, guard, hub, userService, taskService, avatars))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, cookie *http.Cookie, body interface{}) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodPost, url, cookie, body)
}

func doJSON(t *testing.T, method, url string, cookie *http.Cookie, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c
		}
	}
	return nil
}

func register(t *testing.T, srv *httptest.Server, name, email, password string) {
	t.Helper()

	resp := postJSON(t, srv.URL+"/api/v1/register", nil, map[string]string{
		"name": name, "email": email, "password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func login(t *testing.T, srv *httptest.Server, email, password string) *http.Cookie {
	t.Helper()

	resp := postJSON(t, srv.URL+"/api/v1/login", nil, map[string]string{
		"email": email, "password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie, "login must set the session cookie")
	return cookie
}

func TestRegisterLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	// Registration succeeds but does not issue a session.
	resp := postJSON(t, srv.URL+"/api/v1/register", nil, map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp))
	resp.Body.Close()

	// Duplicate email is a field-level error.
	resp = postJSON(t, srv.URL+"/api/v1/register", nil, map[string]string{
		"name": "Ada Again", "email": "ada@example.com", "password": "secret456",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Wrong password: generic failure, no cookie.
	resp = postJSON(t, srv.URL+"/api/v1/login", nil, map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp))
	var failure map[string]string
	decodeBody(t, resp, &failure)
	assert.Equal(t, "Invalid email or password", failure["message"])

	// Unknown email yields the byte-identical failure.
	resp = postJSON(t, srv.URL+"/api/v1/login", nil, map[string]string{
		"email": "nobody@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var failure2 map[string]string
	decodeBody(t, resp, &failure2)
	assert.Equal(t, failure, failure2)

	// Correct credentials set the session cookie.
	cookie := login(t, srv, "ada@example.com", "secret123")
	assert.True(t, cookie.HttpOnly)
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "Ada", "ada@example.com", "secret123")
	cookie := login(t, srv, "ada@example.com", "secret123")

	// Requests without a session are rejected.
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/tasks", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Create.
	resp = postJSON(t, srv.URL+"/api/v1/tasks", cookie, map[string]string{"title": "Write report"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task models.Task
	decodeBody(t, resp, &task)
	assert.Equal(t, "Write report", task.Title)
	assert.False(t, task.Completed)

	// Empty title is a validation failure.
	resp = postJSON(t, srv.URL+"/api/v1/tasks", cookie, map[string]string{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// List.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/tasks", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tasks []models.Task
	decodeBody(t, resp, &tasks)
	require.Len(t, tasks, 1)

	// Toggle.
	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/v1/tasks/"+task.ID, cookie, map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var toggled models.Task
	decodeBody(t, resp, &toggled)
	assert.True(t, toggled.Completed)

	// Delete.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/tasks/"+task.ID, cookie, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/tasks", cookie, nil)
	var remaining []models.Task
	decodeBody(t, resp, &remaining)
	assert.Empty(t, remaining)
}

func TestTaskOwnershipAcrossUsers(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "Ada", "ada@example.com", "secret123")
	register(t, srv, "Grace", "grace@example.com", "secret123")
	adaCookie := login(t, srv, "ada@example.com", "secret123")
	graceCookie := login(t, srv, "grace@example.com", "secret123")

	resp := postJSON(t, srv.URL+"/api/v1/tasks", adaCookie, map[string]string{"title": "Ada's task"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task models.Task
	decodeBody(t, resp, &task)

	// Grace has a perfectly valid session of her own, but Ada's task id
	// must read as not-found for her.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/tasks/"+task.ID, graceCookie, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/v1/tasks/"+task.ID, graceCookie, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Ada's list is unchanged.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/tasks", adaCookie, nil)
	var tasks []models.Task
	decodeBody(t, resp, &tasks)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)
}

func TestLogoutClearsCookie(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "Ada", "ada@example.com", "secret123")
	cookie := login(t, srv, "ada@example.com", "secret123")

	resp := postJSON(t, srv.URL+"/api/v1/logout", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0 || cleared.Expires.Before(time.Now()))
}

func TestProfileUpdateWithAvatar(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "Ada", "ada@example.com", "secret123")
	cookie := login(t, srv, "ada@example.com", "secret123")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("name", "Ada Lovelace"))
	require.NoError(t, form.WriteField("email", "ada.lovelace@example.com"))
	require.NoError(t, form.WriteField("password", "newsecret456"))
	part, err := form.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/profile", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	decodeBody(t, resp, &user)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, "ada.lovelace@example.com", user.Email)
	require.NotNil(t, user.AvatarURL)
	assert.True(t, strings.HasPrefix(*user.AvatarURL, "/avatars/"))

	// The stored avatar is served publicly.
	resp, err = http.Get(srv.URL + *user.AvatarURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The new password is live immediately.
	login(t, srv, "ada.lovelace@example.com", "newsecret456")
}

func TestEventFeedDeliversTaskEvents(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "Ada", "ada@example.com", "secret123")
	cookie := login(t, srv, "ada@example.com", "secret123")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	header := http.Header{}
	header.Set("Cookie", fmt.Sprintf("%s=%s", auth.CookieName, cookie.Value))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a moment to register the connection.
	time.Sleep(100 * time.Millisecond)

	resp := postJSON(t, srv.URL+"/api/v1/tasks", cookie, map[string]string{"title": "Write report"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg ws.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, ws.ActionTaskCreated, msg.Action)
}

func TestEventFeedRequiresSession(t *testing.T) {
	srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
