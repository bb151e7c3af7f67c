package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	srv     *HTTPServer
	tokens  *auth.TokenService
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenService([]byte("test-secret"), 24*time.Hour)
	require.NoError(t, err)

	m := metrics.New()
	us := services.NewUserService(users.NewMemoryRepository(), auth.NewBcryptHasher(bcrypt.MinCost), tokens, m)
	gate := auth.NewGate(tokens, auth.WithObserver(m))

	return &testEnv{
		srv:     NewHTTPServer(":0", logging.Nop{}, us, gate, m.Handler()),
		tokens:  tokens,
		metrics: m,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func creds(u, p string) map[string]string {
	return map[string]string{"username": u, "password": p}
}

func TestEndToEnd(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPost, "/api/auth/register", creds("testuser", "password"), nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	user := decode[models.User](t, rr)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "testuser", user.UserName)
	assert.NotEqual(t, "password", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)

	rr = e.do(t, http.MethodPost, "/api/auth/login", creds("testuser", "password"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	login := decode[loginResponse](t, rr)
	assert.Equal(t, "welcome, testuser", login.Message)
	require.NotEmpty(t, login.Token)

	rr = e.do(t, http.MethodGet, "/api/jokes", nil, map[string]string{"Authorization": login.Token})
	require.Equal(t, http.StatusOK, rr.Code)
	jokes := decode[[]services.Joke](t, rr)
	assert.NotEmpty(t, jokes)

	rr = e.do(t, http.MethodGet, "/api/jokes", nil, map[string]string{"Authorization": "Bearer " + login.Token})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/jokes", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "token required", decode[messageResponse](t, rr).Message)

	rr = e.do(t, http.MethodGet, "/api/jokes", nil, map[string]string{"Authorization": "garbage"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "token invalid", decode[messageResponse](t, rr).Message)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.RegistrationsTotal.WithLabelValues(services.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.LoginsTotal.WithLabelValues(services.OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.metrics.GateDecisionsTotal.WithLabelValues("authorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.GateDecisionsTotal.WithLabelValues(string(auth.ReasonTokenMissing))))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.GateDecisionsTotal.WithLabelValues(string(auth.ReasonTokenInvalid))))
}

func TestRegister_Errors(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPost, "/api/auth/register", creds("taken", "password"), nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing username", creds("", "password"), "username and password required"},
		{"missing password", creds("someone", ""), "username and password required"},
		{"empty body", map[string]string{}, "username and password required"},
		{"malformed json", "{not json", "username and password required"},
		{"duplicate", creds("taken", "other"), "username taken"},
		{"password too long", creds("long", string(bytes.Repeat([]byte("x"), 73))), "password too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, http.MethodPost, "/api/auth/register", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.want, decode[messageResponse](t, rr).Message)
		})
	}
}

func TestLogin_Errors(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPost, "/api/auth/register", creds("testuser", "password"), nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		want       string
	}{
		{"missing fields", creds("", ""), http.StatusBadRequest, "username and password required"},
		{"wrong password", creds("testuser", "wrongpassword"), http.StatusUnauthorized, "invalid credentials"},
		{"unknown user", creds("ghost", "password"), http.StatusUnauthorized, "invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, http.MethodPost, "/api/auth/login", tt.body, nil)
			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.want, decode[messageResponse](t, rr).Message)
		})
	}
}

func TestJokes_ExpiredTokenIsInvalid(t *testing.T) {
	e := newTestEnv(t)

	issuedAt := time.Now().Add(-48 * time.Hour)
	old, err := auth.NewTokenService([]byte("test-secret"), time.Hour, auth.WithClock(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	tok, err := old.Issue(1, "testuser")
	require.NoError(t, err)

	rr := e.do(t, http.MethodGet, "/api/jokes", nil, map[string]string{"Authorization": tok})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "token invalid", decode[messageResponse](t, rr).Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.GateDecisionsTotal.WithLabelValues(string(auth.ReasonTokenExpired))))
}

type failingCredentials struct{}

func (failingCredentials) Register(context.Context, string, string) (*models.User, error) {
	return nil, assert.AnError
}

func (failingCredentials) Login(context.Context, string, string) (*services.LoginResult, error) {
	return nil, assert.AnError
}

func TestUnexpectedErrors(t *testing.T) {
	srv := NewHTTPServer(":0", logging.Nop{}, failingCredentials{}, auth.NewGate(nil), nil)
	e := &testEnv{srv: srv}

	rr := e.do(t, http.MethodPost, "/api/auth/register", creds("u", "p"), nil)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error registering user", decode[messageResponse](t, rr).Message)

	rr = e.do(t, http.MethodPost, "/api/auth/login", creds("u", "p"), nil)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error logging in", decode[messageResponse](t, rr).Message)
}

func TestHealthzAndMetrics(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", decode[map[string]string](t, rr)["status"])

	e.do(t, http.MethodPost, "/api/auth/register", creds("", ""), nil)

	rr = e.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `authkeeper_registrations_total{outcome="invalid_input"} 1`)
}

func TestRun_StopsOnCancel(t *testing.T) {
	e := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServe_DrainsInFlightRequests(t *testing.T) {
	e := newTestEnv(t)

	started := make(chan struct{})
	var finished atomic.Bool
	e.srv.engine.GET("/slow", func(c *gin.Context) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		c.String(http.StatusOK, "done")
	})

	listen, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- e.srv.Serve(ctx, listen) }()

	type reply struct {
		status int
		body   string
		err    error
	}
	replies := make(chan reply, 1)
	go func() {
		resp, err := http.Get("http://" + listen.Addr().String() + "/slow")
		if err != nil {
			replies <- reply{err: err}
			return
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		replies <- reply{status: resp.StatusCode, body: string(b), err: err}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("slow request never reached the handler")
	}
	cancel()

	select {
	case err := <-served:
		require.NoError(t, err)
		assert.True(t, finished.Load(), "Serve returned before the in-flight request finished")
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	r := <-replies
	require.NoError(t, r.err)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "done", r.body)
}

func TestRun_BadAddress(t *testing.T) {
	srv := NewHTTPServer("bad::address::", logging.Nop{}, failingCredentials{}, auth.NewGate(nil), nil)
	assert.Error(t, srv.Run(context.Background()))
}
