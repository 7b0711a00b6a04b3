package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"status-dashboard/internal/backup"
	"status-dashboard/internal/config"
	"status-dashboard/internal/db"
	"status-dashboard/internal/filemaker"
	"status-dashboard/internal/logging"
	"status-dashboard/internal/models"
)

const (
	testCronSecret = "cron-secret"
	testJWTSecret  = "jwt-secret"
)

type fakeChecker struct {
	outcome models.CheckOutcome
	err     error
	calls   int
}

func (f *fakeChecker) PerformBackupCheck(ctx context.Context) (models.CheckOutcome, error) {
	f.calls++
	return f.outcome, f.err
}

type fakeRuns struct {
	gotLimit int
	runs     []models.CheckRunRecord
	err      error
}

func (f *fakeRuns) ListBackupCheckRuns(ctx context.Context, limit int) ([]models.CheckRunRecord, error) {
	f.gotLimit = limit
	return f.runs, f.err
}

type fakeFileMaker struct {
	status   models.FileMakerServerStatus
	err      error
	saveErr  error
	saved    []models.FileMakerCredential
	password string
}

func (f *fakeFileMaker) Status(ctx context.Context, serverID string) (models.FileMakerServerStatus, error) {
	f.status.ServerID = serverID
	return f.status, f.err
}

func (f *fakeFileMaker) SaveCredential(ctx context.Context, cred models.FileMakerCredential, password string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, cred)
	f.password = password
	return nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

type testEnv struct {
	checker *fakeChecker
	runs    *fakeRuns
	fm      *fakeFileMaker
	hub     *Hub
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var cfg config.Config
	cfg.API.BasePath = "/api/v0"
	cfg.Auth.CronSecret = testCronSecret
	cfg.Auth.JWTSecret = testJWTSecret

	env := &testEnv{
		checker: &fakeChecker{outcome: models.CheckOutcome{Status: models.CheckStatusCompleted, ServersChecked: 2}},
		runs:    &fakeRuns{},
		fm:      &fakeFileMaker{},
	}
	logger := logging.NewNop()
	env.hub = NewHub(logger)
	h := NewHandler(env.checker, env.runs, env.fm, fakePinger{}, logger, 5*time.Second)
	env.router = NewRouter(h, env.hub, logger, cfg)
	return env
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return s
}

func (env *testEnv) do(method, path, bearer string) *httptest.ResponseRecorder {
	return env.doBody(method, path, bearer, "")
}

func (env *testEnv) doBody(method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestCronBackupCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v0/cron/backup-check", testCronSecret)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.CheckOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.CheckStatusCompleted, got.Status)
	assert.Equal(t, 2, got.ServersChecked)
	assert.Equal(t, 1, env.checker.calls)
}

func TestCronBackupCheckRejectsBadSecret(t *testing.T) {
	env := newTestEnv(t)

	for _, bearer := range []string{"", "wrong"} {
		w := env.do(http.MethodPost, "/api/v0/cron/backup-check", bearer)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	}
	assert.Zero(t, env.checker.calls)
}

func TestCronSecretEmptyRejectsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", CronSecretRequired(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBackupCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"in progress", backup.ErrCheckInProgress, http.StatusConflict},
		{"missing config", backup.ErrConfigurationMissing, http.StatusInternalServerError},
		{"upstream", &backup.UpstreamReadError{Source: "backup events", Err: errors.New("timeout")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.checker.err = tt.err

			w := env.do(http.MethodPost, "/api/v0/cron/backup-check", testCronSecret)

			assert.Equal(t, tt.want, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAdminRoutesRequireAdminJWT(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/v0/admin/backup-check", "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/v0/admin/backup-check", "garbage").Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/v0/admin/backup-check", adminToken(t, "viewer")).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v0/admin/backup-check", adminToken(t, "admin")).Code)
	assert.Equal(t, 1, env.checker.calls)
}

func TestListBackupCheckRuns(t *testing.T) {
	env := newTestEnv(t)
	token := adminToken(t, "admin")
	runID := uuid.MustParse("6f1c2a4e-8d3b-4f5a-9c7e-1b2d3e4f5a6b")
	env.runs.runs = []models.CheckRunRecord{{ID: runID, ServersChecked: 4, ThresholdHours: 24}}

	w := env.do(http.MethodGet, "/api/v0/admin/backup-check/runs", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultRunsLimit, env.runs.gotLimit)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, runID.String(), listed[0]["id"])

	w = env.do(http.MethodGet, "/api/v0/admin/backup-check/runs?limit=500", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxRunsLimit, env.runs.gotLimit)

	w = env.do(http.MethodGet, "/api/v0/admin/backup-check/runs?limit=abc", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.runs.err = errors.New("db down")
	w = env.do(http.MethodGet, "/api/v0/admin/backup-check/runs", token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFileMakerStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"no credential", db.ErrCredentialNotFound, http.StatusNotFound},
		{"no key", filemaker.ErrCipherUnavailable, http.StatusServiceUnavailable},
		{"upstream", errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.fm.status = models.FileMakerServerStatus{Version: "21.0.1", Running: true}
			env.fm.err = tt.err

			w := env.do(http.MethodGet, "/api/v0/admin/filemaker/srv-1/status", adminToken(t, "admin"))

			assert.Equal(t, tt.want, w.Code)
			if tt.err == nil {
				var got models.FileMakerServerStatus
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, "srv-1", got.ServerID)
				assert.True(t, got.Running)
			}
		})
	}
}

func TestFileMakerStatusNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&fakeChecker{}, &fakeRuns{}, nil, nil, logging.NewNop(), time.Second)
	r := gin.New()
	r.GET("/fm/:server_id", h.FileMakerStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fm/srv-1", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logging.NewNop()

	ok := NewHandler(&fakeChecker{}, &fakeRuns{}, nil, fakePinger{}, logger, time.Second)
	down := NewHandler(&fakeChecker{}, &fakeRuns{}, nil, fakePinger{err: errors.New("refused")}, logger, time.Second)

	for _, tt := range []struct {
		h    *Handler
		want int
	}{{ok, http.StatusOK}, {down, http.StatusServiceUnavailable}} {
		r := gin.New()
		r.GET("/health", tt.h.Health)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, tt.want, w.Code)
	}
}

func TestHubBroadcastsOutcome(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v0/admin/ws/backup-checks?access_token=" + adminToken(t, "admin")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	env.hub.PublishCheckOutcome(models.CheckOutcome{Status: models.CheckStatusCompleted, ServersOverdue: 3})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type    string              `json:"type"`
		Outcome models.CheckOutcome `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "backup_check", got.Type)
	assert.Equal(t, 3, got.Outcome.ServersOverdue)

	env.hub.Close()
	assert.Zero(t, env.hub.ClientCount())
}

func TestWebsocketRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v0/admin/ws/backup-checks"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSaveFileMakerCredential(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v0/admin/filemaker/srv-1/credential"
	body := `{"admin_url":"https://fm-01.example.com","username":"admin","password":"s3cret"}`

	w := env.doBody(http.MethodPut, path, adminToken(t, "admin"), body)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, env.fm.saved, 1)
	assert.Equal(t, "srv-1", env.fm.saved[0].ServerID)
	assert.Equal(t, "https://fm-01.example.com", env.fm.saved[0].AdminURL)
	assert.Equal(t, "admin", env.fm.saved[0].Username)
	assert.Equal(t, "s3cret", env.fm.password)

	assert.Equal(t, http.StatusForbidden, env.doBody(http.MethodPut, path, adminToken(t, "viewer"), body).Code)
	assert.Equal(t, http.StatusBadRequest, env.doBody(http.MethodPut, path, adminToken(t, "admin"), `{"username":"admin"}`).Code)
	assert.Len(t, env.fm.saved, 1)
}

func TestSaveFileMakerCredentialErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", fmt.Errorf("%w: admin url must be an absolute http(s) url", filemaker.ErrInvalidCredential), http.StatusBadRequest},
		{"unknown server", db.ErrServerNotFound, http.StatusNotFound},
		{"no key", filemaker.ErrCipherUnavailable, http.StatusServiceUnavailable},
		{"store down", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.fm.saveErr = tt.err

			w := env.doBody(http.MethodPut, "/api/v0/admin/filemaker/srv-1/credential", adminToken(t, "admin"),
				`{"admin_url":"https://fm-01.example.com","username":"admin","password":"s3cret"}`)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
