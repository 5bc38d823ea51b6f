package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"advocacy-backend/config"
	"advocacy-backend/database"
	"advocacy-backend/models"
	"advocacy-backend/syncer"
)

type fakeSheetClient struct {
	titles   []string
	appended [][]any
	calls    int
}

func (c *fakeSheetClient) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	return c.titles, nil
}

func (c *fakeSheetClient) AppendRows(ctx context.Context, spreadsheetID, sheetName string, rows [][]any) error {
	c.calls++
	c.appended = append(c.appended, rows...)
	return nil
}

type testEnv struct {
	mock     sqlmock.Sqlmock
	handlers *Handlers
	router   *gin.Engine
	sheets   *fakeSheetClient
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	submissions := database.NewSubmissionService(db)
	petitions := database.NewPetitionService(db)
	outbox := database.NewOutboxService(db)

	sheetClient := &fakeSheetClient{titles: []string{cfg.SyncSheetName}}
	sync, err := syncer.NewService(cfg, submissions)
	require.NoError(t, err)
	sync.SetSheetClientFactory(func(ctx context.Context, credentialsJSON []byte) (syncer.SheetClient, error) {
		return sheetClient, nil
	})

	h := NewHandlers(cfg, submissions, petitions, outbox, sync, nil, nil, nil)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.GET("/health", h.HealthCheck)
	router.POST("/api/v3/submissions/:kind", h.CreateSubmission)
	router.POST("/api/v3/auth/login", h.Login)
	router.POST("/api/v3/sync/submissions", h.SyncSubmissions)
	router.GET("/api/v3/petitions/:id", h.GetPetition)
	router.DELETE("/api/v3/admin/submissions/:kind", h.DeleteAllSubmissions)
	router.DELETE("/api/v3/admin/submissions/:kind/:id", h.DeleteSubmission)

	return &testEnv{mock: mock, handlers: h, router: router, sheets: sheetClient}
}

func testEnvConfig() *config.Config {
	return &config.Config{
		DBHost:                   "localhost",
		DBPassword:               "secret",
		GoogleServiceAccountJSON: `{"type":"service_account"}`,
		SyncSpreadsheetID:        "sheet-id",
		SyncSheetName:            "Submissions",
		SyncSubmissionKind:       "before_you_sign",
		JWTSecret:                "test-secret",
		AdminNotifyEmail:         "ops@example.org",
	}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	w := env.do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestCreateSubmission(t *testing.T) {
	// No sync service wired; the background sync after a submit is
	// exercised separately through the sync endpoint tests.
	cfg := testEnvConfig()
	env := newTestEnv(t, cfg)
	env.handlers.sync = nil

	env.mock.ExpectExec(`INSERT INTO before_you_sign_submissions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec(`INSERT INTO notification_outbox`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectExec(`INSERT INTO notification_outbox`).
		WillReturnResult(sqlmock.NewResult(2, 1))
	env.mock.ExpectExec(`INSERT INTO notification_outbox`).
		WillReturnResult(sqlmock.NewResult(3, 1))

	w := env.do(http.MethodPost, "/api/v3/submissions/before_you_sign", gin.H{
		"full_name":         "Alice Smith",
		"email":             "alice@example.com",
		"newsletter_opt_in": true,
		"metadata":          gin.H{"city": "Orlando", "timezone": "America/New_York"},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["id"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateSubmissionUnknownKind(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	w := env.do(http.MethodPost, "/api/v3/submissions/house_flipping", gin.H{
		"full_name": "Alice",
		"email":     "alice@example.com",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSubmissionInvalidEmail(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	testCases := []string{"not-an-email", "a b@example.com", "alice@nodot"}
	for _, email := range testCases {
		w := env.do(http.MethodPost, "/api/v3/submissions/before_you_sign", gin.H{
			"full_name": "Alice",
			"email":     email,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "email %q", email)
	}
}

func TestSyncEndpointNothingToDo(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	env.mock.ExpectQuery(`SELECT (.+) FROM before_you_sign_submissions WHERE synced_at IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := env.do(http.MethodPost, "/api/v3/sync/submissions", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body models.SyncResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "No new submissions to sync", body.Message)
	assert.Zero(t, body.Details.TotalSubmissions)
	assert.Zero(t, body.Details.SyncedRows)
	assert.Zero(t, env.sheets.calls)
}

func TestSyncEndpointMissingConfig(t *testing.T) {
	cfg := testEnvConfig()
	cfg.SyncSpreadsheetID = ""
	env := newTestEnv(t, cfg)

	w := env.do(http.MethodPost, "/api/v3/sync/submissions", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body models.SyncErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to sync submissions", body.Error)
	assert.Contains(t, body.Details, "SYNC_SPREADSHEET_ID")
	assert.NotEmpty(t, body.Stack)
}

func TestSyncEndpointRejectsGet(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	w := env.do(http.MethodGet, "/api/v3/sync/submissions", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testEnvConfig()
	cfg.AdminEmail = "admin@example.org"
	cfg.AdminPasswordHash = string(hash)
	env := newTestEnv(t, cfg)

	w := env.do(http.MethodPost, "/api/v3/auth/login", gin.H{
		"email":    "admin@example.org",
		"password": "correct-password",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var body models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "Bearer", body.TokenType)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testEnvConfig()
	cfg.AdminEmail = "admin@example.org"
	cfg.AdminPasswordHash = string(hash)
	env := newTestEnv(t, cfg)

	w := env.do(http.MethodPost, "/api/v3/auth/login", gin.H{
		"email":    "admin@example.org",
		"password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnconfigured(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	w := env.do(http.MethodPost, "/api/v3/auth/login", gin.H{
		"email":    "admin@example.org",
		"password": "whatever",
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDeleteAllRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	for _, confirm := range []string{"", "delete all", "DELETE", "yes"} {
		w := env.do(http.MethodDelete, "/api/v3/admin/submissions/before_you_sign",
			gin.H{"confirm": confirm})
		assert.Equal(t, http.StatusBadRequest, w.Code, "confirm %q", confirm)
	}
	// No delete expectation was set; a rejected confirmation must not
	// touch the database.
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteAllWithConfirmation(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	env.mock.ExpectExec(`DELETE FROM before_you_sign_submissions`).
		WillReturnResult(sqlmock.NewResult(0, 42))

	w := env.do(http.MethodDelete, "/api/v3/admin/submissions/before_you_sign",
		gin.H{"confirm": "DELETE ALL"})

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(42), body["deleted"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteSubmissionNotFound(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	env.mock.ExpectExec(`DELETE FROM before_you_sign_submissions WHERE id = \?`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := env.do(http.MethodDelete, "/api/v3/admin/submissions/before_you_sign/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPetitionNotFound(t *testing.T) {
	env := newTestEnv(t, testEnvConfig())

	env.mock.ExpectQuery(`SELECT p.id`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	w := env.do(http.MethodGet, "/api/v3/petitions/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
