package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/db"
	"github.com/softdesk-dev/softdesk/internal/auth"
	"github.com/softdesk-dev/softdesk/internal/handlers"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/router"
	"github.com/softdesk-dev/softdesk/internal/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTest wires the package-global DB to a per-test in-memory SQLite
// database and returns a fresh engine.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db.DB = gdb
	require.NoError(t, db.MigrateDatabase())

	return router.NewRouter()
}

func createUser(t *testing.T, email string, admin bool) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("str0ng password"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      admin,
	}
	require.NoError(t, db.DB.Create(&user).Error)

	token, err := auth.GenerateJWT(user.ID, user.Email)
	require.NoError(t, err)

	return user, token
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func createProject(t *testing.T, r *gin.Engine, token, title string) handlers.ProjectResponse {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/projects", token, gin.H{
		"title": title,
		"type":  types.ProjectTypeBackEnd,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decode[handlers.ProjectResponse](t, w)
}

func createIssue(t *testing.T, r *gin.Engine, token string, projectID uint, body gin.H) handlers.IssueResponse {
	t.Helper()

	if body == nil {
		body = gin.H{}
	}
	if _, ok := body["title"]; !ok {
		body["title"] = "bug1"
	}
	if _, ok := body["tag"]; !ok {
		body["tag"] = types.TagBug
	}
	if _, ok := body["priority"]; !ok {
		body["priority"] = types.PriorityLow
	}
	if _, ok := body["status"]; !ok {
		body["status"] = types.StatusToDo
	}

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/projects/%d/issues", projectID), token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decode[handlers.IssueResponse](t, w)
}
