package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atfitk/websystem-api/internal/handler"
	"github.com/atfitk/websystem-api/internal/models"
	"github.com/atfitk/websystem-api/internal/service"
	"github.com/atfitk/websystem-api/pkg/config"
)

type memUsers map[string]*models.User

func (m memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := m[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type emptyStudents struct{}

func (emptyStudents) List(context.Context) ([]models.Student, error) { return []models.Student{}, nil }
func (emptyStudents) FindByID(context.Context, string) (*models.Student, error) {
	return nil, sql.ErrNoRows
}
func (emptyStudents) Create(context.Context, *models.StudentProfile) (*models.Student, error) {
	return nil, sql.ErrConnDone
}
func (emptyStudents) Update(context.Context, string, *models.StudentProfile) (*models.Student, error) {
	return nil, sql.ErrNoRows
}
func (emptyStudents) Delete(context.Context, string) (string, error) { return "", sql.ErrNoRows }
func (emptyStudents) SwapPhoto(context.Context, string, string) (string, error) {
	return "", sql.ErrNoRows
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := memUsers{}
	for _, acc := range []struct {
		name string
		role models.UserRole
	}{{"director", models.RoleDirector}, {"psychologist", models.RolePsychologist}} {
		hash, err := bcrypt.GenerateFromPassword([]byte("pw-"+acc.name), bcrypt.MinCost)
		require.NoError(t, err)
		users[acc.name] = &models.User{ID: int64(len(users) + 1), Username: acc.name, PasswordHash: string(hash), Role: acc.role}
	}

	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api",
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}, AllowedOriginSuffixes: []string{".vercel.app"}},
		Uploads:   config.UploadsConfig{MaxFileBytes: 5 << 20},
	}
	log := zap.NewNop()
	metrics := service.NewMetricsService()
	auth := service.NewAuthService(users, nil, log, service.AuthConfig{AccessTokenSecret: "router-secret", AccessTokenExpiry: time.Hour})
	repo := emptyStudents{}
	students := service.NewStudentService(repo, nil, nil, nil, log, service.StudentServiceConfig{})
	photos := service.NewPhotoService(repo, nil, nil, metrics, log, service.PhotoServiceConfig{})
	exports := service.NewExportService(students, nil, metrics, log, nil, nil, nil)

	return New(Deps{Config: cfg, Logger: log, Auth: auth, Metrics: metrics, UploadsDir: t.TempDir()}, Handlers{
		Auth:     handler.NewAuthHandler(auth),
		Students: handler.NewStudentHandler(students),
		Photos:   handler.NewPhotoHandler(photos),
		Exports:  handler.NewExportHandler(exports),
		Metrics:  handler.NewMetricsHandler(metrics),
	})
}

func do(r *gin.Engine, method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	rec := do(r, http.MethodPost, "/api/auth/login", `{"username":"`+username+`","password":"pw-`+username+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func TestRouterHealthAndFallback(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(r, http.MethodGet, "/api/nothing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestRouterAuthFlow(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/api/students", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, http.MethodPost, "/api/auth/login", `{"username":"director","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())

	rec = do(r, http.MethodPost, "/api/auth/login", `{"username":"director"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := login(t, r, "director")
	rec = do(r, http.MethodGet, "/api/auth/me", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"director"`)

	rec = do(r, http.MethodGet, "/api/students", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestRouterDeleteRequiresDirector(t *testing.T) {
	r := newTestRouter(t)
	id := "2b1f4c8e-3d0a-4b6f-9a51-6c2d8e7f0a13"

	rec := do(r, http.MethodDelete, "/api/students/"+id, "", login(t, r, "psychologist"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden: Director role required"}`, rec.Body.String())

	rec = do(r, http.MethodDelete, "/api/students/"+id, "", login(t, r, "director"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Student not found"}`, rec.Body.String())
}

func TestRouterExportRouteIsNotAnID(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "psychologist")

	rec := do(r, http.MethodGet, "/api/students/export?format=csv", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = do(r, http.MethodGet, "/api/students/export?format=doc", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterCORS(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodOptions, "/api/students", "", "", "Origin", "https://preview-123.vercel.app", "Access-Control-Request-Method", "GET")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://preview-123.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(r, http.MethodGet, "/api/health", "", "", "Origin", "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	do(r, http.MethodGet, "/api/health", "", "")

	rec := do(r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouterPhotoUploadOverLimitWithoutLength(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "director")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("photo", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xAB}, 6<<20))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/students/2b1f4c8e-3d0a-4b6f-9a51-6c2d8e7f0a13/photo", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"File too large"}`, rec.Body.String())
}
