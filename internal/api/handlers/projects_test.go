package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/api/handlers"
	"github.com/securecicd/backend/internal/api/middleware"
	"github.com/securecicd/backend/internal/database/models"
	"github.com/securecicd/backend/internal/testutil"
)

func setupProjectRouter(t *testing.T) (*chi.Mux, *gorm.DB, *models.User, string) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	jwtService := testutil.CreateTestJWTService()
	user := testutil.CreateTestUser(t, db)
	token := testutil.GenerateTestToken(t, jwtService, user)

	r := chi.NewRouter()
	r.Use(middleware.Auth(jwtService))
	handler := handlers.NewProjectHandler(db, nil)
	r.Route("/api/projects", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Get("/{id}", handler.Get)
		r.Patch("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
	})

	return r, db, user, token
}

func TestProjectHandler_Create(t *testing.T) {
	router, _, _, token := setupProjectRouter(t)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name: "valid project",
			body: map[string]interface{}{
				"name":           "payments-api",
				"repository_url": "https://github.com/example/payments-api",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing name",
			body:       map[string]interface{}{"repository_url": "https://github.com/example/x"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing repository url",
			body:       map[string]interface{}{"name": "x"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/projects/", tt.body, token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			testutil.AssertStatus(t, rr, tt.wantStatus)
		})
	}

	t.Run("defaults language to unknown", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/projects/", map[string]interface{}{
			"name":           "mystery",
			"repository_url": "https://github.com/example/mystery",
		}, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		var project models.Project
		testutil.ParseJSONResponse(t, rr, &project)
		assert.Equal(t, "unknown", project.Language)
	})
}

func TestProjectHandler_OwnerScoping(t *testing.T) {
	router, db, user, token := setupProjectRouter(t)

	mine := testutil.CreateTestProject(t, db, user.ID)
	other := testutil.CreateTestUser(t, db)
	theirs := testutil.CreateTestProject(t, db, other.ID)

	t.Run("list shows only own projects", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/projects/", nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var body struct {
			Count int `json:"count"`
		}
		testutil.ParseJSONResponse(t, rr, &body)
		assert.Equal(t, 1, body.Count)
	})

	t.Run("cannot fetch another user's project", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/projects/"+theirs.ID.String(), nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("fetches own project", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/projects/"+mine.ID.String(), nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}

func TestProjectHandler_DeleteCascades(t *testing.T) {
	router, db, user, token := setupProjectRouter(t)

	project := testutil.CreateTestProject(t, db, user.ID)
	scan := testutil.CreateTestScan(t, db, user.ID, project.ID, models.ScanStatusCompleted)
	risk := models.Risk{OwnerID: user.ID, ProjectID: project.ID, Title: "hardcoded secret"}
	require.NoError(t, db.Create(&risk).Error)

	req := testutil.AuthenticatedRequest(t, http.MethodDelete, "/api/projects/"+project.ID.String(), nil, token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var count int64
	require.NoError(t, db.Model(&models.Scan{}).Where("id = ?", scan.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Risk{}).Where("id = ?", risk.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProjectHandler_Update(t *testing.T) {
	router, db, user, token := setupProjectRouter(t)
	project := testutil.CreateTestProject(t, db, user.ID)

	req := testutil.AuthenticatedRequest(t, http.MethodPatch, "/api/projects/"+project.ID.String(),
		map[string]interface{}{"description": "updated", "status": "archived"}, token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body models.Project
	testutil.ParseJSONResponse(t, rr, &body)
	assert.Equal(t, "updated", body.Description)
	assert.Equal(t, "archived", body.Status)
	// Untouched fields keep their values.
	assert.Equal(t, project.Name, body.Name)
}

func TestProjectHandler_InvalidID(t *testing.T) {
	router, _, _, token := setupProjectRouter(t)

	req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/projects/not-a-uuid", nil, token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	req = testutil.AuthenticatedRequest(t, http.MethodGet, "/api/projects/"+uuid.New().String(), nil, token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
