package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securecicd/backend/internal/api/handlers"
	"github.com/securecicd/backend/internal/api/middleware"
	"github.com/securecicd/backend/internal/auth"
	"github.com/securecicd/backend/internal/testutil"
	"github.com/securecicd/backend/pkg/config"
	"github.com/securecicd/backend/pkg/crypto"
)

func setupAuthRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	jwtService := testutil.CreateTestJWTService()
	encryptor, err := crypto.NewEncryptor("")
	require.NoError(t, err)
	githubClient := auth.NewGitHubClient(config.OAuthConfig{})
	authService := auth.NewService(db, jwtService, githubClient, encryptor, nil)

	handler := handlers.NewAuthHandler(authService, "test-google-client-id")

	r := chi.NewRouter()
	r.Post("/api/auth/register", handler.Register)
	r.Post("/api/auth/login", handler.Login)
	r.Post("/api/auth/google", handler.GoogleLogin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(jwtService))
		r.Get("/api/auth/me", handler.Me)
	})

	return r
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	router := setupAuthRouter(t)

	registerBody := map[string]interface{}{
		"email":    "dev@example.com",
		"password": "supersecret1",
		"name":     "Dev",
	}

	t.Run("register", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/auth/register", registerBody)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		var body auth.AuthResponse
		testutil.ParseJSONResponse(t, rr, &body)
		assert.NotEmpty(t, body.Token)
		require.NotNil(t, body.User)
		assert.Equal(t, "dev@example.com", body.User.Email)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/auth/register", registerBody)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("short password rejected", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/auth/register", map[string]interface{}{
			"email":    "short@example.com",
			"password": "short",
			"name":     "Short",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("login with valid credentials", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/auth/login", map[string]interface{}{
			"email":    "dev@example.com",
			"password": "supersecret1",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var body auth.AuthResponse
		testutil.ParseJSONResponse(t, rr, &body)

		// The issued token works against protected endpoints.
		meReq := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/auth/me", nil, body.Token)
		meRR := httptest.NewRecorder()
		router.ServeHTTP(meRR, meReq)
		testutil.AssertStatus(t, meRR, http.StatusOK)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/auth/login", map[string]interface{}{
			"email":    "dev@example.com",
			"password": "wrongpassword",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("login with unknown email", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/auth/login", map[string]interface{}{
			"email":    "nobody@example.com",
			"password": "supersecret1",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestAuthHandler_GoogleLogin(t *testing.T) {
	router := setupAuthRouter(t)

	t.Run("missing credential", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/auth/google", map[string]interface{}{})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("rejected when no audiences configured", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/auth/google", map[string]interface{}{
			"credential": "not-a-real-token",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}
