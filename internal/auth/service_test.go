package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/securecicd/backend/internal/database/models"
	"github.com/securecicd/backend/pkg/config"
	"github.com/securecicd/backend/pkg/crypto"
)

// These tests live inside the package so the Google validator and the GitHub
// API base URL can be stubbed.

func newTestService(t *testing.T, audiences []string) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	encryptor, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	jwtService := NewJWTService("test-secret", 24*time.Hour)
	github := NewGitHubClient(config.OAuthConfig{})

	return NewService(db, jwtService, github, encryptor, audiences), db
}

func TestGoogleLogin(t *testing.T) {
	svc, db := newTestService(t, []string{"client-a", "client-b"})

	svc.validateGoogle = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		if audience != "client-b" {
			return nil, assert.AnError
		}
		return &idtoken.Payload{
			Subject: "google-sub-123",
			Claims: map[string]interface{}{
				"email":   "g@example.com",
				"name":    "Google User",
				"picture": "https://example.com/p.png",
			},
		}, nil
	}

	t.Run("creates user on first login", func(t *testing.T) {
		resp, err := svc.GoogleLogin(context.Background(), "token")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "g@example.com", resp.User.Email)
		assert.Equal(t, models.ProviderGoogle, resp.User.Provider)
		assert.Equal(t, "google-sub-123", resp.User.GoogleID)
	})

	t.Run("reuses existing user on later logins", func(t *testing.T) {
		resp, err := svc.GoogleLogin(context.Background(), "token")
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, "g@example.com", resp.User.Email)
	})

	t.Run("rejected when no audience validates", func(t *testing.T) {
		svc.validateGoogle = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return nil, assert.AnError
		}
		_, err := svc.GoogleLogin(context.Background(), "token")
		assert.ErrorIs(t, err, ErrInvalidGoogleToken)
	})
}

func TestGitHubClient_FetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/user":
			w.Write([]byte(`{"id": 77, "login": "octo", "name": "", "email": "", "avatar_url": "https://example.com/a.png"}`))
		case "/user/emails":
			w.Write([]byte(`[
				{"email": "secondary@example.com", "primary": false, "verified": true},
				{"email": "primary@example.com", "primary": true, "verified": true}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewGitHubClient(config.OAuthConfig{})
	client.baseURL = srv.URL

	user, err := client.FetchUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(77), user.ID)
	assert.Equal(t, "octo", user.Login)
	assert.Equal(t, "primary@example.com", user.Email)
}

func TestGitHubRepos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		w.Write([]byte(`[
			{"id": 1, "name": "alpha", "full_name": "octo/alpha", "html_url": "https://github.com/octo/alpha", "language": "Go", "stargazers_count": 12},
			{"id": 2, "name": "beta", "full_name": "octo/beta", "private": true}
		]`))
	}))
	defer srv.Close()

	svc, db := newTestService(t, nil)
	svc.github.baseURL = srv.URL

	encrypted, err := svc.encryptor.EncryptString("tok")
	require.NoError(t, err)

	user := models.User{
		Email:             "linked@example.com",
		Name:              "Linked",
		Provider:          models.ProviderGitHub,
		GitHubID:          "77",
		GitHubAccessToken: encrypted,
	}
	require.NoError(t, db.Create(&user).Error)

	repos, err := svc.GitHubRepos(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "octo/alpha", repos[0].FullName)
	assert.True(t, repos[1].Private)
}

func TestGitHubRepos_NotLinked(t *testing.T) {
	svc, db := newTestService(t, nil)

	user := models.User{Email: "plain@example.com", Name: "Plain"}
	require.NoError(t, db.Create(&user).Error)

	_, err := svc.GitHubRepos(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrGitHubNotLinked)
}

func TestBeginGitHubFlow_Unconfigured(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.BeginGitHubFlow(StatePurposeLogin, uuid.Nil, "")
	assert.ErrorIs(t, err, ErrGitHubNotConfigured)
}
