package handlers

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/securecicd/backend/internal/api/dto"
	"github.com/securecicd/backend/internal/api/middleware"
	"github.com/securecicd/backend/internal/auth"
)

// GitHubHandler drives both GitHub OAuth flows. Login endpoints are public;
// the connect and repo endpoints require an authenticated session.
type GitHubHandler struct {
	authService *auth.Service
	frontendURL string
}

func NewGitHubHandler(authService *auth.Service, frontendURL string) *GitHubHandler {
	return &GitHubHandler{authService: authService, frontendURL: frontendURL}
}

// BeginLogin handles GET /api/auth/github and redirects to GitHub.
func (h *GitHubHandler) BeginLogin(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect")
	if redirect == "" {
		redirect = h.frontendURL + "/auth/callback"
	}

	authURL, err := h.authService.BeginGitHubFlow(auth.StatePurposeLogin, uuid.Nil, redirect)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "GitHub login is not configured"})
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// LoginCallback handles GET /api/auth/github/callback. The browser lands here
// from GitHub, so outcomes are delivered by redirecting back to the frontend.
func (h *GitHubHandler) LoginCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	resp, redirect, err := h.authService.CompleteGitHubLogin(r.Context(), state, code)
	if redirect == "" {
		redirect = h.frontendURL + "/auth/callback"
	}
	if err != nil {
		http.Redirect(w, r, withQuery(redirect, "error", "github_login_failed"), http.StatusFound)
		return
	}

	setTokenCookie(w, resp.Token)
	http.Redirect(w, r, withQuery(redirect, "token", resp.Token), http.StatusFound)
}

// BeginConnect handles GET /api/github/auth/github for linking GitHub to the
// current account.
func (h *GitHubHandler) BeginConnect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	redirect := r.URL.Query().Get("redirect")
	if redirect == "" {
		redirect = h.frontendURL + "/settings"
	}

	authURL, err := h.authService.BeginGitHubFlow(auth.StatePurposeConnect, userID, redirect)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "GitHub integration is not configured"})
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// ConnectCallback handles GET /api/github/auth/github/callback.
func (h *GitHubHandler) ConnectCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	redirect, err := h.authService.CompleteGitHubConnect(r.Context(), state, code)
	if redirect == "" {
		redirect = h.frontendURL + "/settings"
	}
	if err != nil {
		http.Redirect(w, r, withQuery(redirect, "error", "github_connect_failed"), http.StatusFound)
		return
	}

	http.Redirect(w, r, withQuery(redirect, "github", "connected"), http.StatusFound)
}

// Status handles GET /api/github/status.
func (h *GitHubHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	linked, err := h.authService.GitHubLinked(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check GitHub status"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"connected": linked})
}

// Repos handles GET /api/github/repos.
func (h *GitHubHandler) Repos(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	repos, err := h.authService.GitHubRepos(r.Context(), userID)
	if err != nil {
		switch err {
		case auth.ErrGitHubNotLinked:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "No GitHub account linked"})
		default:
			writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: "Failed to list GitHub repositories"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{Count: len(repos), Data: repos})
}

func withQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
