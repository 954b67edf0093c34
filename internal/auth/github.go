package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/securecicd/backend/pkg/config"
)

const githubAPIBaseURL = "https://api.github.com"

var ErrGitHubNotConfigured = errors.New("github oauth is not configured")

// GitHubUser is the subset of the GitHub profile the backend cares about.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// GitHubRepo is one repository entry from the authenticated repo listing.
type GitHubRepo struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	HTMLURL       string    `json:"html_url"`
	Language      string    `json:"language"`
	Private       bool      `json:"private"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	DefaultBranch string    `json:"default_branch"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GitHubClient wraps the two OAuth configurations (login and account linking
// use distinct callback URLs) plus the REST calls made with a user token.
type GitHubClient struct {
	login   *oauth2.Config
	connect *oauth2.Config

	// baseURL is overridden in tests to point at a local httptest server.
	baseURL    string
	httpClient *http.Client
}

func NewGitHubClient(cfg config.OAuthConfig) *GitHubClient {
	base := oauth2.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		Endpoint:     githuboauth.Endpoint,
		Scopes:       []string{"read:user", "user:email", "repo"},
	}

	login := base
	login.RedirectURL = cfg.GitHubLoginCallback
	connect := base
	connect.RedirectURL = cfg.GitHubConnectCallback

	return &GitHubClient{
		login:      &login,
		connect:    &connect,
		baseURL:    githubAPIBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *GitHubClient) Configured() bool {
	return c.login.ClientID != "" && c.login.ClientSecret != ""
}

func (c *GitHubClient) config(purpose StatePurpose) *oauth2.Config {
	if purpose == StatePurposeConnect {
		return c.connect
	}
	return c.login
}

// AuthURL builds the GitHub authorization redirect for the given flow.
func (c *GitHubClient) AuthURL(purpose StatePurpose, state string) string {
	return c.config(purpose).AuthCodeURL(state)
}

// Exchange trades the callback code for a user access token.
func (c *GitHubClient) Exchange(ctx context.Context, purpose StatePurpose, code string) (string, error) {
	token, err := c.config(purpose).Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging github code: %w", err)
	}
	return token.AccessToken, nil
}

// FetchUser loads the authenticated user's profile. GitHub omits the email
// when it is private, so a second call to the emails endpoint fills it in.
func (c *GitHubClient) FetchUser(ctx context.Context, accessToken string) (*GitHubUser, error) {
	var user GitHubUser
	if err := c.get(ctx, accessToken, "/user", &user); err != nil {
		return nil, err
	}

	if user.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := c.get(ctx, accessToken, "/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					user.Email = e.Email
					break
				}
			}
		}
	}

	return &user, nil
}

// ListRepos returns the user's repositories, most recently updated first.
func (c *GitHubClient) ListRepos(ctx context.Context, accessToken string) ([]GitHubRepo, error) {
	var repos []GitHubRepo
	if err := c.get(ctx, accessToken, "/user/repos?per_page=100&sort=updated", &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

func (c *GitHubClient) get(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github responded with status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
