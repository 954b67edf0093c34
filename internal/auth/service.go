package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/database/models"
	"github.com/securecicd/backend/pkg/crypto"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidGoogleToken = errors.New("invalid google token")
	ErrInvalidState       = errors.New("invalid or expired oauth state")
	ErrGitHubNotLinked    = errors.New("no github account linked")
)

type googleValidateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type Service struct {
	db        *gorm.DB
	jwt       *JWTService
	github    *GitHubClient
	states    *StateStore
	encryptor *crypto.Encryptor

	googleAudiences []string
	validateGoogle  googleValidateFunc
}

func NewService(db *gorm.DB, jwt *JWTService, github *GitHubClient, encryptor *crypto.Encryptor, googleAudiences []string) *Service {
	return &Service{
		db:              db,
		jwt:             jwt,
		github:          github,
		states:          NewStateStore(),
		encryptor:       encryptor,
		googleAudiences: googleAudiences,
		validateGoogle:  idtoken.Validate,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		Provider:     models.ProviderLocal,
		Role:         "user",
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return s.respond(&user)
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == "" || !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.respond(&user)
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GoogleLogin verifies a Google ID token and signs the user in, creating the
// account on first sight. Several frontend client IDs may be accepted, so the
// token is checked against each configured audience until one matches.
func (s *Service) GoogleLogin(ctx context.Context, rawToken string) (*AuthResponse, error) {
	if len(s.googleAudiences) == 0 {
		return nil, ErrInvalidGoogleToken
	}

	var payload *idtoken.Payload
	for _, audience := range s.googleAudiences {
		p, err := s.validateGoogle(ctx, rawToken, audience)
		if err == nil {
			payload = p
			break
		}
	}
	if payload == nil {
		return nil, ErrInvalidGoogleToken
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)
	if email == "" {
		return nil, ErrInvalidGoogleToken
	}
	if name == "" {
		name = email
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("google_id = ? OR email = ?", payload.Subject, email).
		First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:           email,
			Name:            name,
			Provider:        models.ProviderGoogle,
			GoogleID:        payload.Subject,
			ProfilePhotoURL: picture,
			Role:            "user",
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		user.GoogleID = payload.Subject
		if picture != "" {
			user.ProfilePhotoURL = picture
		}
		if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, err
		}
	}

	return s.respond(&user)
}

// BeginGitHubFlow creates a state session and returns the GitHub redirect URL.
// For the connect flow userID identifies the account being linked.
func (s *Service) BeginGitHubFlow(purpose StatePurpose, userID uuid.UUID, redirect string) (string, error) {
	if !s.github.Configured() {
		return "", ErrGitHubNotConfigured
	}
	state, err := s.states.Create(purpose, userID, redirect)
	if err != nil {
		return "", err
	}
	return s.github.AuthURL(purpose, state), nil
}

// CompleteGitHubLogin finishes the sign-in flow: validates the state, trades
// the code for a token, and upserts the user. The stored access token is
// encrypted at rest.
func (s *Service) CompleteGitHubLogin(ctx context.Context, state, code string) (*AuthResponse, string, error) {
	st, ok := s.states.Consume(state)
	if !ok || st.Purpose != StatePurposeLogin {
		return nil, "", ErrInvalidState
	}

	accessToken, err := s.github.Exchange(ctx, StatePurposeLogin, code)
	if err != nil {
		return nil, st.Redirect, err
	}

	ghUser, err := s.github.FetchUser(ctx, accessToken)
	if err != nil {
		return nil, st.Redirect, err
	}

	githubID := strconv.FormatInt(ghUser.ID, 10)
	email := ghUser.Email
	if email == "" {
		// Profiles without a visible email still get a stable address.
		email = fmt.Sprintf("%s@users.noreply.github.com", ghUser.Login)
	}
	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}

	encrypted, err := s.encryptor.EncryptString(accessToken)
	if err != nil {
		return nil, st.Redirect, err
	}

	var user models.User
	err = s.db.WithContext(ctx).
		Where("git_hub_id = ? OR email = ?", githubID, email).
		First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:             email,
			Name:              name,
			Provider:          models.ProviderGitHub,
			GitHubID:          githubID,
			GitHubAccessToken: encrypted,
			ProfilePhotoURL:   ghUser.AvatarURL,
			Role:              "user",
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, st.Redirect, err
		}
	case err != nil:
		return nil, st.Redirect, err
	default:
		user.GitHubID = githubID
		user.GitHubAccessToken = encrypted
		if ghUser.AvatarURL != "" {
			user.ProfilePhotoURL = ghUser.AvatarURL
		}
		if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, st.Redirect, err
		}
	}

	resp, err := s.respond(&user)
	return resp, st.Redirect, err
}

// CompleteGitHubConnect finishes the linking flow for the user captured in
// the state.
func (s *Service) CompleteGitHubConnect(ctx context.Context, state, code string) (string, error) {
	st, ok := s.states.Consume(state)
	if !ok || st.Purpose != StatePurposeConnect {
		return "", ErrInvalidState
	}

	accessToken, err := s.github.Exchange(ctx, StatePurposeConnect, code)
	if err != nil {
		return st.Redirect, err
	}

	ghUser, err := s.github.FetchUser(ctx, accessToken)
	if err != nil {
		return st.Redirect, err
	}

	encrypted, err := s.encryptor.EncryptString(accessToken)
	if err != nil {
		return st.Redirect, err
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", st.UserID).
		Updates(map[string]any{
			"git_hub_id":           strconv.FormatInt(ghUser.ID, 10),
			"git_hub_access_token": encrypted,
		}).Error
	return st.Redirect, err
}

// GitHubRepos lists the repositories of the user's linked GitHub account.
func (s *Service) GitHubRepos(ctx context.Context, userID uuid.UUID) ([]GitHubRepo, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.GitHubAccessToken == "" {
		return nil, ErrGitHubNotLinked
	}

	accessToken, err := s.encryptor.DecryptString(user.GitHubAccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypting github token: %w", err)
	}

	return s.github.ListRepos(ctx, accessToken)
}

// GitHubLinked reports whether the user has a usable linked GitHub account.
func (s *Service) GitHubLinked(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.GitHubAccessToken != "", nil
}

func (s *Service) respond(user *models.User) (*AuthResponse, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}
