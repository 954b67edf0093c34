package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Analyzer   AnalyzerConfig
	OAuth      OAuthConfig
	Encryption EncryptionConfig
	RateLimit  RateLimitConfig
	Scans      ScanConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// AnalyzerConfig locates the external static-analysis tool. Dir must contain
// analyzer.py plus the reports/ and json_output/ directories the tool writes to.
type AnalyzerConfig struct {
	Dir       string
	PythonBin string
	MaxFiles  int
}

type OAuthConfig struct {
	GoogleClientID        string
	GitHubClientID        string
	GitHubClientSecret    string
	GitHubLoginCallback   string
	GitHubConnectCallback string
	FrontendURL           string
}

type EncryptionConfig struct {
	Key string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type ScanConfig struct {
	// StaleAfterMinutes is how long a scan may sit in "running" before the
	// worker's reaper marks it failed. Zero disables reaping.
	StaleAfterMinutes int
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (j *JWTConfig) Expiry() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

// GoogleAudiences returns the accepted Google OAuth client IDs. The env value
// may hold a comma-separated list when multiple frontends share the backend.
func (o *OAuthConfig) GoogleAudiences() []string {
	var out []string
	for _, id := range strings.Split(o.GoogleClientID, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (s *ScanConfig) StaleAfter() time.Duration {
	return time.Duration(s.StaleAfterMinutes) * time.Minute
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 5000)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "securecicd")
	v.SetDefault("DATABASE_PASSWORD", "securecicd_secret")
	v.SetDefault("DATABASE_NAME", "securecicd")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_EXPIRY_HOURS", 168)
	v.SetDefault("ANALYZER_DIR", "code-analyzer")
	v.SetDefault("PYTHON_BIN", "python")
	v.SetDefault("ANALYZER_MAX_FILES", 0)
	v.SetDefault("GITHUB_LOGIN_CALLBACK_URL", "http://localhost:5000/api/auth/github/callback")
	v.SetDefault("GITHUB_CONNECT_CALLBACK_URL", "http://localhost:5000/api/github/auth/github/callback")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("SCAN_STALE_AFTER_MINUTES", 120)

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Analyzer: AnalyzerConfig{
			Dir:       v.GetString("ANALYZER_DIR"),
			PythonBin: v.GetString("PYTHON_BIN"),
			MaxFiles:  v.GetInt("ANALYZER_MAX_FILES"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:        v.GetString("GOOGLE_CLIENT_ID"),
			GitHubClientID:        v.GetString("GITHUB_CLIENT_ID"),
			GitHubClientSecret:    v.GetString("GITHUB_CLIENT_SECRET"),
			GitHubLoginCallback:   v.GetString("GITHUB_LOGIN_CALLBACK_URL"),
			GitHubConnectCallback: v.GetString("GITHUB_CONNECT_CALLBACK_URL"),
			FrontendURL:           v.GetString("FRONTEND_URL"),
		},
		Encryption: EncryptionConfig{
			Key: v.GetString("ENCRYPTION_KEY"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Scans: ScanConfig{
			StaleAfterMinutes: v.GetInt("SCAN_STALE_AFTER_MINUTES"),
		},
	}

	return cfg, nil
}
