package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストレージバックエンド
const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"
)

// UserNameColumnLength はusers.nameとusers.display_nameのVARCHAR長。
const UserNameColumnLength = 32

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	StorageBackend string
	DatabaseURL    string
	MongoDBURI     string
	MongoDBName    string
	RedisURL       string

	// PostgreSQLコネクションプール
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Session
	SessionSecret        string
	SessionMaxAge        int // 秒
	SessionRetentionDays int

	// User
	UserRegistrationLimit    time.Duration
	UserNameMinLength        int
	UserNameMaxLength        int
	UserDisplayNameMaxLength int

	// Password
	PasswordMinLength     int
	PasswordMaxLength     int
	PasswordRequireLetter bool
	PasswordRequireDigit  bool
	BcryptCost            int

	// Twitter
	TwitterAPIKey        string
	TwitterAPIKeySecret  string
	TwitterCallbackURL   string
	TwitterAccountMinAge time.Duration
	AuthSessionTTL       time.Duration
	AuthSessionCapacity  int

	// Rate Limit
	RateLimitGeneral int // req/min
	RateLimitSignup  int // req/hour

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load はカレントディレクトリの.envと環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	return LoadWithEnvFile(".env")
}

// LoadWithEnvFile はenvFileを読み込んでから環境変数をConfigに展開する。
// 既に設定されている環境変数はenvFileの値より優先する。envFileが存在しない場合は無視する。
func LoadWithEnvFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	cfg.StorageBackend = getEnvString("STORAGE_BACKEND", StorageBackendPostgres)

	// Required fields
	var missing []string

	switch cfg.StorageBackend {
	case StorageBackendPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
		cfg.MongoDBURI = os.Getenv("MONGODB_URI")
		if cfg.MongoDBURI == "" {
			missing = append(missing, "MONGODB_URI")
		}
	case StorageBackendMemory:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %q", cfg.StorageBackend)
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.MongoDBName = getEnvString("MONGODB_DATABASE", "beluga")
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400*30)
	cfg.SessionRetentionDays = getEnvInt("SESSION_RETENTION_DAYS", 30)
	cfg.UserRegistrationLimit = time.Duration(getEnvInt("USER_REGISTRATION_LIMIT", 86400)) * time.Second
	cfg.UserNameMinLength = getEnvInt("USER_NAME_MIN_LENGTH", 1)
	cfg.UserNameMaxLength = getEnvInt("USER_NAME_MAX_LENGTH", 32)
	cfg.UserDisplayNameMaxLength = getEnvInt("USER_DISPLAY_NAME_MAX_LENGTH", 32)
	cfg.PasswordMinLength = getEnvInt("PASSWORD_MIN_LENGTH", 8)
	cfg.PasswordMaxLength = getEnvInt("PASSWORD_MAX_LENGTH", 72)
	cfg.PasswordRequireLetter = getEnvBool("PASSWORD_REQUIRE_LETTER", false)
	cfg.PasswordRequireDigit = getEnvBool("PASSWORD_REQUIRE_DIGIT", false)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.TwitterAPIKey = getEnvString("TWITTER_API_KEY", "")
	cfg.TwitterAPIKeySecret = getEnvString("TWITTER_API_KEY_SECRET", "")
	cfg.TwitterCallbackURL = getEnvString("TWITTER_CALLBACK_URL", strings.TrimSuffix(cfg.BaseURL, "/")+"/auth/twitter/callback")
	cfg.TwitterAccountMinAge = getEnvDuration("TWITTER_ACCOUNT_MIN_AGE", 30*24*time.Hour)
	cfg.AuthSessionTTL = getEnvDuration("AUTH_SESSION_TTL", 600*time.Second)
	cfg.AuthSessionCapacity = getEnvInt("AUTH_SESSION_CAPACITY", 1000)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSignup = getEnvInt("RATE_LIMIT_SIGNUP", 5)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.UserNameMinLength < 1 || cfg.UserNameMaxLength < cfg.UserNameMinLength {
		return nil, fmt.Errorf("invalid user name length range: %d..%d", cfg.UserNameMinLength, cfg.UserNameMaxLength)
	}
	if cfg.UserNameMaxLength > UserNameColumnLength {
		return nil, fmt.Errorf("USER_NAME_MAX_LENGTH %d exceeds column length %d", cfg.UserNameMaxLength, UserNameColumnLength)
	}
	if cfg.UserDisplayNameMaxLength < 0 || cfg.UserDisplayNameMaxLength > UserNameColumnLength {
		return nil, fmt.Errorf("USER_DISPLAY_NAME_MAX_LENGTH %d out of range 0..%d", cfg.UserDisplayNameMaxLength, UserNameColumnLength)
	}
	if cfg.PasswordMaxLength < cfg.PasswordMinLength {
		return nil, fmt.Errorf("invalid password length range: %d..%d", cfg.PasswordMinLength, cfg.PasswordMaxLength)
	}

	return cfg, nil
}

// SessionMaxAgeDuration はセッション有効期間をtime.Durationで返す。
func (c *Config) SessionMaxAgeDuration() time.Duration {
	return time.Duration(c.SessionMaxAge) * time.Second
}

// TwitterEnabled はTwitterログインに必要な認証情報が揃っているかを返す。
func (c *Config) TwitterEnabled() bool {
	return c.TwitterAPIKey != "" && c.TwitterAPIKeySecret != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
