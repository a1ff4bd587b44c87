// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"

	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"

	minSessionSecretLength = 32
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // HTTPサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// セッション設定
	SessionSecret        string // セッション署名用の秘密鍵
	SessionStore         string // cookie または redis
	SessionRedisURL      string // SESSION_STORE=redis のときの接続URL
	SessionMaxAgeSeconds int    // クッキーとサーバー側セッションの有効期限（秒）

	// アカウントストア設定
	StoreDriver     string // mongo または memory
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Google OAuth 設定（ClientID が空なら Google ログインは無効）
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	GoogleUserInfoURL  string

	// パスワードハッシュ設定
	BcryptCost int

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り、空なら無効）

	// ログ設定
	LogLevel  string
	LogFormat string // console または json
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "3000"),
		GinMode: getEnv("GIN_MODE", "debug"),

		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionStore:         strings.ToLower(getEnv("SESSION_STORE", SessionStoreCookie)),
		SessionRedisURL:      getEnv("SESSION_REDIS_URL", "redis://127.0.0.1:6379/0"),
		SessionMaxAgeSeconds: getEnvAsInt("SESSION_MAX_AGE_SECONDS", 86400),

		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMongo)),
		MongoURI:        getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "userDB"),
		MongoCollection: getEnv("MONGO_COLLECTION", "users"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:  getEnv("GOOGLE_CALLBACK_URL", "http://localhost:3000/auth/google/secrets"),
		GoogleUserInfoURL:  getEnv("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v3/userinfo"),

		BcryptCost: getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "console")),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.SessionStore {
	case SessionStoreCookie, SessionStoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreCookie, SessionStoreRedis, c.SessionStore)
	}
	switch c.StoreDriver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverMongo, StoreDriverMemory, c.StoreDriver)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.SessionMaxAgeSeconds < 0 {
		return fmt.Errorf("SESSION_MAX_AGE_SECONDS must not be negative")
	}
	if c.GoogleClientID != "" && c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required when GOOGLE_CLIENT_ID is set")
	}

	// ローカル開発ではセッション鍵は任意（未設定なら開発用の鍵を使う）
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if len(c.SessionSecret) < minSessionSecretLength {
			return fmt.Errorf("SESSION_SECRET must be at least %d bytes in release mode", minSessionSecretLength)
		}
		if c.StoreDriver == StoreDriverMemory {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in release mode")
		}
	}

	return nil
}

// GoogleEnabled は Google ログインが設定済みかどうかを返します。
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// SessionKey はセッション署名に使う鍵を返します。
func (c *Config) SessionKey() []byte {
	if c.SessionSecret == "" {
		return []byte("himitsu-development-session-key!")
	}
	return []byte(c.SessionSecret)
}

// SessionMaxAge はセッションの有効期限を返します。
func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeSeconds) * time.Second
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
