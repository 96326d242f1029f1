package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	// AuthSecret はトークン署名用の共有鍵。ソースコードに埋め込まず、
	// 必ず環境変数経由で供給する。鍵を差し替えて再起動すると
	// 発行済みトークンは全て無効になる（TTLが10分のため許容する）。
	AuthSecret string
	TokenTTL   time.Duration

	// Blacklist cleanup
	// BlacklistRetention はTokenTTLより長くなければならない。
	// 有効期限内のトークンの失効記録を削除してしまうと失効が取り消されるため。
	BlacklistRetention time.Duration
	CleanupInterval    time.Duration

	// Import
	ImportURL     string
	ImportTimeout time.Duration
	ImportMaxSize int64

	// Server
	ServerPort string
	ImageDir   string

	// CORS
	CORSAllowedOrigin string
}

// defaultImportURL はカタログデータセットの取得元。
const defaultImportURL = "https://raw.githubusercontent.com/Purukitto/pokemon-data.json/master/pokedex.json"

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AuthSecret = os.Getenv("AUTH_SECRET")
	if cfg.AuthSecret == "" {
		missing = append(missing, "AUTH_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 10*time.Minute)
	cfg.BlacklistRetention = getEnvDuration("BLACKLIST_RETENTION", 24*time.Hour)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", time.Hour)
	cfg.ImportURL = getEnvString("IMPORT_URL", defaultImportURL)
	cfg.ImportTimeout = getEnvDuration("IMPORT_TIMEOUT", 30*time.Second)
	cfg.ImportMaxSize = getEnvInt64("IMPORT_MAX_SIZE", 20971520)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.ImageDir = getEnvString("IMAGE_DIR", "image")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	if cfg.BlacklistRetention <= cfg.TokenTTL {
		return nil, fmt.Errorf("BLACKLIST_RETENTION (%v) must be longer than TOKEN_TTL (%v)",
			cfg.BlacklistRetention, cfg.TokenTTL)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
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
