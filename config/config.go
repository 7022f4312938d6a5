package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Secrets never have defaults in code and must come from config/config.json or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	RateLimitPerMinute int
	AllowedOrigins     []string
	SiteURL            string
	SecureCookies      bool
	// Admin access: either by authenticated user id or the bootstrap login below
	AdminUserIDs      []string
	AdminUsername     string
	AdminPasswordHash string
	// OAuth sign-in for admins; AdminUserIDs entries look like "github:12345"
	OAuthProvider     string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectBase string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for caching and the shared view limiter
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// View tracking
	ViewLimitPerWindow int
	ViewLimitWindowSec int
	ViewDedupHours     int
	ViewSharedLimiter  bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config/config.json -> defaults -> environment variable overrides
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("config/config.json ignored: %v", err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	loaded = true
	return cfg
}

// Get returns the loaded configuration, loading it on first use.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the active configuration. Intended for tests and tooling.
func Set(c AppConfig) {
	applyDefaults(&c)
	cfg = c
	loaded = true
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:3000"
	}
	if c.OAuthRedirectBase == "" {
		c.OAuthRedirectBase = "http://localhost:" + c.AppPort
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin.log"
	}
	if c.ViewLimitPerWindow == 0 {
		c.ViewLimitPerWindow = 30
	}
	if c.ViewLimitWindowSec == 0 {
		c.ViewLimitWindowSec = 60
	}
	if c.ViewDedupHours == 0 {
		c.ViewDedupHours = 24
	}
}

func applyEnv(c *AppConfig) {
	c.AppPort = getEnv("APP_PORT", c.AppPort)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.SiteURL = getEnv("SITE_URL", c.SiteURL)
	c.AdminUsername = getEnv("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", c.AdminPasswordHash)
	c.OAuthProvider = strings.ToLower(getEnv("OAUTH_PROVIDER", c.OAuthProvider))
	c.OAuthClientID = getEnv("OAUTH_CLIENT_ID", c.OAuthClientID)
	c.OAuthClientSecret = getEnv("OAUTH_CLIENT_SECRET", c.OAuthClientSecret)
	c.OAuthRedirectBase = getEnv("OAUTH_REDIRECT_BASE", c.OAuthRedirectBase)
	if v := os.Getenv("ADMIN_USER_IDS"); v != "" {
		c.AdminUserIDs = splitList(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.SecureCookies = getEnvBool("SECURE_COOKIES", c.SecureCookies)

	c.DBDriver = strings.ToLower(getEnv("DB_DRIVER", c.DBDriver))
	c.DatabaseURI = getEnv("DATABASE_URI", c.DatabaseURI)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)

	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	c.RedisPort = getEnvInt("REDIS_PORT", c.RedisPort)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPath = getEnv("LOG_PATH", c.LogPath)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)

	c.ViewLimitPerWindow = getEnvInt("VIEW_LIMIT_PER_WINDOW", c.ViewLimitPerWindow)
	c.ViewLimitWindowSec = getEnvInt("VIEW_LIMIT_WINDOW_SEC", c.ViewLimitWindowSec)
	c.ViewDedupHours = getEnvInt("VIEW_DEDUP_HOURS", c.ViewDedupHours)
	c.ViewSharedLimiter = getEnvBool("VIEW_SHARED_LIMITER", c.ViewSharedLimiter)
}

// IsAdminUserID reports whether the authenticated user id belongs to the admin list.
func (c AppConfig) IsAdminUserID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	for _, a := range c.AdminUserIDs {
		if strings.TrimSpace(a) == id {
			return true
		}
	}
	return false
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadJSONConfig reads grouped sections from the JSON file into out. A missing file is not an error.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.SiteURL = getString(app, "SiteURL")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
		out.SecureCookies = getBool(app, "SecureCookies")
	}

	if adm, ok := raw["admin"].(map[string]any); ok {
		out.AdminUserIDs = getStringSlice(adm, "UserIDs")
		out.AdminUsername = getString(adm, "Username")
		out.AdminPasswordHash = getString(adm, "PasswordHash")
	}

	if oa, ok := raw["oauth"].(map[string]any); ok {
		out.OAuthProvider = strings.ToLower(getString(oa, "Provider"))
		out.OAuthClientID = getString(oa, "ClientID")
		out.OAuthClientSecret = getString(oa, "ClientSecret")
		out.OAuthRedirectBase = getString(oa, "RedirectBase")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = strings.ToLower(getString(dbs, "Driver"))
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.GinMode = getString(lg, "GinMode")
		out.GinPath = getString(lg, "GinPath")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if tr, ok := raw["tracking"].(map[string]any); ok {
		out.ViewLimitPerWindow = getInt(tr, "LimitPerWindow")
		out.ViewLimitWindowSec = getInt(tr, "WindowSec")
		out.ViewDedupHours = getInt(tr, "DedupHours")
		out.ViewSharedLimiter = getBool(tr, "SharedLimiter")
	}

	return nil
}
