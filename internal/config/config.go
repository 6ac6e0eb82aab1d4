package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the portal API.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	AllowedOrigins         string
	AppwriteEndpoint       string
	AppwriteProjectID      string
	AppwriteAPIKey         string
	AppwriteTimeout        time.Duration
	AppwriteSelfSigned     bool
	DatabaseID             string
	StudentCollectionID    string
	AttendanceCollectionID string
	DatabaseDriver         string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventChannel           string
	SessionSecret          string
	SessionTTL             time.Duration
	SessionCookieSecure    bool
	ProfileCacheTTL        time.Duration
	LoginRateLimit         int
	LoginRateWindow        time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Validate reports every required setting that is missing.
func (c Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"appwrite.endpoint", c.AppwriteEndpoint},
		{"appwrite.project_id", c.AppwriteProjectID},
		{"appwrite.database_id", c.DatabaseID},
		{"appwrite.student_collection_id", c.StudentCollectionID},
		{"appwrite.attendance_collection_id", c.AttendanceCollectionID},
		{"session.secret", c.SessionSecret},
	}

	missing := make([]string, 0)
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			missing = append(missing, envName(item.key))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}

	return nil
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Attendance Portal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allowed_origins", "*")
	v.SetDefault("appwrite.timeout", "10s")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "file:attendance_audit.db?cache=shared")
	v.SetDefault("events.channel", "portal")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("session.cookie_secure", true)
	v.SetDefault("cache.profile_ttl", "2m")
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")

	appwriteTimeout, err := parseDuration(v, "appwrite.timeout", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	sessionTTL, err := parseDuration(v, "session.ttl", 12*time.Hour)
	if err != nil {
		return Config{}, err
	}
	profileTTL, err := parseDuration(v, "cache.profile_ttl", 2*time.Minute)
	if err != nil {
		return Config{}, err
	}
	loginWindow, err := parseDuration(v, "login.rate_window", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		AllowedOrigins:         v.GetString("app.allowed_origins"),
		AppwriteEndpoint:       v.GetString("appwrite.endpoint"),
		AppwriteProjectID:      v.GetString("appwrite.project_id"),
		AppwriteAPIKey:         v.GetString("appwrite.api_key"),
		AppwriteTimeout:        appwriteTimeout,
		AppwriteSelfSigned:     v.GetBool("appwrite.self_signed"),
		DatabaseID:             v.GetString("appwrite.database_id"),
		StudentCollectionID:    v.GetString("appwrite.student_collection_id"),
		AttendanceCollectionID: v.GetString("appwrite.attendance_collection_id"),
		DatabaseDriver:         strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventChannel:           v.GetString("events.channel"),
		SessionSecret:          v.GetString("session.secret"),
		SessionTTL:             sessionTTL,
		SessionCookieSecure:    v.GetBool("session.cookie_secure"),
		ProfileCacheTTL:        profileTTL,
		LoginRateLimit:         v.GetInt("login.rate_limit"),
		LoginRateWindow:        loginWindow,
	}

	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

const envPrefix = "ATTENDANCE"

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
