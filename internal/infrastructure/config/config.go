// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by app.OpenLocalStore
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string
	LogFormat  string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Backend API
	APIBaseURL      string
	APITimeout      time.Duration
	APIRateLimit    float64
	APIRateBurst    int
	StreamURL       string
	ReconnectDelay  time.Duration
	HealthCheckURL  string
	ConnectivityTTL time.Duration

	// Local store
	StoreDriver   string
	SQLitePath    string
	PostgresURI   string
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Cache thresholds
	CacheFreshness     time.Duration
	CacheRetention     time.Duration
	CacheSweepInterval time.Duration
	AirportMemoTTL     time.Duration

	// Identity provider
	AuthClientID     string
	AuthClientSecret string
	AuthTokenURL     string
	AuthAuthorizeURL string
	AuthRedirectURL  string
	AuthRefreshToken string
	AuthAccessToken  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	apiBase := getEnv("API_BASE_URL", "http://localhost:8000/api")

	// Set defaults and override with env vars
	config := &Config{
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),

		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		APIBaseURL:      apiBase,
		APITimeout:      time.Duration(getEnvAsInt("API_TIMEOUT", 30)) * time.Second,
		APIRateLimit:    getEnvAsFloat("API_RATE_LIMIT", 10),
		APIRateBurst:    getEnvAsInt("API_RATE_BURST", 5),
		StreamURL:       getEnv("FLIGHT_STREAM_URL", apiBase+"/flights/updates/stream"),
		ReconnectDelay:  getEnvAsDuration("STREAM_RECONNECT_DELAY", time.Second),
		HealthCheckURL:  getEnv("HEALTH_CHECK_URL", apiBase+"/health"),
		ConnectivityTTL: getEnvAsDuration("CONNECTIVITY_INTERVAL", 15*time.Second),

		StoreDriver:   getEnv("STORE_DRIVER", StoreDriverSQLite),
		SQLitePath:    getEnv("SQLITE_PATH", "skybound-journeys.db"),
		PostgresURI:   getEnv("POSTGRES_DSN", ""),
		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "skybound"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		CacheFreshness:     getEnvAsDuration("CACHE_FRESHNESS", 30*time.Minute),
		CacheRetention:     getEnvAsDuration("CACHE_RETENTION", 24*time.Hour),
		CacheSweepInterval: getEnvAsDuration("CACHE_SWEEP_INTERVAL", time.Hour),
		AirportMemoTTL:     getEnvAsDuration("AIRPORT_MEMO_TTL", 5*time.Minute),

		AuthClientID:     getEnv("AUTH_CLIENT_ID", ""),
		AuthClientSecret: getEnv("AUTH_CLIENT_SECRET", ""),
		AuthTokenURL:     getEnv("AUTH_TOKEN_URL", ""),
		AuthAuthorizeURL: getEnv("AUTH_AUTHORIZE_URL", ""),
		AuthRedirectURL:  getEnv("AUTH_REDIRECT_URL", "http://localhost:8090/oauth2callback"),
		AuthRefreshToken: getEnv("AUTH_REFRESH_TOKEN", ""),
		AuthAccessToken:  getEnv("AUTH_ACCESS_TOKEN", ""),
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("90s", "30m")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
