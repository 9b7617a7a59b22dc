package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	Auth      AuthConfig
	Locale    LocaleConfig
	Payment   PaymentConfig
	Server    ServerConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // postgres | sqlite
	Host       string
	Port       string
	Username   string
	Password   string
	Database   string
	SQLitePath string
	LogLevel   string // silent | error | warn | info

	// Embedded PostgreSQL, used when Host is localhost and no password is set
	EmbeddedDir  string
	EmbeddedPort int
}

// AuthConfig holds identity provider settings
type AuthConfig struct {
	AccessTokenTTL           time.Duration
	RefreshTokenTTL          time.Duration
	RequireEmailConfirmation bool
}

// LocaleConfig holds localization settings
type LocaleConfig struct {
	DefaultLanguage string
}

// PaymentConfig holds the simulated payment collaborator settings
type PaymentConfig struct {
	UPIID          string
	Payee          string
	CurrencySymbol string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendDir     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	driver := getEnv("DB_DRIVER", "postgres")
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", driver)
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3000"),
		JWTSecret: jwtSecret,
		Database: DatabaseConfig{
			Driver:     driver,
			Host:       getEnv("PG_HOST", "localhost"),
			Port:       getEnv("PG_PORT", "5432"),
			Username:   getEnv("PG_USERNAME", "postgres"),
			Password:   os.Getenv("PG_PASSWORD"),
			Database:   getEnv("PG_DATABASE", "agrorent"),
			SQLitePath: getEnv("SQLITE_PATH", "agrorent.db"),
			LogLevel:   getEnv("DB_LOG_LEVEL", "warn"),

			EmbeddedDir:  getEnv("PG_EMBEDDED_DIR", "./db_data"),
			EmbeddedPort: getInt("PG_EMBEDDED_PORT", 5433),
		},
		Auth: AuthConfig{
			AccessTokenTTL:           getDuration("ACCESS_TOKEN_TTL", time.Hour),
			RefreshTokenTTL:          getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
			RequireEmailConfirmation: getBool("REQUIRE_EMAIL_CONFIRMATION", false),
		},
		Locale: LocaleConfig{
			DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
		},
		Payment: PaymentConfig{
			UPIID:          getEnv("PAYMENT_UPI_ID", "agrorent@upi"),
			Payee:          getEnv("PAYMENT_PAYEE", "AgroRent"),
			CurrencySymbol: getEnv("CURRENCY_SYMBOL", "Rs."),
		},
		Server: ServerConfig{
			ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			FrontendDir:     os.Getenv("FRONTEND_DIR"),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
