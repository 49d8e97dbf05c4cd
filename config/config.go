package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"rental-notifier/models"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Failed-listing policies.
const (
	FailedDrop  = "drop"
	FailedRetry = "retry"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SlackToken string
	MapsAPIKey string

	BaseURL        string
	CenterAddr     string
	SearchRadiusKm int
	BedroomsMin    int
	BedroomsMax    int

	WorkAddr1 string
	WorkAddr2 string

	PriceMin    float64
	PriceMax    float64
	MaxCommute1 float64
	MaxCommute2 float64
	CloseMargin float64

	TieredChannels    bool
	ChannelDefault    string
	ChannelClose      string
	ChannelNoDistance string

	RoutesFile string
	Routes     []models.Route
	Rules      []CommuteRule

	StoreBackend    string
	DataDir         string
	DecisionLogPath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RateLimitMs   int
	ScrollPauseMs int
	MaxScrolls    int
	ChromeBin     string

	FailedListingPolicy string
	LogLevel            string
}

// CommuteRule rejects a listing whose Route duration exceeds MaxMinutes.
type CommuteRule struct {
	Route      string  `yaml:"route"`
	MaxMinutes float64 `yaml:"max_minutes"`
	Reason     string  `yaml:"reason"`
}

// Load reads the .env file and returns a populated Config struct.
// Routes and commute rules come from ROUTES_FILE when set, otherwise
// they are derived from WORK_ADDR_1 / WORK_ADDR_2.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		SlackToken: getEnv("SLACK_TOKEN", ""),
		MapsAPIKey: getEnv("MAPS_API_KEY", ""),

		BaseURL:        strings.TrimRight(getEnv("BASE_URL", "https://www.openrent.co.uk"), "/"),
		CenterAddr:     getEnv("CENTER_ADDR", ""),
		SearchRadiusKm: getEnvInt("SEARCH_RADIUS_KM", 15),
		BedroomsMin:    getEnvInt("BEDROOMS_MIN", 3),
		BedroomsMax:    getEnvInt("BEDROOMS_MAX", 3),

		WorkAddr1: getEnv("WORK_ADDR_1", ""),
		WorkAddr2: getEnv("WORK_ADDR_2", ""),

		PriceMin:    getEnvFloat("PRICE_MIN", 0),
		PriceMax:    getEnvFloat("PRICE_MAX", 3000),
		MaxCommute1: getEnvFloat("MAX_COMMUTE_1", 40),
		MaxCommute2: getEnvFloat("MAX_COMMUTE_2", 60),
		CloseMargin: getEnvFloat("CLOSE_MARGIN", 15),

		TieredChannels:    getEnvBool("TIERED_CHANNELS", true),
		ChannelDefault:    getEnv("CHANNEL_DEFAULT", "#houses-medium"),
		ChannelClose:      getEnv("CHANNEL_CLOSE", "#houses-close"),
		ChannelNoDistance: getEnv("CHANNEL_NO_DISTANCE", "#houses-distance-none"),

		RoutesFile: getEnv("ROUTES_FILE", ""),

		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		DataDir:         getEnv("DATA_DIR", "./data"),
		DecisionLogPath: getEnv("DECISION_LOG_PATH", "./data/decisions.csv"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RateLimitMs:   getEnvInt("RATE_LIMIT_MS", 1000),
		ScrollPauseMs: getEnvInt("SCROLL_PAUSE_MS", 2000),
		MaxScrolls:    getEnvInt("MAX_SCROLLS", 200),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		FailedListingPolicy: strings.ToLower(getEnv("FAILED_LISTING_POLICY", FailedDrop)),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	if cfg.RoutesFile != "" {
		rf, err := LoadRoutes(cfg.RoutesFile)
		if err != nil {
			return nil, err
		}
		cfg.Routes = rf.Routes
		cfg.Rules = rf.Rules
	} else {
		cfg.Routes, cfg.Rules = DefaultRoutes(cfg.WorkAddr1, cfg.WorkAddr2, cfg.MaxCommute1, cfg.MaxCommute2)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// PrimaryRoute is the route whose duration drives channel selection.
func (c *Config) PrimaryRoute() string {
	if len(c.Rules) > 0 {
		return c.Rules[0].Route
	}
	if len(c.Routes) > 0 {
		return c.Routes[0].Name
	}
	return ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("[config] %s=%q is not an int, using %d", key, val, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
		log.Printf("[config] %s=%q is not a number, using %v", key, val, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
		log.Printf("[config] %s=%q is not a bool, using %t", key, val, fallback)
	}
	return fallback
}
