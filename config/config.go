package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"legend-scanner/scanner"
)

// Config holds application configuration
type Config struct {
	Port string

	// Database configuration
	DatabaseHost     string
	DatabasePort     int
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// MockMode runs against in-memory stores and synthetic market data
	MockMode bool

	// CursorSecret signs pagination cursor tokens
	CursorSecret string

	// UniverseFile is an optional YAML file listing tickers to scan
	UniverseFile string

	// Scan configuration
	Scan ScanConfig

	// Detector configuration
	Detector scanner.Config
}

// ScanConfig holds batch scan parameters
type ScanConfig struct {
	Workers       int
	LookbackDays  int
	TickerTimeout int // Seconds per ticker before it is skipped
	FetchRetries  int
	StoreRetries  int
	Schedule      string // Cron expression; empty disables scheduled scans
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	detector := scanner.DefaultConfig()
	detector.MinDecayRatio = getEnvFloat("LEGEND_MIN_DECAY_RATIO", detector.MinDecayRatio)
	detector.PivotBufferPct = getEnvFloat("LEGEND_PIVOT_BUFFER_PCT", detector.PivotBufferPct)
	detector.BreakoutVolumeMult = getEnvFloat("LEGEND_BREAKOUT_VOLUME_MULT", detector.BreakoutVolumeMult)
	detector.GapThresholdPct = getEnvFloat("LEGEND_GAP_THRESHOLD_PCT", detector.GapThresholdPct)
	detector.BaseLookback = getEnvInt("LEGEND_BASE_LOOKBACK", detector.BaseLookback)
	detector.DryUpBars = getEnvInt("LEGEND_DRY_UP_BARS", detector.DryUpBars)
	detector.MinWindow = getEnvInt("LEGEND_MIN_WINDOW", detector.MinWindow)
	detector.LiquidityFloor = getEnvFloat("LEGEND_LIQUIDITY_FLOOR", detector.LiquidityFloor)
	detector.CheckTrendTemplate = getEnvOrDefault("LEGEND_CHECK_TREND", "true") == "true"

	return &Config{
		Port: getEnvOrDefault("PORT", "8080"),

		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvInt("DB_PORT", 5432),
		DatabaseName:     getEnvOrDefault("DB_NAME", "legend_scanner"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "legend"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "legend123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		MockMode:     getEnvOrDefault("LEGEND_MOCK_MODE", "false") == "true",
		CursorSecret: getEnvOrDefault("LEGEND_CURSOR_SECRET", ""),
		UniverseFile: getEnvOrDefault("LEGEND_UNIVERSE_FILE", ""),

		Scan: ScanConfig{
			Workers:       getEnvInt("LEGEND_SCAN_WORKERS", 4),
			LookbackDays:  getEnvInt("LEGEND_SCAN_LOOKBACK_DAYS", 365),
			TickerTimeout: getEnvInt("LEGEND_SCAN_TICKER_TIMEOUT", 30),
			FetchRetries:  getEnvInt("LEGEND_SCAN_FETCH_RETRIES", 3),
			StoreRetries:  getEnvInt("LEGEND_SCAN_STORE_RETRIES", 3),
			Schedule:      getEnvOrDefault("LEGEND_SCAN_SCHEDULE", "0 22 * * 1-5"),
		},

		Detector: detector,
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
