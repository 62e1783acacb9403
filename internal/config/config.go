package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath        string
	HistoryDir          string
	PredictorServiceURL string
	TradierBaseURL      string
	TradierAPIKey       string
	AlphaVantageAPIKey  string
	LogLevel            string
	Port                int
	DevMode             bool

	// Scan behavior
	ScanDaysAhead   int     // how far ahead to look for earnings events
	ScanMinScore    float64 // drop results below this composite score
	ScanConcurrency int     // parallel ticker evaluations per scan

	// Core overrides (zero value = use module defaults)
	MinQuarters    int
	MoveMetric     string
	MinIV          float64
	MinOptVolume   int64
	MinOpenInt     int64
	VRPExcellent   float64
	VRPGood        float64
	VRPMarginal    float64
	LookbackLimit  int
	IVLookbackDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 8010),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		DatabasePath:        getEnv("DATABASE_PATH", "./data/earnscan.db"),
		HistoryDir:          getEnv("HISTORY_DIR", "./data/history"),
		PredictorServiceURL: getEnv("PREDICTOR_SERVICE_URL", ""), // empty = predictions disabled
		TradierBaseURL:      getEnv("TRADIER_BASE_URL", "https://api.tradier.com/v1"),
		TradierAPIKey:       getEnv("TRADIER_API_KEY", ""),
		AlphaVantageAPIKey:  getEnv("ALPHAVANTAGE_API_KEY", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),

		ScanDaysAhead:   getEnvAsInt("SCAN_DAYS_AHEAD", 7),
		ScanMinScore:    getEnvAsFloat("SCAN_MIN_SCORE", 0),
		ScanConcurrency: getEnvAsInt("SCAN_CONCURRENCY", 4),

		MinQuarters:    getEnvAsInt("VRP_MIN_QUARTERS", 4),
		MoveMetric:     getEnv("VRP_MOVE_METRIC", "close"),
		MinIV:          getEnvAsFloat("SCORE_MIN_IV", 60),
		MinOptVolume:   int64(getEnvAsInt("SCORE_MIN_OPT_VOLUME", 100)),
		MinOpenInt:     int64(getEnvAsInt("SCORE_MIN_OPEN_INTEREST", 500)),
		VRPExcellent:   getEnvAsFloat("VRP_THRESHOLD_EXCELLENT", 7.0),
		VRPGood:        getEnvAsFloat("VRP_THRESHOLD_GOOD", 4.0),
		VRPMarginal:    getEnvAsFloat("VRP_THRESHOLD_MARGINAL", 1.5),
		LookbackLimit:  getEnvAsInt("VRP_LOOKBACK_LIMIT", 12),
		IVLookbackDays: getEnvAsInt("IV_LOOKBACK_DAYS", 7),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and coherent.
// Threshold ordering is checked here so a misconfigured instance fails at
// startup instead of producing silently wrong tiering.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	switch c.MoveMetric {
	case "close", "gap", "intraday":
	default:
		return fmt.Errorf("VRP_MOVE_METRIC must be close, gap or intraday, got %q", c.MoveMetric)
	}

	if !(c.VRPExcellent > c.VRPGood && c.VRPGood > c.VRPMarginal && c.VRPMarginal > 0) {
		return fmt.Errorf("VRP thresholds must satisfy excellent > good > marginal > 0, got %.2f/%.2f/%.2f",
			c.VRPExcellent, c.VRPGood, c.VRPMarginal)
	}

	if c.MinQuarters < 1 {
		return fmt.Errorf("VRP_MIN_QUARTERS must be at least 1, got %d", c.MinQuarters)
	}

	if c.ScanConcurrency < 1 {
		return fmt.Errorf("SCAN_CONCURRENCY must be at least 1, got %d", c.ScanConcurrency)
	}

	// Note: API keys are optional - the scanner degrades to whatever data
	// sources are configured.
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
