// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database    DatabaseConfig    `json:"database"`
	Server      ServerConfig      `json:"server"`
	JWT         JWTConfig         `json:"jwt"`
	Logging     LoggingConfig     `json:"logging"`
	Cache       CacheConfig       `json:"cache"`
	Hotel       HotelConfig       `json:"hotel"`
	Forecasting ForecastingConfig `json:"forecasting"`
	Pricing     PricingConfig     `json:"pricing"`
	Export      ExportConfig      `json:"export"`
	Scheduler   SchedulerConfig   `json:"scheduler"`
	Deployment  DeploymentConfig  `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
	EnableMetrics   bool          `json:"enable_metrics"`
	TrustedProxies  []string      `json:"trusted_proxies"`
	ProxyHeader     string        `json:"proxy_header"`
}

type JWTConfig struct {
	SecretKey      string        `json:"secret_key"`
	AccessTokenTTL time.Duration `json:"access_token_ttl"`
	Issuer         string        `json:"issuer"`
	Audience       string        `json:"audience"`
}

type LoggingConfig struct {
	Level      string `json:"level"`
	Output     string `json:"output"`
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	Provider        string        `json:"provider"`
	RedisURL        string        `json:"redis_url"`
	RedisDB         int           `json:"redis_db"`
	RedisPrefix     string        `json:"redis_prefix"`
	DefaultTTL      time.Duration `json:"default_ttl"`
	RunLockTTL      time.Duration `json:"run_lock_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// HotelConfig describes the property the pipeline prices.
type HotelConfig struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	TotalRooms int    `json:"total_rooms"`
}

// ForecastingConfig holds the demand projection tunables.
type ForecastingConfig struct {
	HorizonDays        int     `json:"horizon_days"`
	MinHistoricalWeeks int     `json:"min_historical_weeks"`
	ModelVersion       string  `json:"model_version"`
	ConfidenceZ        float64 `json:"confidence_z"`
	RecencyHalfLife    int     `json:"recency_half_life"` // days
}

// PricingConfig holds the rule engine bounds and channel policy.
type PricingConfig struct {
	GlobalFloor           float64 `json:"global_floor"`
	GlobalCeiling         float64 `json:"global_ceiling"`
	CostRecoveryRate      float64 `json:"cost_recovery_rate"`
	MinPriceFactor        float64 `json:"min_price_factor"`
	MaxPriceFactor        float64 `json:"max_price_factor"`
	DirectChannelDiscount float64 `json:"direct_channel_discount"`
	SeedDefaultRules      bool    `json:"seed_default_rules"`
	WorkerCount           int     `json:"worker_count"`
}

type ExportConfig struct {
	Dir           string `json:"dir"`
	FilePrefix    string `json:"file_prefix"`
	SheetPerRoom  bool   `json:"sheet_per_room"`
	IncludeHeader bool   `json:"include_header"`
}

type SchedulerConfig struct {
	Enabled     bool          `json:"enabled"`
	Interval    time.Duration `json:"interval"`
	HorizonDays int           `json:"horizon_days"`
	LogPath     string        `json:"log_path"`
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "tarifario"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 4*1024*1024), // 4MB
			EnableMetrics:   getEnvBool("SERVER_ENABLE_METRICS", true),
			TrustedProxies:  getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:     getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnvString("JWT_SECRET_KEY", ""),
			AccessTokenTTL: getEnvDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
			Issuer:         getEnvString("JWT_ISSUER", "tarifario"),
			Audience:       getEnvString("JWT_AUDIENCE", "tarifario-api"),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Output:     getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:   getEnvString("LOG_FILE_PATH", "/var/log/tarifario/app.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Cache: CacheConfig{
			Enabled:         getEnvBool("CACHE_ENABLED", false),
			Provider:        getEnvString("CACHE_PROVIDER", "redis"),
			RedisURL:        getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:         getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix:     getEnvString("CACHE_REDIS_PREFIX", "tarifario:"),
			DefaultTTL:      getEnvDuration("CACHE_DEFAULT_TTL", 15*time.Minute),
			RunLockTTL:      getEnvDuration("CACHE_RUN_LOCK_TTL", 30*time.Minute),
			CleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Hotel: HotelConfig{
			ID:         getEnvString("HOTEL_ID", "playa-club"),
			Name:       getEnvString("HOTEL_NAME", "Hotel Playa Club"),
			Location:   getEnvString("HOTEL_LOCATION", "Cartagena, Colombia"),
			TotalRooms: getEnvInt("HOTEL_TOTAL_ROOMS", 79),
		},
		Forecasting: ForecastingConfig{
			HorizonDays:        getEnvInt("FORECAST_HORIZON_DAYS", 90),
			MinHistoricalWeeks: getEnvInt("FORECAST_MIN_HISTORICAL_WEEKS", 4),
			ModelVersion:       getEnvString("FORECAST_MODEL_VERSION", "dow-seasonal-v1"),
			ConfidenceZ:        getEnvFloat("FORECAST_CONFIDENCE_Z", 1.645),
			RecencyHalfLife:    getEnvInt("FORECAST_RECENCY_HALF_LIFE", 28),
		},
		Pricing: PricingConfig{
			GlobalFloor:           getEnvFloat("PRICING_GLOBAL_FLOOR", 0),
			GlobalCeiling:         getEnvFloat("PRICING_GLOBAL_CEILING", 0),
			CostRecoveryRate:      getEnvFloat("PRICING_COST_RECOVERY_RATE", 0),
			MinPriceFactor:        getEnvFloat("PRICING_MIN_FACTOR", 0.7),
			MaxPriceFactor:        getEnvFloat("PRICING_MAX_FACTOR", 1.3),
			DirectChannelDiscount: getEnvFloat("PRICING_DIRECT_CHANNEL_DISCOUNT", 0.05),
			SeedDefaultRules:      getEnvBool("PRICING_SEED_DEFAULT_RULES", true),
			WorkerCount:           getEnvInt("PRICING_WORKER_COUNT", 4),
		},
		Export: ExportConfig{
			Dir:           getEnvString("EXPORT_DIR", "/var/lib/tarifario/exports"),
			FilePrefix:    getEnvString("EXPORT_FILE_PREFIX", "tarifas"),
			SheetPerRoom:  getEnvBool("EXPORT_SHEET_PER_ROOM", true),
			IncludeHeader: getEnvBool("EXPORT_INCLUDE_HEADER", true),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getEnvBool("SCHEDULER_ENABLED", false),
			Interval:    getEnvDuration("SCHEDULER_INTERVAL", 24*time.Hour),
			HorizonDays: getEnvInt("SCHEDULER_HORIZON_DAYS", 90),
			LogPath:     getEnvString("SCHEDULER_LOG_PATH", "/var/log/tarifario/pipeline.log"),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	// Check if .env file exists
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	// Open .env file
	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	// Read file line by line
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value pairs
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				// Set environment variable if not already set
				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}
	if cfg.Database.Password == "" {
		errors = append(errors, "DB_PASSWORD is required")
	}

	// Validate JWT configuration
	if cfg.JWT.SecretKey == "" {
		errors = append(errors, "JWT_SECRET_KEY is required")
	}
	if len(cfg.JWT.SecretKey) < 32 {
		errors = append(errors, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		errors = append(errors, "JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.JWT.Issuer == "" {
		errors = append(errors, "JWT_ISSUER is required")
	}
	if cfg.JWT.Audience == "" {
		errors = append(errors, "JWT_AUDIENCE is required")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}

	// Validate hotel configuration
	if cfg.Hotel.ID == "" {
		errors = append(errors, "HOTEL_ID is required")
	}
	if cfg.Hotel.TotalRooms <= 0 {
		errors = append(errors, "HOTEL_TOTAL_ROOMS must be positive")
	}

	// Validate forecasting configuration
	if cfg.Forecasting.HorizonDays <= 0 {
		errors = append(errors, "FORECAST_HORIZON_DAYS must be positive")
	}
	if cfg.Forecasting.MinHistoricalWeeks <= 0 {
		errors = append(errors, "FORECAST_MIN_HISTORICAL_WEEKS must be positive")
	}
	if cfg.Forecasting.ModelVersion == "" {
		errors = append(errors, "FORECAST_MODEL_VERSION is required")
	}

	// Validate pricing configuration
	if cfg.Pricing.MinPriceFactor <= 0 || cfg.Pricing.MinPriceFactor > 1 {
		errors = append(errors, "PRICING_MIN_FACTOR must be in (0, 1]")
	}
	if cfg.Pricing.MaxPriceFactor < 1 {
		errors = append(errors, "PRICING_MAX_FACTOR must be at least 1")
	}
	if cfg.Pricing.GlobalCeiling > 0 && cfg.Pricing.GlobalFloor > cfg.Pricing.GlobalCeiling {
		errors = append(errors, "PRICING_GLOBAL_FLOOR must not exceed PRICING_GLOBAL_CEILING")
	}
	if cfg.Pricing.DirectChannelDiscount < 0 || cfg.Pricing.DirectChannelDiscount >= 1 {
		errors = append(errors, "PRICING_DIRECT_CHANNEL_DISCOUNT must be in [0, 1)")
	}
	if cfg.Pricing.WorkerCount <= 0 {
		errors = append(errors, "PRICING_WORKER_COUNT must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
