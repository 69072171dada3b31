package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the paper trader.
type Config struct {
	Port                int
	LogLevel            string
	TickInterval        time.Duration
	StartingCash        float64
	FeeRate             float64
	SlippageBps         float64
	MaxStep             int
	MaxTicksPerFrame    int
	DataFile            string
	SyntheticBars       int
	SyntheticSeed       int64
	SyntheticStartPrice float64
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	ShutdownTimeout     time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
//
// Variables may also come from a dotenv file (ENV_FILE, default ".env");
// values already present in the environment take precedence. A missing
// file is not an error.
func Load() (*Config, error) {
	if err := loadEnvFile(getStr("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	tickInterval, err := getDuration("TICK_INTERVAL", 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
	}
	if tickInterval <= 0 {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: must be positive, got %v", tickInterval)
	}

	startingCash, err := getFloat("STARTING_CASH", 10_000)
	if err != nil {
		return nil, fmt.Errorf("invalid STARTING_CASH: %w", err)
	}
	if startingCash < 0 {
		return nil, fmt.Errorf("invalid STARTING_CASH: must be >= 0, got %v", startingCash)
	}

	feeRate, err := getFloat("FEE_RATE", 0.0005)
	if err != nil {
		return nil, fmt.Errorf("invalid FEE_RATE: %w", err)
	}
	if feeRate < 0 || feeRate >= 1 {
		return nil, fmt.Errorf("invalid FEE_RATE: must be in [0, 1), got %v", feeRate)
	}

	slippageBps, err := getFloat("SLIPPAGE_BPS", 2.0)
	if err != nil {
		return nil, fmt.Errorf("invalid SLIPPAGE_BPS: %w", err)
	}
	if slippageBps < 0 {
		return nil, fmt.Errorf("invalid SLIPPAGE_BPS: must be >= 0, got %v", slippageBps)
	}

	maxStep, err := getInt("MAX_STEP", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_STEP: %w", err)
	}
	if maxStep < 1 {
		return nil, fmt.Errorf("invalid MAX_STEP: must be >= 1, got %d", maxStep)
	}

	maxTicksPerFrame, err := getInt("MAX_TICKS_PER_FRAME", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_TICKS_PER_FRAME: %w", err)
	}
	if maxTicksPerFrame < 1 {
		return nil, fmt.Errorf("invalid MAX_TICKS_PER_FRAME: must be >= 1, got %d", maxTicksPerFrame)
	}

	syntheticBars, err := getInt("SYNTHETIC_BARS", 2500)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNTHETIC_BARS: %w", err)
	}
	if syntheticBars < 50 {
		return nil, fmt.Errorf("invalid SYNTHETIC_BARS: must be >= 50, got %d", syntheticBars)
	}

	syntheticSeed, err := getInt("SYNTHETIC_SEED", 7)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNTHETIC_SEED: %w", err)
	}

	syntheticStartPrice, err := getFloat("SYNTHETIC_START_PRICE", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNTHETIC_START_PRICE: %w", err)
	}
	if syntheticStartPrice <= 0 {
		return nil, fmt.Errorf("invalid SYNTHETIC_START_PRICE: must be positive, got %v", syntheticStartPrice)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:                port,
		LogLevel:            logLevel,
		TickInterval:        tickInterval,
		StartingCash:        startingCash,
		FeeRate:             feeRate,
		SlippageBps:         slippageBps,
		MaxStep:             maxStep,
		MaxTicksPerFrame:    maxTicksPerFrame,
		DataFile:            getStr("DATA_FILE", ""),
		SyntheticBars:       syntheticBars,
		SyntheticSeed:       int64(syntheticSeed),
		SyntheticStartPrice: syntheticStartPrice,
		ReadTimeout:         readTimeout,
		WriteTimeout:        writeTimeout,
		IdleTimeout:         idleTimeout,
		ShutdownTimeout:     shutdownTimeout,
	}, nil
}

func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", v)
	}
	return f, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
