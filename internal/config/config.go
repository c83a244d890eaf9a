package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath       string
	LogDir         string
	OutputDir      string
	CheckpointDir  string
	Simulations    int
	Workers        int
	Seed           uint64
	ICERThreshold  float64
	TargetCostYear int
	ParamsFile     string

	// UseDefaultTimes ignores recorded hospital delays in favour of the
	// national distributions.
	UseDefaultTimes bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	cfg := &AppConfig{
		DataPath:       dataPath,
		LogDir:         getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs")),
		OutputDir:      getEnv("OUTPUT_DIR", filepath.Join(dataPath, "output")),
		CheckpointDir:  getEnv("CHECKPOINT_DIR", filepath.Join(dataPath, "checkpoints")),
		Simulations:    getEnvInt("SIMULATIONS", 1000),
		Workers:        getEnvInt("WORKERS", runtime.GOMAXPROCS(0)),
		Seed:           uint64(getEnvInt("SEED", 0)),
		ICERThreshold:  getEnvFloat("ICER_THRESHOLD", 100000),
		TargetCostYear: getEnvInt("TARGET_COST_YEAR", 2016),
		ParamsFile:     getEnv("PARAMS_FILE", ""),

		UseDefaultTimes: getEnvBool("USE_DEFAULT_TIMES", false),
	}

	// Ensure directories exist
	for _, dir := range []string{cfg.OutputDir, cfg.CheckpointDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create directory")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer setting")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return fallback
}
