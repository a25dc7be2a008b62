// Package cfg loads runtime settings from a YAML file selected by
// CONFIG_FILE, with environment-variable overrides, falling back to
// environment variables alone.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	// Paths
	DataPath    string // bbolt snapshot directory
	RegistryCSV string // registry export file
	PairsPath   string // labeled pair dataset
	ModelPath   string // model artifact

	// Registry API
	RegistryBaseURL   string
	RegistryCondition string
	PageSize          int
	FetchLimit        int
	RESTTimeout       time.Duration

	// Training
	MaxFeatures  int
	MaxIter      int
	LearningRate float64
	L2Penalty    float64
	TestFraction float64
	Seed         int64

	// Server
	ListenPort int
}

type ConfigFile struct {
	Registry struct {
		BaseURL     string `yaml:"baseURL"`
		Condition   string `yaml:"condition"`
		PageSize    int    `yaml:"pageSize"`
		FetchLimit  int    `yaml:"fetchLimit"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"registry"`

	Data struct {
		DataPath    string `yaml:"dataPath"`
		RegistryCSV string `yaml:"registryCSV"`
		PairsPath   string `yaml:"pairsPath"`
	} `yaml:"data"`

	Model struct {
		ModelPath    string  `yaml:"modelPath"`
		MaxFeatures  int     `yaml:"maxFeatures"`
		MaxIter      int     `yaml:"maxIter"`
		LearningRate float64 `yaml:"learningRate"`
		L2Penalty    float64 `yaml:"l2Penalty"`
		TestFraction float64 `yaml:"testFraction"`
		Seed         int64   `yaml:"seed"`
	} `yaml:"model"`

	Server struct {
		ListenPort int `yaml:"listenPort"`
	} `yaml:"server"`
}

func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	restTimeout, err := time.ParseDuration(config.Registry.RESTTimeout)
	if err != nil {
		restTimeout = 30 * time.Second
	}

	settings := Settings{
		DataPath:          getEnvOrDefault("DATA_PATH", defaultString(config.Data.DataPath, "data")),
		RegistryCSV:       getEnvOrDefault("REGISTRY_CSV", defaultString(config.Data.RegistryCSV, "data/clin_trials.csv")),
		PairsPath:         getEnvOrDefault("PAIRS_PATH", defaultString(config.Data.PairsPath, "data/phase2_phase3_pairs.csv")),
		ModelPath:         getEnvOrDefault("MODEL_PATH", defaultString(config.Model.ModelPath, "model.bin")),
		RegistryBaseURL:   getEnvOrDefault("REGISTRY_BASE_URL", defaultString(config.Registry.BaseURL, "https://clinicaltrials.gov/api/v2")),
		RegistryCondition: getEnvOrDefault("REGISTRY_CONDITION", defaultString(config.Registry.Condition, "cancer")),
		PageSize:          getIntFromEnvOrConfig("REGISTRY_PAGE_SIZE", config.Registry.PageSize, 1000),
		FetchLimit:        getIntFromEnvOrConfig("REGISTRY_FETCH_LIMIT", config.Registry.FetchLimit, 0),
		RESTTimeout:       restTimeout,
		MaxFeatures:       getIntFromEnvOrConfig("MAX_FEATURES", config.Model.MaxFeatures, 5000),
		MaxIter:           getIntFromEnvOrConfig("MAX_ITER", config.Model.MaxIter, 500),
		LearningRate:      getFloatFromEnvOrConfig("LEARNING_RATE", config.Model.LearningRate, 0.5),
		L2Penalty:         getFloatFromEnvOrConfig("L2_PENALTY", config.Model.L2Penalty, 1.0),
		TestFraction:      getFloatFromEnvOrConfig("TEST_FRACTION", config.Model.TestFraction, 0.2),
		Seed:              int64(getIntFromEnvOrConfig("SPLIT_SEED", int(config.Model.Seed), 42)),
		ListenPort:        getIntFromEnvOrConfig("LISTEN_PORT", config.Server.ListenPort, 8080),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DataPath:          getEnvOrDefault("DATA_PATH", "data"),
		RegistryCSV:       getEnvOrDefault("REGISTRY_CSV", "data/clin_trials.csv"),
		PairsPath:         getEnvOrDefault("PAIRS_PATH", "data/phase2_phase3_pairs.csv"),
		ModelPath:         getEnvOrDefault("MODEL_PATH", "model.bin"),
		RegistryBaseURL:   getEnvOrDefault("REGISTRY_BASE_URL", "https://clinicaltrials.gov/api/v2"),
		RegistryCondition: getEnvOrDefault("REGISTRY_CONDITION", "cancer"),
		PageSize:          getIntOrDefault("REGISTRY_PAGE_SIZE", 1000),
		FetchLimit:        getIntOrDefault("REGISTRY_FETCH_LIMIT", 0),
		RESTTimeout:       getDurationOrDefault("REST_TIMEOUT", 30*time.Second),
		MaxFeatures:       getIntOrDefault("MAX_FEATURES", 5000),
		MaxIter:           getIntOrDefault("MAX_ITER", 500),
		LearningRate:      getFloatOrDefault("LEARNING_RATE", 0.5),
		L2Penalty:         getFloatOrDefault("L2_PENALTY", 1.0),
		TestFraction:      getFloatOrDefault("TEST_FRACTION", 0.2),
		Seed:              int64(getIntOrDefault("SPLIT_SEED", 42)),
		ListenPort:        getIntOrDefault("LISTEN_PORT", 8080),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func defaultString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs range validation of configuration values.
func validateSettings(settings *Settings) error {
	if settings.DataPath == "" {
		return fmt.Errorf("data path cannot be empty")
	}
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if settings.PairsPath == "" {
		return fmt.Errorf("pairs path cannot be empty")
	}
	if settings.RegistryBaseURL == "" {
		return fmt.Errorf("registry base URL cannot be empty")
	}

	if settings.RESTTimeout < time.Second || settings.RESTTimeout > 5*time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 5m, got %v", settings.RESTTimeout)
	}
	if settings.PageSize <= 0 || settings.PageSize > 1000 {
		return fmt.Errorf("registry page size must be between 1 and 1000, got %d", settings.PageSize)
	}
	if settings.FetchLimit < 0 {
		return fmt.Errorf("registry fetch limit must not be negative, got %d", settings.FetchLimit)
	}

	if settings.MaxFeatures <= 0 || settings.MaxFeatures > 100000 {
		return fmt.Errorf("max features must be between 1 and 100000, got %d", settings.MaxFeatures)
	}
	if settings.MaxIter <= 0 || settings.MaxIter > 100000 {
		return fmt.Errorf("max iterations must be between 1 and 100000, got %d", settings.MaxIter)
	}
	if settings.LearningRate <= 0 || settings.LearningRate > 10 {
		return fmt.Errorf("learning rate must be between 0 and 10, got %f", settings.LearningRate)
	}
	if settings.L2Penalty < 0 {
		return fmt.Errorf("L2 penalty must not be negative, got %f", settings.L2Penalty)
	}
	if settings.TestFraction < 0 || settings.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in [0, 1), got %f", settings.TestFraction)
	}

	if settings.ListenPort < 1024 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", settings.ListenPort)
	}

	return nil
}
