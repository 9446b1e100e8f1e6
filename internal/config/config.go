package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string
	LogLevel string

	DataDir     string
	CustomerDir string
	SalesDir    string
	SupportDir  string
	SnapshotDir string

	SinkURL        string
	SinkSecret     string
	ExportSchedule string
	HTTPTimeout    time.Duration
	RetryAttempts  int

	PipelineConfig string
	Tuning         Tuning
}

// Tuning is the optional YAML file that adjusts the aggregation heuristics.
type Tuning struct {
	TopicShareThreshold float64                        `yaml:"topic_share_threshold"`
	NPSRange            []float64                      `yaml:"nps_range"`
	ChurnRange          []float64                      `yaml:"churn_range"`
	SyntheticMonths     int                            `yaml:"synthetic_months"`
	Aliases             map[string]map[string][]string `yaml:"aliases"`
}

func DefaultTuning() Tuning {
	return Tuning{
		TopicShareThreshold: 0.05,
		NPSRange:            []float64{7, 9},
		ChurnRange:          []float64{1, 4},
		SyntheticMonths:     3,
		Aliases:             map[string]map[string][]string{},
	}
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "30s"))
	if err != nil {
		logrus.WithError(err).Warn("Invalid HTTP_TIMEOUT, using 30s")
		timeout = 30 * time.Second
	}
	retryAttempts, err := strconv.Atoi(getEnv("RETRY_ATTEMPTS", "3"))
	if err != nil || retryAttempts < 1 {
		logrus.WithField("value", os.Getenv("RETRY_ATTEMPTS")).Warn("Invalid RETRY_ATTEMPTS, using 3")
		retryAttempts = 3
	}

	dataDir := getEnv("DATA_DIR", "data")
	salesDir := getEnv("SALES_DIR", filepath.Join(dataDir, "sales"))

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DataDir:        dataDir,
		CustomerDir:    getEnv("CUSTOMER_DIR", filepath.Join(dataDir, "customer")),
		SalesDir:       salesDir,
		SupportDir:     getEnv("SUPPORT_DIR", filepath.Join(dataDir, "support")),
		SnapshotDir:    getEnv("SNAPSHOT_DIR", salesDir),
		SinkURL:        getEnv("SINK_URL", ""),
		SinkSecret:     getEnv("SINK_SECRET", ""),
		ExportSchedule: getEnv("EXPORT_SCHEDULE", ""),
		HTTPTimeout:    timeout,
		RetryAttempts:  retryAttempts,
		PipelineConfig: getEnv("PIPELINE_CONFIG", ""),
		Tuning:         DefaultTuning(),
	}

	if cfg.PipelineConfig != "" {
		tuning, err := LoadTuning(cfg.PipelineConfig)
		if err != nil {
			logrus.WithError(err).WithField("path", cfg.PipelineConfig).Warn("Pipeline config not loaded, using defaults")
		} else {
			cfg.Tuning = tuning
		}
	}

	return cfg
}

// LoadTuning reads a YAML tuning file over the defaults. Out-of-range values
// are replaced by their defaults with a warning.
func LoadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read pipeline config: %w", err)
	}

	tuning := DefaultTuning()
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("parse pipeline config: %w", err)
	}

	defaults := DefaultTuning()
	if tuning.TopicShareThreshold < 0 || tuning.TopicShareThreshold >= 1 {
		logrus.WithField("topic_share_threshold", tuning.TopicShareThreshold).Warn("Invalid topic share threshold, using default")
		tuning.TopicShareThreshold = defaults.TopicShareThreshold
	}
	if !validRange(tuning.NPSRange) {
		logrus.WithField("nps_range", tuning.NPSRange).Warn("Invalid NPS range, using default")
		tuning.NPSRange = defaults.NPSRange
	}
	if !validRange(tuning.ChurnRange) {
		logrus.WithField("churn_range", tuning.ChurnRange).Warn("Invalid churn range, using default")
		tuning.ChurnRange = defaults.ChurnRange
	}
	if tuning.SyntheticMonths <= 0 {
		logrus.WithField("synthetic_months", tuning.SyntheticMonths).Warn("Invalid synthetic month count, using default")
		tuning.SyntheticMonths = defaults.SyntheticMonths
	}
	if tuning.Aliases == nil {
		tuning.Aliases = defaults.Aliases
	}

	return tuning, nil
}

func validRange(r []float64) bool {
	return len(r) == 2 && r[0] < r[1]
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
