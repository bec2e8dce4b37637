package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/SAP-F-2025/quizbank/internal/validator"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"oneof=development production test"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	Quiz        QuizConfig
	Events      EventConfig
}

// QuizConfig holds conversion and study defaults
type QuizConfig struct {
	MasteryThreshold int    `validate:"min=1"`
	CorrectColumn    string `validate:"required"`
	OutputSuffix     string `validate:"required"`
	BankPath         string `validate:"omitempty,table_path"`
	Sheet            string `validate:"omitempty,sheet_selector"`
}

// LoadConfig reads configuration from the environment after loading the given .env files
// (".env" when none are given). Missing .env files are ignored; variables already set in the
// environment take precedence.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	threshold, err := getEnvInt("QUIZBANK_MASTERY_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	eventsEnabled, err := getEnvBool("EVENTS_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Quiz: QuizConfig{
			MasteryThreshold: threshold,
			CorrectColumn:    getEnv("QUIZBANK_CORRECT_COLUMN", models.DefaultCorrectColumn),
			OutputSuffix:     getEnv("QUIZBANK_OUTPUT_SUFFIX", "_格式1"),
			BankPath:         getEnv("QUIZBANK_BANK_PATH", ""),
			Sheet:            getEnv("QUIZBANK_SHEET", ""),
		},
		Events: EventConfig{
			Enabled:       eventsEnabled,
			Publisher:     getEnv("EVENTS_PUBLISHER", "mock"),
			KafkaBrokers:  getEnv("KAFKA_BROKERS", "localhost:9092"),
			ProgressTopic: getEnv("PROGRESS_TOPIC", "quizbank.progress"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validator.New().Validate(c)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
