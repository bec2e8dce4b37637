package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/SAP-F-2025/quizbank/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "ENVIRONMENT", "LOG_LEVEL",
	"QUIZBANK_MASTERY_THRESHOLD", "QUIZBANK_CORRECT_COLUMN", "QUIZBANK_OUTPUT_SUFFIX",
	"QUIZBANK_BANK_PATH", "QUIZBANK_SHEET",
	"EVENTS_ENABLED", "EVENTS_PUBLISHER", "KAFKA_BROKERS", "PROGRESS_TOPIC",
}

// clearEnv unsets every config key for the duration of the test. t.Setenv registers the
// restore; godotenv skips keys that are present even when empty, so they must be unset.
func clearEnv(t *testing.T) {
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Quiz.MasteryThreshold)
	assert.Equal(t, "正确次数", cfg.Quiz.CorrectColumn)
	assert.Equal(t, "_格式1", cfg.Quiz.OutputSuffix)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, "mock", cfg.Events.Publisher)
	assert.Equal(t, "quizbank.progress", cfg.Events.ProgressTopic)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"QUIZBANK_MASTERY_THRESHOLD=3\nQUIZBANK_BANK_PATH=/data/bank.xlsx\nEVENTS_ENABLED=true\nEVENTS_PUBLISHER=gochannel\n",
	), 0o644))
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.Quiz.MasteryThreshold)
	assert.Equal(t, "/data/bank.xlsx", cfg.Quiz.BankPath)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "gochannel", cfg.Events.Publisher)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"QUIZBANK_MASTERY_THRESHOLD": "0",
		"LOG_LEVEL":                  "verbose",
		"EVENTS_PUBLISHER":           "rabbit",
		"QUIZBANK_BANK_PATH":         "bank.txt",
		"EVENTS_ENABLED":             "maybe",
		"PORT":                       "http",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestCreateEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	disabled := &EventConfig{Enabled: false, Publisher: "kafka"}
	pub, err := disabled.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, pub)

	channel := &EventConfig{Enabled: true, Publisher: "gochannel", ProgressTopic: "t"}
	pub, err = channel.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.ChannelEventPublisher{}, pub)
	require.NoError(t, pub.Close())
}

func TestGetKafkaBrokers(t *testing.T) {
	c := &EventConfig{KafkaBrokers: "a:9092, b:9092,,"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.GetKafkaBrokers())
}
