package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("RETRAIN_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.True(t, cfg.GuardrailsEnabled)
	assert.Equal(t, 50, cfg.GuardrailMinLinkedOutcomes)
	assert.Equal(t, 0.01, cfg.GuardrailMinF1Margin)
	assert.Equal(t, 12, cfg.TrainEpochs)
	assert.Equal(t, 0.12, cfg.LabelIRRThreshold)
	assert.Equal(t, 5*time.Minute, cfg.RetrainTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("GUARDRAILS_ENABLED", "false")
	t.Setenv("TRAIN_EPOCHS", "30")
	t.Setenv("RETRAIN_SCHEDULE", "@hourly")
	t.Setenv("RETRAIN_TENANTS", " acme, ,beta ")
	t.Setenv("TRAIN_L2", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.False(t, cfg.GuardrailsEnabled)
	assert.Equal(t, 30, cfg.TrainEpochs)
	assert.Equal(t, []string{"acme", "beta"}, cfg.RetrainTenants)
	assert.Equal(t, 0.001, cfg.TrainL2, "invalid values fall back to defaults")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{StorageBackend: BackendMemory, TrainValFraction: 0.2, TrainLearningRate: 0.05}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.StorageBackend = BackendPostgres
	assert.ErrorContains(t, c.Validate(), "POSTGRES_DSN")

	c = base()
	c.StorageBackend = "mongo"
	assert.Error(t, c.Validate())

	c = base()
	c.TrainValFraction = 1
	assert.Error(t, c.Validate())

	c = base()
	c.RetrainSchedule = "@daily"
	assert.ErrorContains(t, c.Validate(), "RETRAIN_TENANTS")
}

func TestLoad_APIKeys(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("RETRAIN_SCHEDULE", "")
	t.Setenv("API_KEYS", "k1:alice:Admin, k2:bob:member")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []APIKey{
		{Key: "k1", ActorID: "alice", Role: "admin"},
		{Key: "k2", ActorID: "bob", Role: "member"},
	}, cfg.APIKeys)
}

func TestParseAPIKeys_Invalid(t *testing.T) {
	tests := [][]string{
		{"k1:alice"},
		{"k1::admin"},
		{"k1:alice:admin", "k1:bob:member"},
	}
	for _, entries := range tests {
		_, err := parseAPIKeys(entries)
		assert.Error(t, err, entries)
	}
}
