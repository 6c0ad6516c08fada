package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Storage:  StorageConfig{Bucket: "residents"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, "allowed_users.xlsx", cfg.Storage.AllowedUsersKey)
	assert.Equal(t, "contacts.xlsx", cfg.Storage.ContactsKey)
	assert.Equal(t, "waste_management.pdf", cfg.Storage.DocumentKey)
	assert.Equal(t, os.TempDir(), cfg.Storage.ScratchDir)
	assert.Equal(t, LedgerDynamoDB, cfg.Ledger.Driver)
	assert.Equal(t, "TelegramVerifiedUsers", cfg.Ledger.Table)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestNormalizeRequiresTokenAndBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = "  "
	assert.ErrorIs(t, Normalize(cfg), ErrConfiguration)

	cfg = validConfig()
	cfg.Storage.Bucket = ""
	assert.ErrorIs(t, Normalize(cfg), ErrConfiguration)

	assert.ErrorIs(t, Normalize(nil), ErrConfiguration)
}

func TestNormalizeLedgerDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Ledger.Driver = "Dynamo"
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, LedgerDynamoDB, cfg.Ledger.Driver)

	cfg = validConfig()
	cfg.Ledger.Driver = "postgres"
	assert.ErrorIs(t, Normalize(cfg), ErrConfiguration, "postgres without host")

	cfg.Database.Host = "db"
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	cfg = validConfig()
	cfg.Ledger.Driver = " MEMORY "
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, LedgerMemory, cfg.Ledger.Driver)

	cfg = validConfig()
	cfg.Ledger.Driver = "redis"
	assert.ErrorIs(t, Normalize(cfg), ErrConfiguration)
}

func TestLoadMergesYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := []byte("telegram:\n  token: from-file\nstorage:\n  bucket: file-bucket\n  contacts_key: people.xlsx\n")
	require.NoError(t, os.WriteFile(path, yml, 0o600))

	t.Setenv("S3_BUCKET_NAME", "env-bucket")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Telegram.Token)
	assert.Equal(t, "env-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "people.xlsx", cfg.Storage.ContactsKey)
}

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("S3_BUCKET_NAME", "env-bucket")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram: [unterminated"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}
