package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks configuration problems that must stop the process.
var ErrConfiguration = errors.New("configuration error")

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token  string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	APIURL string `yaml:"api_url" envconfig:"TELEGRAM_API_URL"`
	// WebhookURL is registered with Telegram by the local server when set.
	WebhookURL string `yaml:"webhook_url" envconfig:"TELEGRAM_WEBHOOK_URL"`
}

// StorageConfig names the bucket and the fixed object keys the bot reads.
type StorageConfig struct {
	Bucket          string `yaml:"bucket" envconfig:"S3_BUCKET_NAME"`
	AllowedUsersKey string `yaml:"allowed_users_key" envconfig:"ALLOWED_USERS_KEY"`
	ContactsKey     string `yaml:"contacts_key" envconfig:"CONTACTS_KEY"`
	DocumentKey     string `yaml:"document_key" envconfig:"DOCUMENT_KEY"`
	// ScratchDir receives downloaded documents; empty selects os.TempDir.
	ScratchDir string `yaml:"scratch_dir" envconfig:"SCRATCH_DIR"`
}

// LedgerConfig selects the verification ledger backend.
type LedgerConfig struct {
	Driver string `yaml:"driver" envconfig:"LEDGER_DRIVER"`
	Table  string `yaml:"table" envconfig:"VERIFIED_USERS_TABLE_NAME"`
}

// AWSConfig carries SDK settings. Static keys and Endpoint are meant for LocalStack.
type AWSConfig struct {
	Region          string `yaml:"region" envconfig:"AWS_REGION"`
	Endpoint        string `yaml:"endpoint" envconfig:"AWS_ENDPOINT_OVERRIDE"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"AWS_SECRET_ACCESS_KEY"`
}

// DatabaseConfig holds Postgres connection settings for the postgres ledger.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir holds golang-migrate files; empty selects ./migrations.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// ServerConfig specifies the local webhook listener used outside Lambda.
type ServerConfig struct {
	Listen string `yaml:"listen" envconfig:"SERVER_LISTEN"`
	Port   int    `yaml:"port" envconfig:"SERVER_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// LedgerDynamoDB stores verified chats in a DynamoDB table.
	LedgerDynamoDB = "dynamodb"
	// LedgerPostgres stores verified chats in a Postgres table.
	LedgerPostgres = "postgres"
	// LedgerMemory keeps verified chats in process memory; local runs only.
	LedgerMemory = "memory"
)

const (
	defaultAllowedUsersKey = "allowed_users.xlsx"
	defaultContactsKey     = "contacts.xlsx"
	defaultDocumentKey     = "waste_management.pdf"
	defaultLedgerTable     = "TelegramVerifiedUsers"
	defaultRegion          = "ap-south-1"
	defaultServerListen    = "0.0.0.0"
	defaultServerPort      = 8080
)

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	AWS      AWSConfig      `yaml:"aws"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
// A missing file is tolerated so Lambda deployments can rely on env only.
func Load(path string) (*Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("%w: failed to parse YAML config: %v", ErrConfiguration, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to process env: %v", ErrConfiguration, err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrConfiguration)
	}

	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Telegram.WebhookURL = strings.TrimSpace(cfg.Telegram.WebhookURL)
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("%w: telegram token is required", ErrConfiguration)
	}
	cfg.Storage.Bucket = strings.TrimSpace(cfg.Storage.Bucket)
	if cfg.Storage.Bucket == "" {
		return fmt.Errorf("%w: storage.bucket is required", ErrConfiguration)
	}

	cfg.Storage.AllowedUsersKey = withDefault(cfg.Storage.AllowedUsersKey, defaultAllowedUsersKey)
	cfg.Storage.ContactsKey = withDefault(cfg.Storage.ContactsKey, defaultContactsKey)
	cfg.Storage.DocumentKey = withDefault(cfg.Storage.DocumentKey, defaultDocumentKey)
	cfg.Storage.ScratchDir = withDefault(cfg.Storage.ScratchDir, os.TempDir())

	driver := strings.ToLower(strings.TrimSpace(cfg.Ledger.Driver))
	if driver == "" || driver == "dynamo" { // accept alias
		driver = LedgerDynamoDB
	}
	switch driver {
	case LedgerDynamoDB:
		cfg.Ledger.Table = withDefault(cfg.Ledger.Table, defaultLedgerTable)
	case LedgerPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" {
			return fmt.Errorf("%w: database.host is required when ledger.driver is 'postgres'", ErrConfiguration)
		}
		if strings.TrimSpace(cfg.Database.SSLMode) == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 5
		}
	case LedgerMemory:
	default:
		return fmt.Errorf("%w: invalid ledger.driver %q; allowed: dynamodb, postgres, memory", ErrConfiguration, cfg.Ledger.Driver)
	}
	cfg.Ledger.Driver = driver

	cfg.AWS.Region = withDefault(cfg.AWS.Region, defaultRegion)

	cfg.Server.Listen = withDefault(cfg.Server.Listen, defaultServerListen)
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.Port < 0 {
		return fmt.Errorf("%w: server.port must be > 0", ErrConfiguration)
	}
	return nil
}

func withDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
