// Package config loads the service configuration from a YAML file with an
// optional .env overlay. Environment variables override the file for
// secrets and deployment-specific values.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Market  MarketConfig  `yaml:"market"`
	LLM     LLMConfig     `yaml:"llm"`
	Social  SocialConfig  `yaml:"social"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Jobs    JobsConfig    `yaml:"jobs"`
}

// ServerConfig controls the daemon surface.
type ServerConfig struct {
	MetricsAddr string `yaml:"metrics_addr"` // Prometheus HTTP address
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory | postgres
	DSN    string `yaml:"dsn"`    // pgx connection string when driver=postgres
}

// MarketConfig configures the on-chain market providers.
type MarketConfig struct {
	RPCEndpoint   string `yaml:"rpc_endpoint"`    // Solana RPC HTTP endpoint
	KaminoBaseURL string `yaml:"kamino_base_url"` // Kamino API base URL
	KaminoMarket  string `yaml:"kamino_market"`   // lending market address
}

// LLMConfig configures text generation. The API key is taken from the
// environment only, never from the file.
type LLMConfig struct {
	APIKey    string `yaml:"-"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// SocialConfig configures the analysis poster. An empty webhook URL
// disables posting.
type SocialConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	ShouldPost bool   `yaml:"should_post"`
}

// WalletConfig configures position tracking.
type WalletConfig struct {
	// HomeAddress is the operator wallet whose positions are persisted.
	// Registered wallets are refreshed and reported but never stored.
	HomeAddress string `yaml:"home_address"`
}

// JobsConfig holds the scheduled job intervals.
type JobsConfig struct {
	SnapshotsIntervalMinutes int `yaml:"snapshots_interval_minutes"`
	RulesIntervalMinutes     int `yaml:"rules_interval_minutes"`
	DynamicsIntervalMinutes  int `yaml:"dynamics_interval_minutes"`
	PositionsIntervalMinutes int `yaml:"positions_interval_minutes"`
}

// Load reads the YAML file at path, overlays .env if present, applies
// environment overrides and finally fills in defaults. A missing file is
// not an error: the service can run entirely from env and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %q: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// SnapshotsInterval returns the snapshot sampling interval.
func (c *Config) SnapshotsInterval() time.Duration {
	return time.Duration(c.Jobs.SnapshotsIntervalMinutes) * time.Minute
}

// RulesInterval returns the rule generation interval.
func (c *Config) RulesInterval() time.Duration {
	return time.Duration(c.Jobs.RulesIntervalMinutes) * time.Minute
}

// DynamicsInterval returns the dynamics analysis interval.
func (c *Config) DynamicsInterval() time.Duration {
	return time.Duration(c.Jobs.DynamicsIntervalMinutes) * time.Minute
}

// PositionsInterval returns the position refresh interval.
func (c *Config) PositionsInterval() time.Duration {
	return time.Duration(c.Jobs.PositionsIntervalMinutes) * time.Minute
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Server.MetricsAddr = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("SOLANA_RPC_ENDPOINT"); v != "" {
		cfg.Market.RPCEndpoint = v
	}
	if v := os.Getenv("KAMINO_BASE_URL"); v != "" {
		cfg.Market.KaminoBaseURL = v
	}
	if v := os.Getenv("KAMINO_MARKET"); v != "" {
		cfg.Market.KaminoMarket = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SOCIAL_WEBHOOK_URL"); v != "" {
		cfg.Social.WebhookURL = v
	}
	if v := os.Getenv("HOME_WALLET_ADDRESS"); v != "" {
		cfg.Wallet.HomeAddress = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":9090"
	}
	if cfg.Storage.Driver == "" {
		if cfg.Storage.DSN != "" {
			cfg.Storage.Driver = "postgres"
		} else {
			cfg.Storage.Driver = "memory"
		}
	}
	if cfg.Jobs.SnapshotsIntervalMinutes <= 0 {
		cfg.Jobs.SnapshotsIntervalMinutes = 20
	}
	if cfg.Jobs.RulesIntervalMinutes <= 0 {
		cfg.Jobs.RulesIntervalMinutes = 120
	}
	if cfg.Jobs.DynamicsIntervalMinutes <= 0 {
		cfg.Jobs.DynamicsIntervalMinutes = 30
	}
	if cfg.Jobs.PositionsIntervalMinutes <= 0 {
		cfg.Jobs.PositionsIntervalMinutes = 30
	}
}

// Validate checks the combinations the daemon cannot start without.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage driver is postgres but dsn is empty")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
