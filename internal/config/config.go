package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Discord        DiscordConfig        `yaml:"discord"`
	Auction        AuctionConfig        `yaml:"auction"`
	Assets         AssetsConfig         `yaml:"assets"`
	Database       DatabaseConfig       `yaml:"database"`
	Server         ServerConfig         `yaml:"server"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election"`
}

// DiscordConfig holds Discord bot settings.
type DiscordConfig struct {
	Token   string `yaml:"token"`
	GuildID string `yaml:"guild_id"`
	// HostRoleID is the Discord role allowed to run auction control
	// commands. Empty means any member may host.
	HostRoleID string `yaml:"host_role_id"`
	// AnnounceChannelID receives sale and unsold announcements. Empty
	// disables announcements.
	AnnounceChannelID string `yaml:"announce_channel_id"`
}

// AuctionConfig holds the session parameters for an auction.
type AuctionConfig struct {
	BidMode       string `yaml:"bid_mode"` // "rotation" or "direct"
	BasePrice     int    `yaml:"base_price"`
	Increment     int    `yaml:"increment"`
	DefaultBudget int    `yaml:"default_budget"`
	MaxTeamSize   int    `yaml:"max_team_size"`
	// UnsoldAdvanceDelay is the display pause before the next player is
	// pulled automatically after an unsold outcome. Zero disables it.
	UnsoldAdvanceDelay time.Duration `yaml:"unsold_advance_delay"`
	// Seed fixes the random source for rotation order and player
	// selection. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// AssetsConfig holds player image settings.
type AssetsConfig struct {
	// Dir is the directory searched for player images by name. Empty
	// disables image serving.
	Dir string `yaml:"dir"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Driver   string `yaml:"driver"` // "sqlx" or "ent"
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ServerConfig holds HTTP server settings for the auction board.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// ChatHistory is the number of chat lines replayed to a connecting
	// viewer.
	ChatHistory int `yaml:"chat_history"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
}

// LeaderElectionConfig holds Kubernetes leader election settings.
type LeaderElectionConfig struct {
	Enabled        bool          `yaml:"enabled"`
	LeaseName      string        `yaml:"lease_name"`
	LeaseNamespace string        `yaml:"lease_namespace"`
	LeaseDuration  time.Duration `yaml:"lease_duration"`
	RenewDeadline  time.Duration `yaml:"renew_deadline"`
	RetryPeriod    time.Duration `yaml:"retry_period"`
}

// Load reads a YAML configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{
		Auction: AuctionConfig{
			BidMode:            "rotation",
			BasePrice:          500,
			Increment:          50,
			DefaultBudget:      10000,
			MaxTeamSize:        11,
			UnsoldAdvanceDelay: 1500 * time.Millisecond,
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
			ChatHistory:     50,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Driver:  "sqlx",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "auctionbot",
			ServiceVersion: "0.1.0",
		},
		LeaderElection: LeaderElectionConfig{
			Enabled:        false,
			LeaseName:      "auctionbot-leader",
			LeaseNamespace: "default",
			LeaseDuration:  15 * time.Second,
			RenewDeadline:  10 * time.Second,
			RetryPeriod:    2 * time.Second,
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlx", "ent":
		// valid
	default:
		return fmt.Errorf("unsupported database driver %q: must be \"sqlx\" or \"ent\"", c.Database.Driver)
	}
	switch c.Auction.BidMode {
	case "rotation", "direct":
		// valid
	default:
		return fmt.Errorf("unsupported bid mode %q: must be \"rotation\" or \"direct\"", c.Auction.BidMode)
	}
	if c.Auction.BasePrice <= 0 {
		return fmt.Errorf("base price must be positive, got %d", c.Auction.BasePrice)
	}
	if c.Auction.Increment <= 0 {
		return fmt.Errorf("increment must be positive, got %d", c.Auction.Increment)
	}
	if c.Auction.DefaultBudget < c.Auction.BasePrice {
		return fmt.Errorf("default budget %d cannot be below the base price %d",
			c.Auction.DefaultBudget, c.Auction.BasePrice)
	}
	if c.Auction.MaxTeamSize <= 0 {
		return fmt.Errorf("max team size must be positive, got %d", c.Auction.MaxTeamSize)
	}
	return nil
}
