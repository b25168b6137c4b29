package config

import (
	"fmt"
	"time"

	appredis "github.com/stratuswap/stratus-bot/pkg/redis"
)

// Config holds runtime configuration for the Stratus wallet bot.
type Config struct {
	AppEnv string

	Bot      BotConfig      `mapstructure:"bot" validate:"required"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    appredis.Config `mapstructure:"redis" validate:"required"`
	Ledger   LedgerConfig   `mapstructure:"ledger" validate:"required"`
	Oracle   OracleConfig   `mapstructure:"oracle" validate:"required"`
	Swap     SwapConfig     `mapstructure:"swap" validate:"required"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Mode    string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures the metrics/health HTTP listener.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	FilePath string `mapstructure:"file_path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode,
	)
}

// LedgerConfig identifies the ledger network and the operator account that
// pays for account creation.
type LedgerConfig struct {
	Network         string        `mapstructure:"network" validate:"oneof=mainnet testnet"`
	MirrorBaseURL   string        `mapstructure:"mirror_base_url" validate:"required,url"`
	GatewayBaseURL  string        `mapstructure:"gateway_base_url" validate:"required,url"`
	OperatorAccount string        `mapstructure:"operator_account" validate:"required"`
	OperatorKey     string        `mapstructure:"operator_key" validate:"required"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// OracleConfig points at the price API.
type OracleConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Network string        `mapstructure:"network"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SwapConfig carries the DEX contract parameters used by the sequencer.
type SwapConfig struct {
	RouterContract string `mapstructure:"router_contract" validate:"required"`
	// WrappedNative is the token ID the router uses for the native asset leg.
	WrappedNative string `mapstructure:"wrapped_native" validate:"required"`
	DefaultPool   string `mapstructure:"default_pool"`
	SwapGas       uint64 `mapstructure:"swap_gas"`
	ApproveGas    uint64 `mapstructure:"approve_gas"`
}

type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}
