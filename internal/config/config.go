package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration for the audit event stream
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration for administrator endpoints
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// LedgerConfig holds ledger role configuration
type LedgerConfig struct {
	AdminAddresses   []string `mapstructure:"admin_addresses"`
	AuditorAddresses []string `mapstructure:"auditor_addresses"`
}

// RelaySettings holds the meta-transaction relay configuration
type RelaySettings struct {
	ChainID           uint64 `mapstructure:"chain_id"`
	VerifyingContract string `mapstructure:"verifying_contract"`
	MaxGasPerCall     uint64 `mapstructure:"max_gas_per_call"`
	GasPriceWei       string `mapstructure:"gas_price_wei"`
	RelayerBalanceWei string `mapstructure:"relayer_balance_wei"`
	PoolBalanceWei    string `mapstructure:"pool_balance_wei"`
	Workers           int    `mapstructure:"workers"`
	QueueSize         int    `mapstructure:"queue_size"`
}

// ThrottleConfig holds the per-signer relay throttle configuration.
// The throttle is disabled when RedisAddr is empty.
type ThrottleConfig struct {
	RedisAddr               string        `mapstructure:"redis_addr"`
	RedisPassword           string        `mapstructure:"redis_password"`
	RedisDB                 int           `mapstructure:"redis_db"`
	RedisKeyPrefix          string        `mapstructure:"redis_key_prefix"`
	RequestsPerSecond       int           `mapstructure:"requests_per_second"`
	Burst                   int           `mapstructure:"burst"`
	MaxQueueTime            time.Duration `mapstructure:"max_queue_time"`
	EnableLocalFallback     bool          `mapstructure:"enable_local_fallback"`
	LocalFallbackMultiplier float64       `mapstructure:"local_fallback_multiplier"`
}

// RelayConfig holds configuration for the relay service
type RelayConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Ledger     LedgerConfig   `mapstructure:"ledger"`
	Relay      RelaySettings  `mapstructure:"relay"`
	Throttle   ThrottleConfig `mapstructure:"throttle"`
}

// LoadRelayConfig loads configuration for the relay service
func LoadRelayConfig(configFile string, envPath string) (*RelayConfig, error) {
	v := configureViper("relay", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "LEDGER_EVENTS")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("relay.chain_id", 11155111)
	v.SetDefault("relay.max_gas_per_call", 500000)
	v.SetDefault("relay.gas_price_wei", "1000000000")
	v.SetDefault("relay.workers", 16)
	v.SetDefault("relay.queue_size", 256)
	v.SetDefault("throttle.redis_key_prefix", "health:relay:limiter:")
	v.SetDefault("throttle.requests_per_second", 5)
	v.SetDefault("throttle.max_queue_time", "10s")
	v.SetDefault("throttle.enable_local_fallback", true)
	v.SetDefault("throttle.local_fallback_multiplier", 0.5)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		// Config file is optional when env vars carry everything
		_ = v.ReadInConfig()
	}

	var config RelayConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// configureViper sets up a viper instance for a service
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	loadEnv(envPath, service)

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(service)
		v.SetConfigType("yaml")
		v.AddConfigPath("config/")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields when no
// config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Ledger roles
		"ledger.admin_addresses",
		"ledger.auditor_addresses",
		// Relay
		"relay.chain_id",
		"relay.verifying_contract",
		"relay.max_gas_per_call",
		"relay.gas_price_wei",
		"relay.relayer_balance_wei",
		"relay.pool_balance_wei",
		"relay.workers",
		"relay.queue_size",
		// Throttle
		"throttle.redis_addr",
		"throttle.redis_password",
		"throttle.redis_db",
		"throttle.redis_key_prefix",
		"throttle.requests_per_second",
		"throttle.burst",
		"throttle.max_queue_time",
		"throttle.enable_local_fallback",
		"throttle.local_fallback_multiplier",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
