package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Cursor backends.
const (
	CursorMemory = "memory"
	CursorStore  = "store"
	CursorFile   = "file"
)

// ChainConfig holds RPC settings shared by every command.
type ChainConfig struct {
	RPCURL    string
	ChainID   uint64
	Timeout   time.Duration
	RateLimit float64
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend    string
	PGDSN      string
	SQLitePath string
}

type RetryConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

// Config holds configuration for the run command.
type Config struct {
	Chain              ChainConfig
	Store              StoreConfig
	Retry              RetryConfig
	Factory            string
	PollInterval       time.Duration
	StartupLookback    uint64
	SyncWindow         uint64
	MaxBlockRange      uint64
	HandlerConcurrency int
	Cursor             string
	Checkpoint         string
	HTTPAddr           string
	LogLevel           string
}

// SyncConfig holds configuration for a one-shot contract resync.
type SyncConfig struct {
	Chain         ChainConfig
	Store         StoreConfig
	Retry         RetryConfig
	SyncWindow    uint64
	MaxBlockRange uint64
	Address       string
	Kind          string
	LogLevel      string
}

// MigrateConfig holds configuration for schema migration.
type MigrateConfig struct {
	PGDSN    string
	LogLevel string
}

var dotenvOnce sync.Once

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Chain:              chainConfig(v),
		Store:              storeConfig(v),
		Retry:              retryConfig(v),
		Factory:            strings.TrimSpace(v.GetString("factory")),
		PollInterval:       v.GetDuration("poll-interval"),
		StartupLookback:    v.GetUint64("startup-lookback"),
		SyncWindow:         v.GetUint64("sync-window"),
		MaxBlockRange:      v.GetUint64("max-block-range"),
		HandlerConcurrency: v.GetInt("handler-concurrency"),
		Cursor:             strings.ToLower(v.GetString("cursor")),
		Checkpoint:         v.GetString("checkpoint"),
		HTTPAddr:           v.GetString("http-addr"),
		LogLevel:           v.GetString("log-level"),
	}
	return cfg, nil
}

// LoadSync merges config file, environment variables, and flags into SyncConfig.
func LoadSync(cfgFile string, flags *pflag.FlagSet) (SyncConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SyncConfig{}, err
	}

	cfg := SyncConfig{
		Chain:         chainConfig(v),
		Store:         storeConfig(v),
		Retry:         retryConfig(v),
		SyncWindow:    v.GetUint64("sync-window"),
		MaxBlockRange: v.GetUint64("max-block-range"),
		Address:       strings.TrimSpace(v.GetString("address")),
		Kind:          v.GetString("kind"),
		LogLevel:      v.GetString("log-level"),
	}
	return cfg, nil
}

// LoadMigrate merges config file, environment variables, and flags into MigrateConfig.
func LoadMigrate(cfgFile string, flags *pflag.FlagSet) (MigrateConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return MigrateConfig{}, err
	}
	return MigrateConfig{
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// Validate reports the first invalid run setting.
func (c Config) Validate() error {
	if err := c.Chain.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if !common.IsHexAddress(c.Factory) {
		return fmt.Errorf("invalid factory address: %q", c.Factory)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.SyncWindow == 0 {
		return fmt.Errorf("sync window must be greater than zero")
	}
	if c.MaxBlockRange == 0 {
		return fmt.Errorf("max block range must be greater than zero")
	}
	if c.HandlerConcurrency <= 0 {
		return fmt.Errorf("handler concurrency must be greater than zero")
	}
	switch c.Cursor {
	case CursorMemory, CursorStore:
	case CursorFile:
		if c.Checkpoint == "" {
			return fmt.Errorf("checkpoint path is required for the file cursor")
		}
	default:
		return fmt.Errorf("unknown cursor backend: %q", c.Cursor)
	}
	return nil
}

// Validate reports the first invalid sync setting.
func (c SyncConfig) Validate() error {
	if err := c.Chain.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if !common.IsHexAddress(c.Address) {
		return fmt.Errorf("invalid contract address: %q", c.Address)
	}
	if c.Kind == "" {
		return fmt.Errorf("contract kind is required")
	}
	if c.SyncWindow == 0 {
		return fmt.Errorf("sync window must be greater than zero")
	}
	if c.MaxBlockRange == 0 {
		return fmt.Errorf("max block range must be greater than zero")
	}
	return nil
}

func (c ChainConfig) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rpc rate limit must not be negative")
	}
	return nil
}

func (c StoreConfig) validate() error {
	switch c.Backend {
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store backend: %q", c.Backend)
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	var envErr error
	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			envErr = fmt.Errorf("load .env: %w", err)
		}
	})
	if envErr != nil {
		return nil, envErr
	}

	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", uint64(0))
	v.SetDefault("poll-interval", 10*time.Second)
	v.SetDefault("startup-lookback", uint64(2))
	v.SetDefault("sync-window", uint64(10000))
	v.SetDefault("max-block-range", uint64(10000))
	v.SetDefault("max-retries", 2)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("rpc-timeout", 30*time.Second)
	v.SetDefault("rpc-rate-limit", 0.0)
	v.SetDefault("handler-concurrency", 8)
	v.SetDefault("store", StorePostgres)
	v.SetDefault("sqlite-path", "./data/indexer.db")
	v.SetDefault("cursor", CursorMemory)
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("http-addr", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func chainConfig(v *viper.Viper) ChainConfig {
	return ChainConfig{
		RPCURL:    strings.TrimSpace(v.GetString("rpc")),
		ChainID:   v.GetUint64("chain-id"),
		Timeout:   v.GetDuration("rpc-timeout"),
		RateLimit: v.GetFloat64("rpc-rate-limit"),
	}
}

func storeConfig(v *viper.Viper) StoreConfig {
	return StoreConfig{
		Backend:    strings.ToLower(v.GetString("store")),
		PGDSN:      v.GetString("pg-dsn"),
		SQLitePath: v.GetString("sqlite-path"),
	}
}

func retryConfig(v *viper.Viper) RetryConfig {
	return RetryConfig{
		MaxRetries: v.GetInt("max-retries"),
		Backoff:    v.GetDuration("retry-backoff"),
	}
}
