// Package config loads service configuration from the environment and an
// optional .env file using Viper. Environment variables override .env.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	platformstrings "verimint/pkg/platform/strings"
)

// Feed drivers select the push channel used by the verification reconciler.
const (
	FeedMemory   = "memory"
	FeedPostgres = "postgres"
	FeedRedis    = "redis"
	FeedKafka    = "kafka"
)

// Config is the full service configuration.
type Config struct {
	Server       Server
	Database     DatabaseConfig
	Redis        RedisConfig
	Feed         FeedConfig
	Verification VerificationConfig
	Mint         MintConfig
	Algod        AlgodConfig
	Wallet       WalletConfig
	RateLimit    RateLimitConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	JWTSigningKey string
	// DevMode enables the KYC bypass and skip-minting overrides.
	DevMode bool
}

type DatabaseConfig struct {
	URL            string
	MigrateOnStart bool
}

// RedisConfig is consumed by internal/platform/redis. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type FeedConfig struct {
	Driver         string
	PostgresChan   string
	RedisPrefix    string
	KafkaBrokers   []string
	KafkaTopic     string
	SubscriberBuff int
}

type VerificationConfig struct {
	PollInterval time.Duration
	Deadline     time.Duration
}

type MintConfig struct {
	UnitName        string
	AssetNamePrefix string
	MetadataURL     string
	MaxWaitRounds   uint64
	ConfirmTimeout  time.Duration
}

type AlgodConfig struct {
	Address string
	Token   string
}

type WalletConfig struct {
	Mnemonic    string
	AutoApprove bool
}

// RateLimitConfig throttles the per-user routes that prompt the wallet or
// start a verification session.
type RateLimitConfig struct {
	Disabled     bool
	PromptLimit  int
	PromptWindow time.Duration
	StartLimit   int
	StartWindow  time.Duration
}

// Load reads .env (if present), then builds and validates Config from the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: Server{
			Addr:          v.GetString("ADDR"),
			LogLevel:      v.GetString("LOG_LEVEL"),
			JWTSigningKey: v.GetString("JWT_SIGNING_KEY"),
			DevMode:       v.GetBool("DEV_MODE"),
		},
		Database: DatabaseConfig{
			URL:            v.GetString("DATABASE_URL"),
			MigrateOnStart: v.GetBool("MIGRATE_ON_START"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		Feed: FeedConfig{
			Driver:         strings.ToLower(v.GetString("FEED_DRIVER")),
			PostgresChan:   v.GetString("FEED_POSTGRES_CHANNEL"),
			RedisPrefix:    v.GetString("FEED_REDIS_PREFIX"),
			KafkaBrokers:   platformstrings.SplitList(v.GetString("KAFKA_BROKERS"), ","),
			KafkaTopic:     v.GetString("KAFKA_TOPIC"),
			SubscriberBuff: v.GetInt("FEED_SUBSCRIBER_BUFFER"),
		},
		Verification: VerificationConfig{
			PollInterval: v.GetDuration("POLL_INTERVAL"),
			Deadline:     v.GetDuration("VERIFICATION_DEADLINE"),
		},
		Mint: MintConfig{
			UnitName:        v.GetString("ASSET_UNIT_NAME"),
			AssetNamePrefix: v.GetString("ASSET_NAME_PREFIX"),
			MetadataURL:     v.GetString("ASSET_METADATA_URL"),
			MaxWaitRounds:   v.GetUint64("MINT_MAX_WAIT_ROUNDS"),
			ConfirmTimeout:  v.GetDuration("MINT_CONFIRM_TIMEOUT"),
		},
		Algod: AlgodConfig{
			Address: v.GetString("ALGOD_ADDRESS"),
			Token:   v.GetString("ALGOD_TOKEN"),
		},
		Wallet: WalletConfig{
			Mnemonic:    v.GetString("WALLET_MNEMONIC"),
			AutoApprove: v.GetBool("WALLET_AUTO_APPROVE"),
		},
		RateLimit: RateLimitConfig{
			Disabled:     v.GetBool("RATELIMIT_DISABLED"),
			PromptLimit:  v.GetInt("RATELIMIT_PROMPT_LIMIT"),
			PromptWindow: v.GetDuration("RATELIMIT_PROMPT_WINDOW"),
			StartLimit:   v.GetInt("RATELIMIT_START_LIMIT"),
			StartWindow:  v.GetDuration("RATELIMIT_START_WINDOW"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	// Use a default for development - should be overridden in production
	v.SetDefault("JWT_SIGNING_KEY", "dev-secret-key-change-in-production")
	v.SetDefault("DEV_MODE", false)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATE_ON_START", true)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	v.SetDefault("FEED_DRIVER", FeedMemory)
	v.SetDefault("FEED_POSTGRES_CHANNEL", "profiles_changes")
	v.SetDefault("FEED_REDIS_PREFIX", "profiles_changes:")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "profiles.changes")
	v.SetDefault("FEED_SUBSCRIBER_BUFFER", 8)

	v.SetDefault("POLL_INTERVAL", "5s")
	v.SetDefault("VERIFICATION_DEADLINE", "60s")

	v.SetDefault("ASSET_UNIT_NAME", "VNFT")
	v.SetDefault("ASSET_NAME_PREFIX", "EarlCoin Verification")
	v.SetDefault("ASSET_METADATA_URL", "https://earlcoin.com/nft/verified")
	v.SetDefault("MINT_MAX_WAIT_ROUNDS", 4)
	v.SetDefault("MINT_CONFIRM_TIMEOUT", "30s")

	v.SetDefault("ALGOD_ADDRESS", "https://testnet-api.algonode.cloud")
	v.SetDefault("ALGOD_TOKEN", "")

	v.SetDefault("WALLET_MNEMONIC", "")
	v.SetDefault("WALLET_AUTO_APPROVE", true)

	v.SetDefault("RATELIMIT_DISABLED", false)
	v.SetDefault("RATELIMIT_PROMPT_LIMIT", 10)
	v.SetDefault("RATELIMIT_PROMPT_WINDOW", "1m")
	v.SetDefault("RATELIMIT_START_LIMIT", 20)
	v.SetDefault("RATELIMIT_START_WINDOW", "1m")
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Verification.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.Verification.Deadline <= 0 {
		errs = append(errs, errors.New("VERIFICATION_DEADLINE must be positive"))
	}
	if c.Mint.MaxWaitRounds == 0 {
		errs = append(errs, errors.New("MINT_MAX_WAIT_ROUNDS must be positive"))
	}
	if c.Mint.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("MINT_CONFIRM_TIMEOUT must be positive"))
	}
	if len(c.Mint.UnitName) == 0 || len(c.Mint.UnitName) > 8 {
		errs = append(errs, errors.New("ASSET_UNIT_NAME must be 1-8 bytes"))
	}

	if !c.RateLimit.Disabled {
		if c.RateLimit.PromptLimit <= 0 || c.RateLimit.PromptWindow <= 0 {
			errs = append(errs, errors.New("RATELIMIT_PROMPT_LIMIT and RATELIMIT_PROMPT_WINDOW must be positive"))
		}
		if c.RateLimit.StartLimit <= 0 || c.RateLimit.StartWindow <= 0 {
			errs = append(errs, errors.New("RATELIMIT_START_LIMIT and RATELIMIT_START_WINDOW must be positive"))
		}
	}

	switch c.Feed.Driver {
	case FeedMemory:
	case FeedPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("FEED_DRIVER=postgres requires DATABASE_URL"))
		}
	case FeedRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("FEED_DRIVER=redis requires REDIS_URL"))
		}
	case FeedKafka:
		if len(c.Feed.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("FEED_DRIVER=kafka requires KAFKA_BROKERS"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown FEED_DRIVER %q", c.Feed.Driver))
	}

	return errors.Join(errs...)
}
