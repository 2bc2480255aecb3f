// Package config loads and validates the bot configuration.
//
// Values come from, in order of precedence: command-line flags, environment
// variables prefixed with WORLDCUP_ (dots become underscores, so
// store.s3.bucket is WORLDCUP_STORE_S3_BUCKET), an optional YAML config
// file, and built-in defaults. A .env file in the working directory is
// loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/worldcup-events/internal/storage"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WORLDCUP"

// Config is the complete, validated configuration. It is not mutated after
// Load returns.
type Config struct {
	Locale        string         `mapstructure:"locale" json:"locale"`
	LocaleDir     string         `mapstructure:"locale_dir" json:"locale_dir,omitempty"`
	CompetitionID string         `mapstructure:"competition_id" json:"competition_id"`
	SeasonID      string         `mapstructure:"season_id" json:"season_id"`
	Upstream      UpstreamConfig `mapstructure:"upstream" json:"upstream"`
	Store         StoreConfig    `mapstructure:"store" json:"store"`
	Notify        NotifyConfig   `mapstructure:"notify" json:"notify"`
	Alias         AliasConfig    `mapstructure:"alias" json:"alias"`
	Watch         WatchConfig    `mapstructure:"watch" json:"watch"`
	Log           LogConfig      `mapstructure:"log" json:"log"`
}

type UpstreamConfig struct {
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	Concurrency int           `mapstructure:"concurrency" json:"concurrency"`
}

type StoreConfig struct {
	Backend       string      `mapstructure:"backend" json:"backend"`
	Path          string      `mapstructure:"path" json:"path,omitempty"`
	EncryptionKey string      `mapstructure:"encryption_key" json:"encryption_key,omitempty"`
	S3            S3Config    `mapstructure:"s3" json:"s3"`
	Gist          GistConfig  `mapstructure:"gist" json:"gist"`
	Redis         RedisConfig `mapstructure:"redis" json:"redis"`
	SQL           SQLConfig   `mapstructure:"sql" json:"sql"`
}

type S3Config struct {
	Bucket   string `mapstructure:"bucket" json:"bucket,omitempty"`
	Key      string `mapstructure:"key" json:"key,omitempty"`
	Region   string `mapstructure:"region" json:"region,omitempty"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint,omitempty"`
}

type GistConfig struct {
	ID    string `mapstructure:"id" json:"id,omitempty"`
	Token string `mapstructure:"token" json:"token,omitempty"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr,omitempty"`
	Password string `mapstructure:"password" json:"password,omitempty"`
	DB       int    `mapstructure:"db" json:"db"`
	Key      string `mapstructure:"key" json:"key,omitempty"`
}

type SQLConfig struct {
	DSN  string `mapstructure:"dsn" json:"dsn,omitempty"`
	Name string `mapstructure:"name" json:"name,omitempty"`
}

type NotifyConfig struct {
	DryRun           bool           `mapstructure:"dry_run" json:"dry_run"`
	Retries          int            `mapstructure:"retries" json:"retries"`
	BreakerThreshold int            `mapstructure:"breaker_threshold" json:"breaker_threshold"`
	BreakerCooldown  time.Duration  `mapstructure:"breaker_cooldown" json:"breaker_cooldown"`
	Slack            SlackConfig    `mapstructure:"slack" json:"slack"`
	Telegram         TelegramConfig `mapstructure:"telegram" json:"telegram"`
	Twitter          TwitterConfig  `mapstructure:"twitter" json:"twitter"`
	Kafka            KafkaConfig    `mapstructure:"kafka" json:"kafka"`
	AMQP             AMQPConfig     `mapstructure:"amqp" json:"amqp"`
}

type SlackConfig struct {
	Token    string `mapstructure:"token" json:"token,omitempty"`
	Channel  string `mapstructure:"channel" json:"channel,omitempty"`
	Username string `mapstructure:"username" json:"username,omitempty"`
	IconURL  string `mapstructure:"icon_url" json:"icon_url,omitempty"`
}

func (c SlackConfig) Enabled() bool { return c.Token != "" || c.Channel != "" }

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" json:"bot_token,omitempty"`
	ChatID   string `mapstructure:"chat_id" json:"chat_id,omitempty"`
}

func (c TelegramConfig) Enabled() bool { return c.BotToken != "" || c.ChatID != "" }

type TwitterConfig struct {
	APIKey       string `mapstructure:"api_key" json:"api_key,omitempty"`
	APISecret    string `mapstructure:"api_secret" json:"api_secret,omitempty"`
	AccessToken  string `mapstructure:"access_token" json:"access_token,omitempty"`
	AccessSecret string `mapstructure:"access_secret" json:"access_secret,omitempty"`
}

func (c TwitterConfig) Enabled() bool {
	return c.APIKey != "" || c.APISecret != "" || c.AccessToken != "" || c.AccessSecret != ""
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers" json:"brokers,omitempty"`
	Topic   string   `mapstructure:"topic" json:"topic,omitempty"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 || c.Topic != "" }

type AMQPConfig struct {
	URL        string `mapstructure:"url" json:"url,omitempty"`
	Exchange   string `mapstructure:"exchange" json:"exchange,omitempty"`
	RoutingKey string `mapstructure:"routing_key" json:"routing_key,omitempty"`
}

func (c AMQPConfig) Enabled() bool { return c.URL != "" }

type AliasConfig struct {
	CacheTTL    time.Duration `mapstructure:"cache_ttl" json:"cache_ttl"`
	RedisAddr   string        `mapstructure:"redis_addr" json:"redis_addr,omitempty"`
	Concurrency int           `mapstructure:"concurrency" json:"concurrency"`
}

type WatchConfig struct {
	Schedule string `mapstructure:"schedule" json:"schedule"`
	HTTPAddr string `mapstructure:"http_addr" json:"http_addr,omitempty"`
}

type LogConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

var defaults = map[string]interface{}{
	"locale":                       "en-US",
	"locale_dir":                   "",
	"competition_id":               "17",
	"season_id":                    "255711",
	"upstream.base_url":            "https://api.fifa.com/api/v3",
	"upstream.timeout":             "15s",
	"upstream.concurrency":         4,
	"store.backend":                "file",
	"store.path":                   storage.DefaultPath,
	"store.encryption_key":         "",
	"store.s3.bucket":              "",
	"store.s3.key":                 storage.DefaultS3Key,
	"store.s3.region":              "",
	"store.s3.endpoint":            "",
	"store.gist.id":                "",
	"store.gist.token":             "",
	"store.redis.addr":             "",
	"store.redis.password":         "",
	"store.redis.db":               0,
	"store.redis.key":              storage.DefaultRedisKey,
	"store.sql.dsn":                "",
	"store.sql.name":               storage.DefaultSnapshotName,
	"notify.dry_run":               false,
	"notify.retries":               2,
	"notify.breaker_threshold":     5,
	"notify.breaker_cooldown":      "5m",
	"notify.slack.token":           "",
	"notify.slack.channel":         "",
	"notify.slack.username":        "WorldCup Bot",
	"notify.slack.icon_url":        "https://i.imgur.com/Pd0cpqE.png",
	"notify.telegram.bot_token":    "",
	"notify.telegram.chat_id":      "",
	"notify.twitter.api_key":       "",
	"notify.twitter.api_secret":    "",
	"notify.twitter.access_token":  "",
	"notify.twitter.access_secret": "",
	"notify.kafka.brokers":         []string{},
	"notify.kafka.topic":           "",
	"notify.amqp.url":              "",
	"notify.amqp.exchange":         "",
	"notify.amqp.routing_key":      "",
	"alias.cache_ttl":              "24h",
	"alias.redis_addr":             "",
	"alias.concurrency":            4,
	"watch.schedule":               "@every 1m",
	"watch.http_addr":              ":8080",
	"log.level":                    "info",
}

// Options controls where Load reads from.
type Options struct {
	// File is an optional YAML config file.
	File string
	// EnvFile is loaded into the environment when present. Defaults to .env.
	EnvFile string
	// Flags are bound by name through FlagKeys.
	Flags *pflag.FlagSet
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"locale":      "locale",
	"locale-dir":  "locale_dir",
	"competition": "competition_id",
	"season":      "season_id",
	"store":       "store.backend",
	"store-path":  "store.path",
	"dry-run":     "notify.dry_run",
	"log-level":   "log.level",
	"schedule":    "watch.schedule",
	"http-addr":   "watch.http_addr",
}

// Load reads the configuration and validates it.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, reflect.TypeOf(Config{}))

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if flag := opts.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Notify.Kafka.Brokers = compact(cfg.Notify.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnvs registers every mapstructure key with viper so that environment
// variables are seen by Unmarshal.
func bindEnvs(v *viper.Viper, t reflect.Type, parts ...string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		key := append(append([]string{}, parts...), tag)
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			bindEnvs(v, field.Type, key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

func compact(values []string) []string {
	out := values[:0]
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// StorageOptions translates the store section for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	s := c.Store
	return storage.Options{
		Backend:       s.Backend,
		Path:          s.Path,
		S3Bucket:      s.S3.Bucket,
		S3Key:         s.S3.Key,
		S3Region:      s.S3.Region,
		S3Endpoint:    s.S3.Endpoint,
		GistID:        s.Gist.ID,
		GistToken:     s.Gist.Token,
		RedisAddr:     s.Redis.Addr,
		RedisPassword: s.Redis.Password,
		RedisDB:       s.Redis.DB,
		RedisKey:      s.Redis.Key,
		SQLDSN:        s.SQL.DSN,
		SQLName:       s.SQL.Name,
		EncryptionKey: s.EncryptionKey,
	}
}
