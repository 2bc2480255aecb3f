package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"

	"github.com/pfrederiksen/worldcup-events/internal/logger"
)

var backends = map[string]bool{
	"file": true, "s3": true, "gist": true, "redis": true, "sqlite": true, "postgres": true,
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Locale == "" {
		add("locale is required")
	}
	if c.CompetitionID == "" {
		add("competition_id is required")
	}
	if c.SeasonID == "" {
		add("season_id is required")
	}

	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("upstream.base_url %q is not an absolute URL", c.Upstream.BaseURL)
	}
	if c.Upstream.Timeout <= 0 {
		add("upstream.timeout must be positive")
	}
	if c.Upstream.Concurrency < 1 {
		add("upstream.concurrency must be at least 1")
	}

	switch s := c.Store; {
	case !backends[s.Backend]:
		add("store.backend %q is not one of file, s3, gist, redis, sqlite, postgres", s.Backend)
	case s.Backend == "s3" && s.S3.Bucket == "":
		add("store.s3.bucket is required for the s3 backend")
	case s.Backend == "gist" && (s.Gist.ID == "" || s.Gist.Token == ""):
		add("store.gist.id and store.gist.token are required for the gist backend")
	case s.Backend == "redis" && s.Redis.Addr == "":
		add("store.redis.addr is required for the redis backend")
	case (s.Backend == "sqlite" || s.Backend == "postgres") && s.SQL.DSN == "":
		add("store.sql.dsn is required for the %s backend", s.Backend)
	}

	n := c.Notify
	if n.Retries < 0 {
		add("notify.retries must not be negative")
	}
	if n.BreakerThreshold > 0 && n.BreakerCooldown <= 0 {
		add("notify.breaker_cooldown must be positive when the breaker is enabled")
	}
	if n.Slack.Enabled() && (n.Slack.Token == "" || n.Slack.Channel == "") {
		add("notify.slack.token and notify.slack.channel must be set together")
	}
	if n.Telegram.Enabled() && (n.Telegram.BotToken == "" || n.Telegram.ChatID == "") {
		add("notify.telegram.bot_token and notify.telegram.chat_id must be set together")
	}
	if t := n.Twitter; t.Enabled() && (t.APIKey == "" || t.APISecret == "" || t.AccessToken == "" || t.AccessSecret == "") {
		add("notify.twitter requires api_key, api_secret, access_token and access_secret")
	}
	if n.Kafka.Enabled() && (len(n.Kafka.Brokers) == 0 || n.Kafka.Topic == "") {
		add("notify.kafka.brokers and notify.kafka.topic must be set together")
	}

	if c.Alias.CacheTTL < 0 {
		add("alias.cache_ttl must not be negative")
	}
	if c.Alias.Concurrency < 1 {
		add("alias.concurrency must be at least 1")
	}

	if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
		add("watch.schedule %q: %v", c.Watch.Schedule, err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %v", err)
	}

	return errors.Join(errs...)
}

// HasNotifier reports whether at least one delivery channel is configured.
func (c *Config) HasNotifier() bool {
	n := c.Notify
	return n.Slack.Enabled() || n.Telegram.Enabled() || n.Twitter.Enabled() || n.Kafka.Enabled() || n.AMQP.Enabled()
}

const masked = "********"

func mask(s string) string {
	if s == "" {
		return ""
	}
	return masked
}

// maskURL hides the password of a URL with user info.
func maskURL(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), masked)
	}
	return u.String()
}

// Masked returns a copy with secrets replaced.
func (c *Config) Masked() Config {
	m := *c
	m.Store.EncryptionKey = mask(m.Store.EncryptionKey)
	m.Store.Gist.Token = mask(m.Store.Gist.Token)
	m.Store.Redis.Password = mask(m.Store.Redis.Password)
	m.Store.SQL.DSN = maskURL(m.Store.SQL.DSN)
	m.Notify.Slack.Token = mask(m.Notify.Slack.Token)
	m.Notify.Telegram.BotToken = mask(m.Notify.Telegram.BotToken)
	m.Notify.Twitter.APIKey = mask(m.Notify.Twitter.APIKey)
	m.Notify.Twitter.APISecret = mask(m.Notify.Twitter.APISecret)
	m.Notify.Twitter.AccessToken = mask(m.Notify.Twitter.AccessToken)
	m.Notify.Twitter.AccessSecret = mask(m.Notify.Twitter.AccessSecret)
	m.Notify.AMQP.URL = maskURL(m.Notify.AMQP.URL)
	return m
}

// MaskedJSON renders the masked configuration as indented JSON.
func (c *Config) MaskedJSON() ([]byte, error) {
	return json.MarshalIndent(c.Masked(), "", "  ")
}
