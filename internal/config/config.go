package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Transport names accepted by MAIL_TRANSPORT.
const (
	MailTransportSMTP = "smtp"
	MailTransportLog  = "log"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Mail         MailConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// ProxyHeader names the header carrying the client IP, e.g. X-Forwarded-For.
	// Empty means the peer address is the client.
	ProxyHeader string
	// TrustedProxies limits which peers may set ProxyHeader. Empty trusts every peer.
	TrustedProxies []string
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// MailConfig describes the outbound mail relay.
type MailConfig struct {
	Transport          string
	Host               string
	Port               int
	Username           string
	Password           string
	TLSSkipVerify      bool
	DialTimeoutSeconds int
	SendTimeoutSeconds int
	MaxAttempts        int
	RetryBackoffMillis int
}

// NotificationConfig holds what the rendered documents and recipients need.
type NotificationConfig struct {
	AdminEmail  string
	DisplayName string
	PublicURL   string
	Timezone    string
}

// RateLimitConfig bounds submissions per client. PerMinute <= 0 disables it.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	transport := strings.ToLower(getEnv("MAIL_TRANSPORT", MailTransportSMTP))
	if transport != MailTransportSMTP && transport != MailTransportLog {
		return nil, fmt.Errorf("invalid MAIL_TRANSPORT %q", transport)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("SERVICE_NAME", "herobudget-notifier"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			ProxyHeader:           os.Getenv("APP_PROXY_HEADER"),
			TrustedProxies:        getEnvAsList("APP_TRUSTED_PROXIES"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Mail: MailConfig{
			Transport:          transport,
			Host:               getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:               smtpPort,
			Username:           os.Getenv("GMAIL_USER"),
			Password:           os.Getenv("GMAIL_APP_PASSWORD"),
			TLSSkipVerify:      getEnvAsBool("SMTP_TLS_SKIP_VERIFY", false),
			DialTimeoutSeconds: getEnvAsInt("MAIL_DIAL_TIMEOUT_SECONDS", 10),
			SendTimeoutSeconds: getEnvAsInt("MAIL_SEND_TIMEOUT_SECONDS", 30),
			MaxAttempts:        getEnvAsInt("MAIL_MAX_ATTEMPTS", 1),
			RetryBackoffMillis: getEnvAsInt("MAIL_RETRY_BACKOFF_MS", 500),
		},
		Notification: NotificationConfig{
			AdminEmail:  strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
			DisplayName: getEnv("APP_NAME", "Hero Budget"),
			PublicURL:   strings.TrimRight(getEnv("APP_URL", "https://herobudget.com"), "/"),
			Timezone:    getEnv("APP_TIMEZONE", "Europe/Madrid"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
			Burst:     getEnvAsInt("RATE_LIMIT_BURST", 5),
		},
	}

	return cfg, nil
}

// MailIssues lists the environment keys the mail pipeline needs but did not get.
// An empty result means the relay and operator recipient are fully configured.
func (c *Config) MailIssues() []string {
	var missing []string
	if c.Mail.Transport == MailTransportSMTP {
		if strings.TrimSpace(c.Mail.Username) == "" {
			missing = append(missing, "GMAIL_USER")
		}
		if strings.TrimSpace(c.Mail.Password) == "" {
			missing = append(missing, "GMAIL_APP_PASSWORD")
		}
	}
	if c.Notification.AdminEmail == "" {
		missing = append(missing, "ADMIN_EMAIL")
	}
	return missing
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Addr returns host:port of the relay.
func (m MailConfig) Addr() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

// DialTimeout returns the relay connect timeout.
func (m MailConfig) DialTimeout() time.Duration {
	return seconds(m.DialTimeoutSeconds)
}

// SendTimeout bounds one delivery attempt, connect to QUIT.
func (m MailConfig) SendTimeout() time.Duration {
	return seconds(m.SendTimeoutSeconds)
}

// RetryBackoff returns the delay before the second attempt.
func (m MailConfig) RetryBackoff() time.Duration {
	if m.RetryBackoffMillis <= 0 {
		return 0
	}
	return time.Duration(m.RetryBackoffMillis) * time.Millisecond
}

// Location resolves the time zone used for timestamps in documents, falling back to UTC.
func (n NotificationConfig) Location() *time.Location {
	if n.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(n.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SupportURL is the help center link used in acknowledgment documents.
func (n NotificationConfig) SupportURL() string {
	return n.PublicURL + "/soporte"
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
