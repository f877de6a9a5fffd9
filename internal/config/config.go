package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from every environment variable read by Load.
// Nested keys use a double underscore, e.g. SHOP_DATABASE__HOST -> database.host.
const EnvPrefix = "SHOP_"

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `koanf:"host" validate:"required"`
	Port               string `koanf:"port" validate:"required"`
	User               string `koanf:"user" validate:"required"`
	Password           string `koanf:"password"`
	Name               string `koanf:"name" validate:"required"`
	SSLMode            string `koanf:"sslmode"`
	MaxOpenConns       int    `koanf:"max_open_conns"`
	MaxIdleConns       int    `koanf:"max_idle_conns"`
	ConnMaxLifetimeSec int    `koanf:"conn_max_lifetime_sec"`
	AutoMigrate        bool   `koanf:"auto_migrate"`
}

// MinIOConfig holds object storage settings for product images.
type MinIOConfig struct {
	Endpoint      string `koanf:"endpoint"`
	AccessKey     string `koanf:"access_key"`
	SecretKey     string `koanf:"secret_key"`
	Bucket        string `koanf:"bucket"`
	UseSSL        bool   `koanf:"use_ssl"`
	PublicBaseURL string `koanf:"public_base_url"`
}

// Enabled reports whether enough settings are present to build a client.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// RedisConfig is shared by the job queue and the catalog cache.
type RedisConfig struct {
	Address  string `koanf:"address" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// AuthConfig configures session verification against Clerk.
type AuthConfig struct {
	SecretKey   string   `koanf:"secret_key" validate:"required"`
	AdminEmails []string `koanf:"admin_emails"`
}

// ZenoPayConfig configures the mobile-money gateway.
type ZenoPayConfig struct {
	BaseURL           string `koanf:"base_url" validate:"required,url"`
	APIKey            string `koanf:"api_key" validate:"required"`
	WebhookURL        string `koanf:"webhook_url" validate:"required,url"`
	TimeoutSec        int    `koanf:"timeout_sec"`
	SessionTTLMin     int    `koanf:"session_ttl_min"`
	PollIntervalSec   int    `koanf:"poll_interval_sec"`
	ReconcileDelaySec int    `koanf:"reconcile_delay_sec"`
}

// MailConfig selects and configures the transactional email provider.
type MailConfig struct {
	Provider          string `koanf:"provider" validate:"oneof=sendpulse resend log"`
	FromName          string `koanf:"from_name"`
	FromAddress       string `koanf:"from_address" validate:"required,email"`
	AdminAddress      string `koanf:"admin_address"`
	SendPulseBaseURL  string `koanf:"sendpulse_base_url"`
	SendPulseClientID string `koanf:"sendpulse_client_id"`
	SendPulseSecret   string `koanf:"sendpulse_secret"`
	ResendAPIKey      string `koanf:"resend_api_key"`
	StorefrontBaseURL string `koanf:"storefront_base_url"`
}

// ShopConfig holds storefront business settings.
type ShopConfig struct {
	Currency          string `koanf:"currency" validate:"required,len=3"`
	ShippingFee       string `koanf:"shipping_fee"`
	LowStockThreshold int    `koanf:"low_stock_threshold"`
	CatalogCacheTTL   int    `koanf:"catalog_cache_ttl_sec"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Env      string         `koanf:"env" validate:"required"`
	AppHost  string         `koanf:"app_host"`
	Port     string         `koanf:"port" validate:"required"`
	LogLevel string         `koanf:"log_level"`
	Database DatabaseConfig `koanf:"database"`
	MinIO    MinIOConfig    `koanf:"minio"`
	Redis    RedisConfig    `koanf:"redis"`
	Auth     AuthConfig     `koanf:"auth"`
	ZenoPay  ZenoPayConfig  `koanf:"zenopay"`
	Mail     MailConfig     `koanf:"mail"`
	Shop     ShopConfig     `koanf:"shop"`
}

// IsLocal reports whether the app runs on a developer machine.
func (c *AppConfig) IsLocal() bool {
	return c.Env == "local"
}

// Defaults returns the configuration used for any key missing from the environment.
func Defaults() *AppConfig {
	return &AppConfig{
		Env:      "production",
		AppHost:  "localhost:8080",
		Port:     "8080",
		LogLevel: "info",
		Database: DatabaseConfig{
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
		Redis: RedisConfig{Address: "localhost:6379"},
		ZenoPay: ZenoPayConfig{
			BaseURL:           "https://zenoapi.com",
			TimeoutSec:        20,
			SessionTTLMin:     15,
			PollIntervalSec:   10,
			ReconcileDelaySec: 30,
		},
		Mail: MailConfig{
			Provider:         "log",
			FromName:         "Shop",
			SendPulseBaseURL: "https://api.sendpulse.com",
		},
		Shop: ShopConfig{
			Currency:          "TZS",
			ShippingFee:       "0",
			LowStockThreshold: 5,
			CatalogCacheTTL:   60,
		},
	}
}

// Load reads configuration from environment variables on top of Defaults.
// A .env file is auto-loaded when present; real environment variables take precedence.
func Load() (*AppConfig, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Comma separated lists arrive as a single string.
	if raw := k.String("auth.admin_emails"); raw != "" {
		cfg.Auth.AdminEmails = splitList(raw)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
