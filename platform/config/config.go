// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides Redis connection settings for the session cache
// and the task queue.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SessionConfig provides settings for the conversation session cache.
type SessionConfig interface {
	RedisConfig
	GetSessionTTL() time.Duration
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// WhatsAppConfig provides settings for the WhatsApp Cloud API client.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppToken() string
	GetWhatsAppPhoneNumberID() string
	GetWhatsAppVerifyToken() string
	IsWhatsAppEnabled() bool
}

// SchedulerConfig provides settings for the asynq follow-up scheduler.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetDispatchInterval() time.Duration
}

// BotConfig provides tuning knobs for the conversation engine.
type BotConfig interface {
	GetMaxReplyLength() int
	GetInboundRatePerMinute() int
	GetIntentConfidenceThreshold() float64
}

// CRMConfig provides settings for CRM provider adapters.
type CRMConfig interface {
	GetCRMProvider() string
	GetHubSpotAPIKey() string
	GetNotionAPIKey() string
	GetNotionDatabaseID() string
}

// CalendarConfig provides settings for calendar provider adapters.
type CalendarConfig interface {
	GetCalendarProvider() string
	GetGoogleCalendarID() string
	GetGoogleAPIKey() string
	GetCalendlyAPIKey() string
	GetCalendlyEventTypeURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseURL               string
	RedisURL                  string
	RedisTLSInsecure          bool
	SessionTTL                time.Duration
	JWTAccessSecret           string
	CORSAllowAll              bool
	CORSOrigins               []string
	CORSAllowCreds            bool
	WhatsAppURL               string
	WhatsAppToken             string
	WhatsAppPhoneNumberID     string
	WhatsAppVerifyToken       string
	AsynqQueueName            string
	AsynqConcurrency          int
	DispatchInterval          time.Duration
	MaxReplyLength            int
	InboundRatePerMinute      int
	IntentConfidenceThreshold float64
	CRMProvider               string
	HubSpotAPIKey             string
	NotionAPIKey              string
	NotionDatabaseID          string
	CalendarProvider          string
	GoogleCalendarID          string
	GoogleAPIKey              string
	CalendlyAPIKey            string
	CalendlyEventTypeURL      string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// SessionConfig implementation
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string           { return c.WhatsAppURL }
func (c *Config) GetWhatsAppToken() string         { return c.WhatsAppToken }
func (c *Config) GetWhatsAppPhoneNumberID() string { return c.WhatsAppPhoneNumberID }
func (c *Config) GetWhatsAppVerifyToken() string   { return c.WhatsAppVerifyToken }
func (c *Config) IsWhatsAppEnabled() bool {
	return c.WhatsAppURL != "" && c.WhatsAppToken != ""
}

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string           { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int            { return c.AsynqConcurrency }
func (c *Config) GetDispatchInterval() time.Duration  { return c.DispatchInterval }

// BotConfig implementation
func (c *Config) GetMaxReplyLength() int               { return c.MaxReplyLength }
func (c *Config) GetInboundRatePerMinute() int         { return c.InboundRatePerMinute }
func (c *Config) GetIntentConfidenceThreshold() float64 { return c.IntentConfidenceThreshold }

// CRMConfig implementation
func (c *Config) GetCRMProvider() string     { return c.CRMProvider }
func (c *Config) GetHubSpotAPIKey() string   { return c.HubSpotAPIKey }
func (c *Config) GetNotionAPIKey() string    { return c.NotionAPIKey }
func (c *Config) GetNotionDatabaseID() string { return c.NotionDatabaseID }

// CalendarConfig implementation
func (c *Config) GetCalendarProvider() string     { return c.CalendarProvider }
func (c *Config) GetGoogleCalendarID() string     { return c.GoogleCalendarID }
func (c *Config) GetGoogleAPIKey() string         { return c.GoogleAPIKey }
func (c *Config) GetCalendlyAPIKey() string       { return c.CalendlyAPIKey }
func (c *Config) GetCalendlyEventTypeURL() string { return c.CalendlyEventTypeURL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		RedisURL:                  getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:          strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		SessionTTL:                mustDuration(getEnv("SESSION_TTL", "30m")),
		JWTAccessSecret:           getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:              corsAllowAll,
		CORSOrigins:               corsOrigins,
		CORSAllowCreds:            strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		WhatsAppURL:               getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v18.0"),
		WhatsAppToken:             getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID:     getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:       getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		AsynqQueueName:            getEnv("ASYNQ_QUEUE", "followups"),
		AsynqConcurrency:          mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		DispatchInterval:          mustDuration(getEnv("FOLLOWUP_DISPATCH_INTERVAL", "1m")),
		MaxReplyLength:            mustInt(getEnv("BOT_MAX_REPLY_LENGTH", "300")),
		InboundRatePerMinute:      mustInt(getEnv("BOT_INBOUND_RATE_PER_MINUTE", "10")),
		IntentConfidenceThreshold: mustFloat(getEnv("INTENT_CONFIDENCE_THRESHOLD", "0.7")),
		CRMProvider:               getEnv("CRM_PROVIDER", ""),
		HubSpotAPIKey:             getEnv("HUBSPOT_API_KEY", ""),
		NotionAPIKey:              getEnv("NOTION_API_KEY", ""),
		NotionDatabaseID:          getEnv("NOTION_DATABASE_ID", ""),
		CalendarProvider:          getEnv("CALENDAR_PROVIDER", ""),
		GoogleCalendarID:          getEnv("GOOGLE_CALENDAR_ID", ""),
		GoogleAPIKey:              getEnv("GOOGLE_API_KEY", ""),
		CalendlyAPIKey:            getEnv("CALENDLY_API_KEY", ""),
		CalendlyEventTypeURL:      getEnv("CALENDLY_EVENT_TYPE_URL", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.MaxReplyLength < 50 {
		return nil, fmt.Errorf("BOT_MAX_REPLY_LENGTH must be at least 50")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
