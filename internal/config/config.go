// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration

	// Bot responder settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	BotProvider     string
	BotModel        string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool

	// Omnichannel business settings
	Omnichannel Settings
}

// Settings is the omnichannel feature snapshot. It is loaded once and passed
// into components explicitly so the core never reads ambient global state.
type Settings struct {
	// AcceptWithNoOnlineAgents lets operators queue new conversations even
	// when no agent is online.
	AcceptWithNoOnlineAgents bool

	// AssignNewConversationsToBot routes new conversations to bot agents
	// when one is available in scope.
	AssignNewConversationsToBot bool

	// ShowAgentInfo controls whether transcripts name the agent or use a
	// generic label.
	ShowAgentInfo bool

	// DefaultLanguage is the locale fallback for visitors with none set.
	DefaultLanguage string

	// FromAddress is the configured sender in display form, e.g.
	// "Support <support@omnidesk.io>". A bare address is extracted from it
	// before dispatch.
	FromAddress string

	// SystemUsername is the well-known account used to attribute audit
	// messages when no requesting user is present.
	SystemUsername string

	// TranscriptSubject is the default subject for transcript emails.
	TranscriptSubject string

	// GuestDefaultName names visitors that never supplied one.
	GuestDefaultName string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),

		// Bot responder
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		BotProvider:     getEnv("BOT_PROVIDER", "anthropic"),
		BotModel:        getEnv("BOT_MODEL", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),

		Omnichannel: Settings{
			AcceptWithNoOnlineAgents:    getBoolEnv("LIVECHAT_ACCEPT_WITH_NO_ONLINE_AGENTS", false),
			AssignNewConversationsToBot: getBoolEnv("LIVECHAT_ASSIGN_BOT_AGENTS", false),
			ShowAgentInfo:               getBoolEnv("LIVECHAT_SHOW_AGENT_INFO", true),
			DefaultLanguage:             getEnv("LIVECHAT_DEFAULT_LANGUAGE", "en"),
			FromAddress:                 getEnv("LIVECHAT_FROM_ADDRESS", "Omnidesk Support <support@omnidesk.io>"),
			SystemUsername:              getEnv("LIVECHAT_SYSTEM_USERNAME", "omni.bot"),
			TranscriptSubject:           getEnv("LIVECHAT_TRANSCRIPT_SUBJECT", "Conversation transcript"),
			GuestDefaultName:            getEnv("LIVECHAT_GUEST_DEFAULT_NAME", "Guest"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
