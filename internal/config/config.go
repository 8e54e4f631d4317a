package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Speech  SpeechConfig
	TTS     TTSConfig
	Session SessionConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	tts := loadTTSConfig()

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Speech: speech, TTS: tts, Session: session}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5002"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":5002" or "127.0.0.1:5002" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the Azure OpenAI chat deployment used for intent
// classification and response generation.
type AIConfig struct {
	APIKey      string
	Endpoint    string
	Deployment  string
	APIVersion  string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.Endpoint != "" && c.Deployment != ""
}

// NewChatModel builds a chat model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("azure openai credentials missing: set AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_DEPLOYMENT")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &openai.ChatModelConfig{
		ByAzure:     true,
		BaseURL:     c.Endpoint,
		APIVersion:  c.APIVersion,
		APIKey:      c.APIKey,
		Model:       c.Deployment,
		Temperature: temperature,
		MaxTokens:   c.MaxTokens,
	}

	return openai.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AZURE_OPENAI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AZURE_OPENAI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("AZURE_OPENAI_API_KEY")),
		Endpoint:    strings.TrimSpace(os.Getenv("AZURE_OPENAI_ENDPOINT")),
		Deployment:  getEnvOrDefault("AZURE_OPENAI_DEPLOYMENT", "gpt-4"),
		APIVersion:  getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-12-01-preview"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// SpeechConfig describes the Azure Speech recognition endpoint.
type SpeechConfig struct {
	Key      string
	Region   string
	Language string
	Timeout  time.Duration
}

// Enabled reports whether the required credentials are present.
func (c SpeechConfig) Enabled() bool {
	return c.Key != "" && c.Region != ""
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	return SpeechConfig{
		Key:      strings.TrimSpace(os.Getenv("AZURE_SPEECH_KEY")),
		Region:   strings.TrimSpace(os.Getenv("AZURE_SPEECH_REGION")),
		Language: getEnvOrDefault("AZURE_SPEECH_LANGUAGE", "en-US"),
		Timeout:  time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// TTSConfig describes the ElevenLabs synthesis settings.
type TTSConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
}

// Enabled reports whether the API key is present.
func (c TTSConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadTTSConfig() TTSConfig {
	return TTSConfig{
		APIKey:  strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		VoiceID: getEnvOrDefault("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ModelID: getEnvOrDefault("ELEVENLABS_MODEL_ID", "eleven_turbo_v2_5"),
	}
}

// SessionConfig controls session/transcript retention and the optional Redis
// backing store.
type SessionConfig struct {
	TTL           time.Duration // 0 disables idle eviction
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// RedisEnabled reports whether a Redis address was supplied.
func (c SessionConfig) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func loadSessionConfig() (SessionConfig, error) {
	ttlMinutes := 30
	if override, err := parseOptionalIntEnv("SESSION_TTL_MINUTES"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return SessionConfig{}, fmt.Errorf("SESSION_TTL_MINUTES must not be negative")
		}
		ttlMinutes = *override
	}

	redisDB := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		redisDB = *override
	}

	return SessionConfig{
		TTL:           time.Duration(ttlMinutes) * time.Minute,
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
