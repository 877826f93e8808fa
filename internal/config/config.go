package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBUrl     string
	JWTSecret string
	AppEnv    string

	// Coaching LLM
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// WhatsApp providers
	EvolutionBaseURL string
	EvolutionAPIKey  string
	MaytapiBaseURL   string
	MaytapiProductID string
	MaytapiToken     string
	TwilioBaseURL    string
	TwilioAccountSID string
	TwilioAuthToken  string

	// Consultation file storage
	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		DBUrl:     getEnv("DB_URL", ""),
		JWTSecret: jwtSecret,
		AppEnv:    normalizeEnv(getEnv("APP_ENV", "production")),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		EvolutionBaseURL: getEnv("EVOLUTION_BASE_URL", ""),
		EvolutionAPIKey:  getEnv("EVOLUTION_API_KEY", ""),
		MaytapiBaseURL:   getEnv("MAYTAPI_BASE_URL", "https://api.maytapi.com/api"),
		MaytapiProductID: getEnv("MAYTAPI_PRODUCT_ID", ""),
		MaytapiToken:     getEnv("MAYTAPI_TOKEN", ""),
		TwilioBaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
