package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	RedisURL            string
	SupabaseURL         string // e.g. https://xyz.supabase.co, PostgREST and storage base
	SupabaseServiceKey  string // must be service_role key (Dashboard → API), not anon key
	SupabaseBucket      string // storage bucket for listing images
	OpenAIAPIKey        string
	OpenAIBaseURL       string // override for tests/proxies; empty means api.openai.com
	RouterModel         string
	ExtractorModel      string
	VisionModel         string
	SpeechModel         string
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	RateLimitPerMinute  int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	cfg := &Config{
		Env:                 env,
		Port:                port,
		RedisURL:            viper.GetString("REDIS_URL"),
		SupabaseURL:         viper.GetString("SUPABASE_URL"),
		SupabaseServiceKey:  viper.GetString("SUPABASE_SERVICE_KEY"),
		SupabaseBucket:      viper.GetString("SUPABASE_BUCKET"),
		OpenAIAPIKey:        viper.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:       viper.GetString("OPENAI_BASE_URL"),
		RouterModel:         viper.GetString("ROUTER_MODEL"),
		ExtractorModel:      viper.GetString("EXTRACTOR_MODEL"),
		VisionModel:         viper.GetString("VISION_MODEL"),
		SpeechModel:         viper.GetString("SPEECH_MODEL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		RateLimitPerMinute:  viper.GetInt("RATE_LIMIT_PER_MINUTE"),
	}

	if cfg.SupabaseBucket == "" {
		cfg.SupabaseBucket = "listing-images"
	}
	if cfg.RouterModel == "" {
		cfg.RouterModel = "gpt-4o-mini"
	}
	if cfg.ExtractorModel == "" {
		cfg.ExtractorModel = "gpt-4o-mini"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gpt-4o"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "gpt-4o-mini"
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 30
	}
	return cfg, nil
}
