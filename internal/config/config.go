package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported inference providers.
const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
	ProviderVertex    = "vertex"
	ProviderOpenAI    = "openai"
)

// Config holds runtime configuration values for the grader.
type Config struct {
	AppName         string
	AppEnv          string
	LogLevel        string
	ConfigDir       string
	Provider        string
	AWSRegion       string
	AnthropicAPIKey string
	VertexProject   string
	VertexRegion    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	DatabaseURL     string
	MetricsPushURL  string
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Credentials and region use the names the provider SDKs already read.
	_ = v.BindEnv("aws.region", "AWS_REGION")
	_ = v.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")

	v.SetDefault("app.name", "GEMA Grader")
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("config.dir", "config")
	v.SetDefault("provider", ProviderBedrock)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("vertex.region", "us-east5")

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		ConfigDir:       v.GetString("config.dir"),
		Provider:        strings.ToLower(strings.TrimSpace(v.GetString("provider"))),
		AWSRegion:       v.GetString("aws.region"),
		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		VertexProject:   v.GetString("vertex.project"),
		VertexRegion:    v.GetString("vertex.region"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		OpenAIBaseURL:   v.GetString("openai.base_url"),
		DatabaseURL:     v.GetString("database.url"),
		MetricsPushURL:  v.GetString("metrics.push_url"),
	}

	switch cfg.Provider {
	case ProviderBedrock, ProviderAnthropic, ProviderOpenAI:
	case ProviderVertex:
		if cfg.VertexProject == "" {
			return Config{}, fmt.Errorf("vertex provider requires GRADER_VERTEX_PROJECT")
		}
	default:
		return Config{}, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}

	return cfg, nil
}
