package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// API key variables, checked in order.
var apiKeyEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_GEMINI_API_KEY"}

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort        string        `mapstructure:"HTTPPort"`
		Timeout         time.Duration `mapstructure:"HTTPTimeout"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	} `mapstructure:"server"`
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Port    string `mapstructure:"port"`
	} `mapstructure:"metrics"`
	GenAI   GenAI `mapstructure:"genai"`
	Chat    Chat  `mapstructure:"chat"`
	Prompts struct {
		Dir   string `mapstructure:"dir"`
		Watch bool   `mapstructure:"watch"`
	} `mapstructure:"prompts"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	} `mapstructure:"cors"`
	RateLimit struct {
		RequestsPerMinute int `mapstructure:"requestsPerMinute"`
	} `mapstructure:"rateLimit"`
}

// GenAI configures the completion service client.
type GenAI struct {
	APIKey            string  `mapstructure:"apiKey"`
	Model             string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature"`
	MaxToolRounds     int     `mapstructure:"maxToolRounds"`
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
	Burst             int     `mapstructure:"burst"`
}

type Chat struct {
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	MaxQueryLength int           `mapstructure:"maxQueryLength"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// NIZHAL_GENAI_MODEL overrides genai.model, and so on.
	v.SetEnvPrefix("NIZHAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	if config.GenAI.APIKey == "" {
		config.GenAI.APIKey = apiKeyFromEnv()
	}
	return config, nil
}

func apiKeyFromEnv() string {
	for _, name := range apiKeyEnvVars {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
