package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"codecompanion/internal/database"
	"codecompanion/internal/logging"
	"codecompanion/internal/utils"
)

const envPrefix = "COMPANION"

type Config struct {
	DBPath    string
	LogLevel  string
	LogFormat string

	OpenAIBaseURL string
	GeminiBaseURL string
	HTTPTimeout   time.Duration

	UseKeyring bool
	StreamChat bool
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("db_path", database.GetDefaultDBPath())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("gemini_base_url", "")
	v.SetDefault("http_timeout", time.Duration(0))
	v.SetDefault("use_keyring", true)
	v.SetDefault("stream_chat", true)
	return v
}

// Load reads .env (when present) and COMPANION_* variables.
func Load() *Config {
	if err := utils.LoadEnv(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Log().Debugf("no .env loaded: %v", err)
	}
	return fromViper(newViper())
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		DBPath:        strings.TrimSpace(v.GetString("db_path")),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
		OpenAIBaseURL: strings.TrimRight(v.GetString("openai_base_url"), "/"),
		GeminiBaseURL: strings.TrimSpace(v.GetString("gemini_base_url")),
		HTTPTimeout:   v.GetDuration("http_timeout"),
		UseKeyring:    v.GetBool("use_keyring"),
		StreamChat:    v.GetBool("stream_chat"),
	}
}

// EnvAPIKey returns the fallback API key variable for a platform, e.g. OPENAI_API_KEY.
func EnvAPIKey(platform string) string {
	platform = strings.TrimSpace(platform)
	if platform == "" {
		return ""
	}
	return os.Getenv(strings.ToUpper(platform) + "_API_KEY")
}
