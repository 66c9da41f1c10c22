package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	viper.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	viper.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	viper.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	viper.BindEnv("queue.url", "QUEUE_URL", "NATS_URL", "APP_QUEUE_URL")
	viper.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	viper.BindEnv("groq.api_key", "GROQ_API_KEY", "APP_GROQ_API_KEY")
	viper.BindEnv("bafoka.api_key", "BAFOKA_API_KEY", "APP_BAFOKA_API_KEY")
	viper.BindEnv("bafoka.base_url", "BAFOKA_BASE_URL", "APP_BAFOKA_BASE_URL")
	viper.BindEnv("session.dir", "SESSION_DIR")
	viper.BindEnv("whatsapp.account_sid", "TWILIO_ACCOUNT_SID")
	viper.BindEnv("whatsapp.auth_token", "TWILIO_AUTH_TOKEN")
	viper.BindEnv("notification.email.api_key", "SENDGRID_API_KEY")
	viper.BindEnv("notification.email.smtp_username", "SMTP_USERNAME")
	viper.BindEnv("notification.email.smtp_password", "SMTP_PASSWORD")
	viper.BindEnv("notification.email.smtp_use_tls", "SMTP_USE_TLS")
	viper.BindEnv("vault.address", "VAULT_ADDR")
	viper.BindEnv("vault.token", "VAULT_TOKEN")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults carry the load.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "voicebank")
	viper.SetDefault("app.version", "dev")
	viper.SetDefault("app.environment", "development")

	viper.SetDefault("http.port", 8080)
	viper.SetDefault("http.read_timeout", 30*time.Second)
	viper.SetDefault("http.write_timeout", 30*time.Second)
	viper.SetDefault("http.idle_timeout", 120*time.Second)
	viper.SetDefault("http.body_limit", 10*1024*1024) // audio uploads

	viper.SetDefault("session.backend", "file")
	viper.SetDefault("session.dir", "./sessions")
	viper.SetDefault("session.timeout", 30*time.Minute)
	viper.SetDefault("session.io_timeout", 3*time.Second)

	viper.SetDefault("queue.driver", "none")

	viper.SetDefault("jwt.token_duration", time.Hour)

	viper.SetDefault("groq.model", "llama-3.1-8b-instant")
	viper.SetDefault("whisper.model", "whisper-large-v3")

	viper.SetDefault("bafoka.base_url", "https://sandbox.bafoka.network")
	viper.SetDefault("bafoka.timeout", 30*time.Second)

	viper.SetDefault("whatsapp.provider", "none")

	viper.SetDefault("prometheus.enabled", true)
	viper.SetDefault("prometheus.path", "/metrics")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}
