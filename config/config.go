package config

import (
	"fmt"
	"time"

	"github.com/Dosada05/promotion-results/storage"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	ServerPort  int    `env:"SERVER_PORT" envDefault:"8080"`

	PendingResultsInterval time.Duration `env:"PENDING_RESULTS_INTERVAL" envDefault:"10m"`
	AnnouncementTimeout    time.Duration `env:"ANNOUNCEMENT_TIMEOUT" envDefault:"5s"`

	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT" envDefault:"promotion.announcements"`

	DiscordBotToken  string `env:"DISCORD_BOT_TOKEN"`
	DiscordChannelID string `env:"DISCORD_CHANNEL_ID"`

	R2 storage.CloudflareR2UploaderConfig `envPrefix:"R2_"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// DiscordEnabled reports whether both the bot token and the target channel are set.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordBotToken != "" && c.DiscordChannelID != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Ошибку не считаем фатальной: в проде .env обычно нет.
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment without touching .env.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.PendingResultsInterval <= 0 {
		return fmt.Errorf("PENDING_RESULTS_INTERVAL must be positive, got %s", c.PendingResultsInterval)
	}
	if c.AnnouncementTimeout <= 0 {
		return fmt.Errorf("ANNOUNCEMENT_TIMEOUT must be positive, got %s", c.AnnouncementTimeout)
	}
	if (c.DiscordBotToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_BOT_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return nil
}
