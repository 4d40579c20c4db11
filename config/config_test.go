package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/promotion?sslmode=disable")

	cfg, err := Parse()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.ServerPort)
	require.Equal(t, 10*time.Minute, cfg.PendingResultsInterval)
	require.Equal(t, 5*time.Second, cfg.AnnouncementTimeout)
	require.Equal(t, "promotion.announcements", cfg.NATSSubject)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.DiscordEnabled())
	require.False(t, cfg.R2.Configured())
}

func TestParse_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Parse()
	require.Error(t, err)
}

func TestParse_OptionalSinks(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/promotion")
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("DISCORD_CHANNEL_ID", "1234")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "announcements")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com,https://example.com")

	cfg, err := Parse()
	require.NoError(t, err)
	require.True(t, cfg.DiscordEnabled())
	require.True(t, cfg.R2.Configured())
	require.Equal(t, "announcements", cfg.R2.BucketName)
	require.Equal(t, []string{"https://admin.example.com", "https://example.com"}, cfg.CORSAllowedOrigins)
}

func TestParse_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"port out of range":    {"SERVER_PORT": "70000"},
		"port not a number":    {"SERVER_PORT": "http"},
		"zero interval":        {"PENDING_RESULTS_INTERVAL": "0s"},
		"negative timeout":     {"ANNOUNCEMENT_TIMEOUT": "-1s"},
		"discord token only":   {"DISCORD_BOT_TOKEN": "token"},
		"discord channel only": {"DISCORD_CHANNEL_ID": "1234"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/promotion")
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
		})
	}
}
