package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	require.Equal(t, "readlater", cfg.Mongo.Database)
	require.Equal(t, "article-images", cfg.Storage.Bucket)
	require.Equal(t, "images", cfg.Storage.Prefix)
	require.Equal(t, URLSchemeLocal, cfg.Storage.URLScheme)
	require.Equal(t, 10, cfg.Digest.Limit)
	require.Equal(t, "daily", cfg.Digest.Timeframe)
	require.Equal(t, "America/Denver", cfg.Digest.Timezone)
	require.Equal(t, 15*time.Second, cfg.FetchTimeout())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("READLATER_SERVER_PORT", "9090")
	t.Setenv("READLATER_DIGEST_TIMEFRAME", "weekly")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "weekly", cfg.Digest.Timeframe)
}

func TestLoad_EnvOnlySecrets(t *testing.T) {
	t.Setenv("READLATER_EMAIL_API_KEY", "secret-key")
	t.Setenv("READLATER_EMAIL_FROM", "digest@example.com")
	t.Setenv("READLATER_EMAIL_TO", "reader@example.com")
	t.Setenv("READLATER_STORAGE_URL_SCHEME", "hosted")
	t.Setenv("READLATER_STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "secret-key", cfg.Email.APIKey)
	require.Equal(t, "digest@example.com", cfg.Email.From)
	require.Equal(t, "reader@example.com", cfg.Email.To)
	require.Equal(t, URLSchemeHosted, cfg.Storage.URLScheme)
	require.Equal(t, "https://cdn.example.com", cfg.Storage.PublicBaseURL)
}

func TestValidate_URLScheme(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Storage.URLScheme = "guess"
	require.Error(t, cfg.Validate())

	cfg.Storage.URLScheme = URLSchemeHosted
	cfg.Storage.PublicBaseURL = ""
	require.Error(t, cfg.Validate())

	cfg.Storage.PublicBaseURL = "https://cdn.example.com"
	require.NoError(t, cfg.Validate())
}

func TestValidate_Limits(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Digest.Limit = 0
	require.Error(t, cfg.Validate())

	cfg.Digest.Limit = 10
	cfg.HTTP.TimeoutSeconds = 0
	require.Error(t, cfg.Validate())
}
