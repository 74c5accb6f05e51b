package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"fca-relay/internal/pipeline"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, mode, err := loadConfig(envFrom(nil))
	assert.NoError(t, err)

	assert.Equal(t, pipeline.LayoutNews, mode)
	assert.Equal(t, pipeline.DefaultNewsURL, cfg.Input.URL)
	assert.Equal(t, pipeline.DefaultNewsProfile, cfg.Input.Profile)
	assert.Equal(t, filepath.Join(os.TempDir(), "fca_news.csv"), cfg.Output.Path)
	assert.True(t, cfg.Email.Send)
	assert.False(t, cfg.Email.Notifier.Complete())
}

func TestLoadConfig_Updates(t *testing.T) {
	cfg, mode, err := loadConfig(envFrom(map[string]string{
		"MODE":        "updates",
		"SEND_EMAIL":  "true",
		"OUTPUT_PATH": "/tmp/out.csv",
	}))

	assert.NoError(t, err)
	assert.Equal(t, pipeline.LayoutUpdates, mode)
	assert.Equal(t, "/tmp/out.csv", cfg.Output.Path)
	assert.False(t, cfg.Email.Send, "multi-source runs never send email")
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, mode, err := loadConfig(envFrom(map[string]string{
		"MODE":           "bogus",
		"NEWS_URL":       "https://www.fca.org.uk/news/rss.xml",
		"NEWS_PROFILE":   "fca-news-feed",
		"SEND_EMAIL":     "false",
		"LOG_LEVEL":      "debug",
		"SENDER_EMAIL":   "relay@example.com",
		"RECEIVER_EMAIL": "team@example.com",
		"EMAIL_PASSWORD": "secret",
	}))

	assert.ErrorIs(t, err, pipeline.ErrUnknownLayout, "unknown MODE is reported, not silently ignored")
	assert.Equal(t, pipeline.LayoutNews, mode)
	assert.Equal(t, "https://www.fca.org.uk/news/rss.xml", cfg.Input.URL)
	assert.Equal(t, "fca-news-feed", cfg.Input.Profile)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Email.Send)
	assert.True(t, cfg.Email.Notifier.Complete())
}
