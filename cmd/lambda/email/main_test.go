package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"fca-relay/internal/pipeline"
)

func TestLoadConfig(t *testing.T) {
	cfg := loadConfig(func(string) string { return "" })
	assert.Equal(t, filepath.Join(os.TempDir(), "fca_news.csv"), cfg.TablePath)
	assert.False(t, cfg.Notifier.Complete())

	env := map[string]string{"TABLE_PATH": "/tmp/custom.csv", "EMAIL_PASSWORD": "secret"}
	cfg = loadConfig(func(k string) string { return env[k] })
	assert.Equal(t, "/tmp/custom.csv", cfg.TablePath)
	assert.Equal(t, "secret", cfg.Notifier.Password)
}

func TestToResponse(t *testing.T) {
	cfg := LambdaConfig{TablePath: "/tmp/fca_news.csv", Notifier: pipeline.NotifierConfig{Recipient: "team@example.com"}}

	resp := toResponse(cfg, pipeline.NotifyResult{Skipped: true, Missing: []string{pipeline.EnvSenderEmail}})
	assert.Equal(t, 200, resp.StatusCode)
	assert.False(t, resp.Sent)
	assert.Contains(t, resp.Message, "SENDER_EMAIL")

	resp = toResponse(cfg, pipeline.NotifyResult{Err: errors.New("535 auth"), Records: 2})
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, 2, resp.Records)

	resp = toResponse(cfg, pipeline.NotifyResult{Sent: true, Records: 4})
	assert.True(t, resp.Sent)
	assert.Equal(t, "Successfully sent 4 records from /tmp/fca_news.csv to team@example.com", resp.Message)
}
