package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRulesCommand(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "fca-news-search")
	assert.Contains(t, out, "legislation-new")
}

func TestRulesCommand_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: []\n"), 0o644))

	_, err := execute(t, "rules", "--rules", path)
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	t.Setenv("DEBUG_SCRAPING", "")
	_, err := execute(t, "--log-level", "loud", "rules")
	assert.Error(t, err)
}

func TestNotifyCommand_WithoutCredentials(t *testing.T) {
	t.Setenv("SENDER_EMAIL", "")
	t.Setenv("RECEIVER_EMAIL", "")
	t.Setenv("EMAIL_PASSWORD", "")

	out, err := execute(t, "notify", "--table", filepath.Join(t.TempDir(), "fca_news.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Email credentials not found in environment variables. Skipping email.")
}

func TestNewsCommand_UnknownProfile(t *testing.T) {
	_, err := execute(t, "news", "--no-email", "--profile", "no-such-profile", "-o", filepath.Join(t.TempDir(), "out.csv"))
	assert.Error(t, err)
}
