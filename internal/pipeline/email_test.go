package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	calls int
	last  *email.Email
	err   error
}

func (f *fakeTransport) Send(_ context.Context, msg *email.Email) error {
	f.calls++
	f.last = msg
	return f.err
}

func completeNotifierConfig() NotifierConfig {
	return NotifierConfig{
		Sender:    "relay@example.com",
		Recipient: "a@example.com, b@example.com",
		Password:  "app-password",
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
}

func TestRenderBody(t *testing.T) {
	header := []string{"Date", "Title", "Link"}
	rows := [][]string{
		{"14/03/2025", "First", "https://www.fca.org.uk/news/first"},
		{"12/03/2025", "Second", "https://www.fca.org.uk/news/second"},
	}

	expected := "Here are the latest articles from the FCA:\n\n" +
		"Published: 14/03/2025\nTitle: First\nLink: https://www.fca.org.uk/news/first\n\n" +
		"Published: 12/03/2025\nTitle: Second\nLink: https://www.fca.org.uk/news/second"
	assert.Equal(t, expected, RenderBody(header, rows))
}

func TestRenderBody_NoRows(t *testing.T) {
	assert.Equal(t, NoNewItemsMessage, RenderBody([]string{"Date", "Title", "Link"}, nil))
	assert.Equal(t, NoNewItemsMessage, RenderBody(nil, nil))
}

func TestRenderBody_UpdatesLayoutUsesURLColumn(t *testing.T) {
	header := LayoutUpdates.Header()
	rows := [][]string{{"Sanctions", "https://www.fca.org.uk/p", "12/11/2024", "summary"}}
	assert.Equal(t,
		"Here are the latest articles from the FCA:\n\nPublished: 12/11/2024\nTitle: Sanctions\nLink: https://www.fca.org.uk/p",
		RenderBody(header, rows))
}

func TestNotifyFromTable_MissingCredentialsSkipsTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fca_news.csv")
	_, err := WriteTable(path, LayoutNews, []Record{{Date: "14/03/2025", Title: "x", Link: "https://example.com"}})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		unset  func(c *NotifierConfig)
		envVar string
	}{
		{"sender", func(c *NotifierConfig) { c.Sender = "" }, EnvSenderEmail},
		{"recipient", func(c *NotifierConfig) { c.Recipient = " " }, EnvReceiverEmail},
		{"password", func(c *NotifierConfig) { c.Password = "" }, EnvEmailPassword},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := completeNotifierConfig()
			tc.unset(&cfg)
			transport := &fakeTransport{}

			res := NewNotifierWithTransport(cfg, transport).NotifyFromTable(context.Background(), path)
			assert.True(t, res.Skipped)
			assert.False(t, res.Sent)
			assert.NoError(t, res.Err)
			assert.Equal(t, []string{tc.envVar}, res.Missing)
			assert.Equal(t, 0, transport.calls)
		})
	}
}

func TestNotifyFromTable_MissingEnvSkipsTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fca_news.csv")
	_, err := WriteTable(path, LayoutNews, nil)
	require.NoError(t, err)

	for _, unset := range []string{EnvSenderEmail, EnvReceiverEmail, EnvEmailPassword} {
		t.Run(unset, func(t *testing.T) {
			env := map[string]string{
				EnvSenderEmail:   "relay@example.com",
				EnvReceiverEmail: "team@example.com",
				EnvEmailPassword: "secret",
			}
			delete(env, unset)
			transport := &fakeTransport{}

			n := NewNotifierWithTransport(NotifierConfigFromEnv(func(k string) string { return env[k] }), transport)
			res := n.NotifyFromTable(context.Background(), path)
			assert.True(t, res.Skipped)
			assert.Equal(t, 0, transport.calls)
		})
	}
}

func TestNotifyExtraction_MarkupMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fca_news.csv")
	_, err := WriteTable(path, LayoutNews, nil)
	require.NoError(t, err)

	transport := &fakeTransport{}
	n := NewNotifierWithTransport(completeNotifierConfig(), transport)
	n.now = fixedNow

	res := n.NotifyExtraction(context.Background(), path, StatusMarkupMismatch)
	require.True(t, res.Sent)
	assert.Equal(t, "FCA News Update - 2025-03-14 (0 articles) [markup changed, 0 items parsed]", res.Subject)
	assert.Equal(t, MarkupMismatchMessage, string(transport.last.Text))

	res = n.NotifyExtraction(context.Background(), path, StatusEmpty)
	require.True(t, res.Sent)
	assert.Equal(t, "FCA News Update - 2025-03-14 (0 articles)", res.Subject)
	assert.Equal(t, NoNewItemsMessage, string(transport.last.Text))
}

func TestNotifyFromTable_Sends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fca_news.csv")
	_, err := WriteTable(path, LayoutNews, []Record{
		{Date: "14/03/2025", Title: "First", Link: "https://www.fca.org.uk/news/first"},
	})
	require.NoError(t, err)

	transport := &fakeTransport{}
	n := NewNotifierWithTransport(completeNotifierConfig(), transport)
	n.now = fixedNow

	res := n.NotifyFromTable(context.Background(), path)
	require.NoError(t, res.Err)
	assert.True(t, res.Sent)
	assert.Equal(t, 1, res.Records)
	assert.Equal(t, 1, transport.calls)

	msg := transport.last
	require.NotNil(t, msg)
	assert.Equal(t, "relay@example.com", msg.From)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.To)
	assert.Equal(t, "FCA News Update - 2025-03-14 (1 articles)", msg.Subject)
	assert.Contains(t, string(msg.Text), "Title: First")
}

func TestNotifyFromTable_EmptyTableSendsNoNewItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fca_news.csv")
	_, err := WriteTable(path, LayoutNews, nil)
	require.NoError(t, err)

	transport := &fakeTransport{}
	res := NewNotifierWithTransport(completeNotifierConfig(), transport).NotifyFromTable(context.Background(), path)
	require.True(t, res.Sent)
	assert.Equal(t, NoNewItemsMessage, string(transport.last.Text))
}

func TestNotifyFromTable_TransportErrorIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fca_news.csv")
	_, err := WriteTable(path, LayoutNews, nil)
	require.NoError(t, err)

	sendErr := errors.New("535 authentication failed")
	res := NewNotifierWithTransport(completeNotifierConfig(), &fakeTransport{err: sendErr}).
		NotifyFromTable(context.Background(), path)
	assert.False(t, res.Sent)
	assert.False(t, res.Skipped)
	assert.ErrorIs(t, res.Err, sendErr)
}

func TestNotifyFromTable_MissingTable(t *testing.T) {
	transport := &fakeTransport{}
	res := NewNotifierWithTransport(completeNotifierConfig(), transport).
		NotifyFromTable(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, res.Err)
	assert.Equal(t, 0, transport.calls)
}

func TestNotifierConfigFromEnv(t *testing.T) {
	env := map[string]string{
		EnvSenderEmail:   "  relay@example.com ",
		EnvReceiverEmail: "team@example.com",
	}
	cfg := NotifierConfigFromEnv(func(k string) string { return env[k] })

	assert.Equal(t, "relay@example.com", cfg.Sender)
	assert.Equal(t, DefaultSMTPHost, cfg.Host)
	assert.Equal(t, DefaultSMTPPort, cfg.Port)
	assert.False(t, cfg.Complete())
	assert.Equal(t, []string{EnvEmailPassword}, cfg.Missing())

	env[EnvEmailPassword] = "secret"
	assert.True(t, NotifierConfigFromEnv(func(k string) string { return env[k] }).Complete())
}
