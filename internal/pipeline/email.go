// =============================================================================
// email.go - メール通知
// =============================================================================
//
// 書き出したCSVを読み直し、1行ずつ決まった形式のテキストにしてメール送信する。
//
// =============================================================================
// 【処理の流れ】
// =============================================================================
//
// 1. 認証情報が揃っているか確認（欠けていれば送信をスキップ。エラーではない）
// 2. CSVを読み込み、ヘッダー行を飛ばす
// 3. 各行を以下の形式に変換し、空行で連結する
//
//	Published: <date>
//	Title: <title>
//	Link: <link>
//
// 4. 0件の場合は NoNewItemsMessage を本文にする
// 5. 件名（日付と件数を含む）を付けて smtp.gmail.com:587 に STARTTLS で送信
//
// 送信失敗はNotifyResult.Errで返すだけで、実行全体は失敗させない。
// リトライは行わない。
//
// =============================================================================
// 【必要な環境変数】（NotifierConfigFromEnv で読み込む）
// =============================================================================
//
//	SENDER_EMAIL   - 送信元メールアドレス（Gmail）
//	RECEIVER_EMAIL - 送信先メールアドレス（カンマ区切りで複数可）
//	EMAIL_PASSWORD - Gmailアプリパスワード
//
// =============================================================================
package pipeline

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/jordan-wright/email"
)

const (
	// DefaultSMTPHost はGmailのSMTPリレー
	DefaultSMTPHost = "smtp.gmail.com"
	// DefaultSMTPPort はSTARTTLS用ポート
	DefaultSMTPPort = 587

	// NoNewItemsMessage は0件のときの本文
	NoNewItemsMessage = "No new FCA news items were found."

	// MarkupMismatchMessage はページ構造がプロファイルと一致しなかったときの本文
	MarkupMismatchMessage = "The FCA page markup did not match the scraping profile, so 0 items were parsed. The site layout may have changed."

	markupChangedSubject = " [markup changed, 0 items parsed]"

	emailIntro = "Here are the latest articles from the FCA:\n\n"
)

// =============================================================================
// 設定・構造体
// =============================================================================

// NotifierConfig はメール送信の設定を保持する
type NotifierConfig struct {
	Sender    string // 送信元メールアドレス
	Recipient string // 送信先メールアドレス（カンマ区切りで複数可）
	Password  string // Gmailアプリパスワード
	Host      string // SMTPサーバーホスト（空なら smtp.gmail.com）
	Port      int    // SMTPポート（0なら587）
}

// Missing は未設定の認証情報を環境変数名で返す
func (c NotifierConfig) Missing() []string {
	var out []string
	if strings.TrimSpace(c.Sender) == "" {
		out = append(out, EnvSenderEmail)
	}
	if strings.TrimSpace(c.Recipient) == "" {
		out = append(out, EnvReceiverEmail)
	}
	if c.Password == "" {
		out = append(out, EnvEmailPassword)
	}
	return out
}

// Complete は送信に必要な3項目が揃っているか
func (c NotifierConfig) Complete() bool {
	return len(c.Missing()) == 0
}

func (c NotifierConfig) host() string {
	if c.Host == "" {
		return DefaultSMTPHost
	}
	return c.Host
}

func (c NotifierConfig) port() int {
	if c.Port == 0 {
		return DefaultSMTPPort
	}
	return c.Port
}

func (c NotifierConfig) recipients() []string {
	var out []string
	for _, addr := range strings.Split(c.Recipient, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// MailTransport はメッセージをリレーへ渡す
type MailTransport interface {
	Send(ctx context.Context, msg *email.Email) error
}

// smtpTransport はSTARTTLS + PLAIN認証でSMTPリレーに送信する
type smtpTransport struct {
	host     string
	port     int
	username string
	password string
}

func (t *smtpTransport) Send(ctx context.Context, msg *email.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	auth := smtp.PlainAuth("", t.username, t.password, t.host)
	if err := msg.SendWithStartTLS(addr, auth, &tls.Config{ServerName: t.host}); err != nil {
		return fmt.Errorf("SMTP send failed: %w (check EMAIL_PASSWORD is a Gmail App Password)", err)
	}
	return nil
}

// Notifier はCSVテーブルの内容をメールで送る
type Notifier struct {
	config    NotifierConfig
	transport MailTransport
	now       func() time.Time
}

// NewNotifier はSMTPリレーを使うNotifierを作成する
func NewNotifier(cfg NotifierConfig) *Notifier {
	return NewNotifierWithTransport(cfg, &smtpTransport{
		host:     cfg.host(),
		port:     cfg.port(),
		username: cfg.Sender,
		password: cfg.Password,
	})
}

// NewNotifierWithTransport は任意のMailTransportを使うNotifierを作成する
func NewNotifierWithTransport(cfg NotifierConfig, transport MailTransport) *Notifier {
	return &Notifier{config: cfg, transport: transport, now: time.Now}
}

// NotifyResult は通知の結果
type NotifyResult struct {
	Sent    bool
	Skipped bool
	Missing []string // Skipped時、未設定だった環境変数
	Records int
	Subject string
	Err     error
}

// =============================================================================
// 送信
// =============================================================================

// NotifyFromTable はCSVを読み込んでメールを送る
//
// 認証情報が欠けている場合はトランスポートを呼ばずにSkippedを返す。
func (n *Notifier) NotifyFromTable(ctx context.Context, path string) NotifyResult {
	return n.NotifyExtraction(ctx, path, StatusMatched)
}

// NotifyExtraction はNotifyFromTableと同じだが、抽出ステータスを件名と本文に反映する
//
// StatusMarkupMismatchの場合、0件を「新着なし」ではなく「HTMLが変わった」として知らせる。
func (n *Notifier) NotifyExtraction(ctx context.Context, path string, status ExtractStatus) NotifyResult {
	if !n.config.Complete() {
		missing := n.config.Missing()
		logger.Info("email credentials not configured; skipping email", "missing", strings.Join(missing, ","))
		return NotifyResult{Skipped: true, Missing: missing}
	}

	header, rows, err := ReadTable(path)
	if err != nil {
		logger.Error("failed to read table for email", "path", path, "error", err)
		return NotifyResult{Err: err}
	}

	msg := n.Compose(header, rows, status)
	res := NotifyResult{Records: len(rows), Subject: msg.Subject}

	if err := n.transport.Send(ctx, msg); err != nil {
		logger.Error("failed to send email", "error", err)
		res.Err = err
		return res
	}

	logger.Info("email sent", "to", n.config.Recipient, "records", len(rows))
	res.Sent = true
	return res
}

// Compose はメールメッセージを組み立てる
//
// 件名の例: "FCA News Update - 2026-01-05 (15 articles)"
// StatusMarkupMismatchの場合は件名に markupChangedSubject を付け、本文の先頭を
// MarkupMismatchMessage にする。
func (n *Notifier) Compose(header []string, rows [][]string, status ExtractStatus) *email.Email {
	msg := email.NewEmail()
	msg.From = n.config.Sender
	msg.To = n.config.recipients()
	msg.Subject = fmt.Sprintf("FCA News Update - %s (%d articles)",
		n.now().Format("2006-01-02"), len(rows))

	body := RenderBody(header, rows)
	if status == StatusMarkupMismatch {
		msg.Subject += markupChangedSubject
		if len(rows) == 0 {
			body = MarkupMismatchMessage
		} else {
			body = MarkupMismatchMessage + "\n\n" + body
		}
	}
	msg.Text = []byte(body)
	return msg
}

// =============================================================================
// 本文生成
// =============================================================================

// RenderBody はテーブルの行をメール本文に変換する
//
// 列はヘッダー名で探す（大文字小文字は区別しない）。Link列が無い
// テーブル（updates）はURL列をリンクとして使う。
func RenderBody(header []string, rows [][]string) string {
	if len(rows) == 0 {
		return NoNewItemsMessage
	}

	dateCol := columnIndex(header, "Date")
	titleCol := columnIndex(header, "Title")
	linkCol := columnIndex(header, "Link")
	if linkCol < 0 {
		linkCol = columnIndex(header, "URL")
	}

	blocks := make([]string, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, fmt.Sprintf("Published: %s\nTitle: %s\nLink: %s",
			cell(row, dateCol), cell(row, titleCol), cell(row, linkCol)))
	}
	return emailIntro + strings.Join(blocks, "\n\n")
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
