// =============================================================================
// config.go - パイプライン設定
// =============================================================================
//
// 【設定グループ】
//   - InputConfig:     取得元・プロファイル設定
//   - OutputConfig:    出力設定
//   - EmailModeConfig: メール設定
//   - LogConfig:       ログ設定
//
// CLIフラグ（cmd/fca-relay）とLambdaの環境変数（cmd/lambda/scrape）の
// どちらからもこの構造体を組み立てる。
//
// =============================================================================
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// 環境変数名
const (
	EnvSenderEmail   = "SENDER_EMAIL"
	EnvReceiverEmail = "RECEIVER_EMAIL"
	EnvEmailPassword = "EMAIL_PASSWORD"
)

// DefaultNewsURL は単一ソースモードの取得先（ニュース・プレスリリースの検索結果）
const DefaultNewsURL = "https://www.fca.org.uk/news/search-results?n_search_term&category=news%20stories%2Cpress%20releases&sort_by=dmetaZ"

// DefaultNewsProfile は単一ソースモードの既定プロファイル
const DefaultNewsProfile = "fca-news-search"

// DefaultUpdateSources は複数ソースモードの既定ソース（この順で取得する）
//
// PDFへのリンクは取得されずにスキップされる。
var DefaultUpdateSources = []Source{
	{URL: "https://www.fca.org.uk/publications/policy-statements/ps24-17-financial-crime-guide-updates", Profile: "fca-publication"},
	{URL: "https://www.fca.org.uk/publication/policy/ps24-17.pdf"},
	{URL: "https://www.legislation.gov.uk/new/uksi"},
}

// ErrNoSources はソースが1件も無い場合のエラー
var ErrNoSources = errors.New("at least one source is required")

// =============================================================================
// 設定構造体
// =============================================================================

// PipelineConfig はパイプラインの全設定を保持する
type PipelineConfig struct {
	Input  InputConfig
	Output OutputConfig
	Email  EmailModeConfig
	Log    LogConfig
}

// InputConfig は取得元に関する設定
type InputConfig struct {
	// URL は単一ソースモードの取得先
	URL string

	// Profile は単一ソースモードで使うプロファイル名
	Profile string

	// SourcesFile が指定された場合、複数ソースモードのソース一覧をYAMLから読む
	SourcesFile string

	// RulesFile が指定された場合、既定プロファイルの代わりに読み込む
	RulesFile string

	// UserAgent はリクエストのUser-Agent（空ならライブラリ既定）
	UserAgent string

	// Limit はソースあたりの最大件数（0で無制限）
	Limit int
}

// OutputConfig は出力に関する設定
type OutputConfig struct {
	// Path は出力CSVのパス（空ならレイアウトの既定ファイル名）
	Path string

	// Print がtrueの場合、収集結果を表形式で標準出力に表示する
	Print bool
}

// PathFor はレイアウトに応じた出力パスを返す
func (c OutputConfig) PathFor(l Layout) string {
	if c.Path != "" {
		return c.Path
	}
	return l.DefaultFile()
}

// EmailModeConfig はメール送信に関する設定
type EmailModeConfig struct {
	// Send がtrueの場合、書き出し後にメールを送る
	Send bool

	Notifier NotifierConfig
}

// LogConfig はログに関する設定
type LogConfig struct {
	Level string
}

// DefaultConfig は既定値で埋めた設定を返す
func DefaultConfig() *PipelineConfig {
	return &PipelineConfig{
		Input: InputConfig{
			URL:       DefaultNewsURL,
			Profile:   DefaultNewsProfile,
			UserAgent: DefaultUserAgent,
		},
		Email: EmailModeConfig{Send: true},
		Log:   LogConfig{Level: "info"},
	}
}

// NotifierConfigFromEnv は環境変数から認証情報を読み込む
//
// getenvにはos.Getenvを渡す（テストでは差し替える）。
func NotifierConfigFromEnv(getenv func(string) string) NotifierConfig {
	return NotifierConfig{
		Sender:    strings.TrimSpace(getenv(EnvSenderEmail)),
		Recipient: strings.TrimSpace(getenv(EnvReceiverEmail)),
		Password:  getenv(EnvEmailPassword),
		Host:      DefaultSMTPHost,
		Port:      DefaultSMTPPort,
	}
}

// =============================================================================
// ソース一覧
// =============================================================================

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources はYAMLファイルからソース一覧を読み込む
//
//	sources:
//	  - url: https://www.fca.org.uk/publications/...
//	    profile: fca-publication
//	  - url: https://www.legislation.gov.uk/new/uksi
func LoadSources(path string) ([]Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources %s: %w", path, err)
	}
	var f sourcesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse sources %s: %w", path, err)
	}
	out := make([]Source, 0, len(f.Sources))
	for _, s := range f.Sources {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSources)
	}
	return out, nil
}
