// =============================================================================
// rules.go - マッチングルール（プロファイル）
// =============================================================================
//
// どのHTMLノードを1件のレコードとみなし、どの子ノードから日付・タイトル・
// リンク・要約を取り出すかを宣言的に記述する。
//
// サイトのHTMLが変わるたびにコードを書き換えるのではなく、
// プロファイル（YAML）を差し替えて対応する。
//
// 【プロファイルの種類（kind）】
//   - list:     コンテナ要素を繰り返し、子セレクタで各フィールドを取る
//   - sections: 見出し要素でレコードを区切り、後続の段落を日付・要約とする
//   - feed:     RSS/Atomフィード（gofeedでパース）
//
// 【既定のプロファイル】
//
//	default_rules.yaml をバイナリに埋め込んでいる。
//	--rules <file> で丸ごと置き換え可能。
//
// =============================================================================
package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// RuleKind はプロファイルの種類
type RuleKind string

const (
	KindList     RuleKind = "list"
	KindSections RuleKind = "sections"
	KindFeed     RuleKind = "feed"
)

// Rule validation errors.
var (
	ErrNoRules              = errors.New("at least one profile is required")
	ErrRuleMissingName      = errors.New("profile name is required")
	ErrRuleDuplicateName    = errors.New("profile name must be unique")
	ErrRuleMissingHosts     = errors.New("profile hosts must not be empty")
	ErrRuleInvalidKind      = errors.New("profile kind must be one of: list, sections, feed")
	ErrRuleMissingLandmark  = errors.New("landmark selector is required for html profiles")
	ErrRuleMissingContainer = errors.New("container selector is required for list profiles")
	ErrRuleMissingTitle     = errors.New("title selector is required for list profiles")
	ErrRuleMissingHeading   = errors.New("heading and body selectors are required for sections profiles")

	// ErrUnknownProfile は存在しないプロファイル名が指定された場合のエラー
	ErrUnknownProfile = errors.New("unknown matching profile")
)

// FieldRule は1フィールドの取り出し方
//
//	Selector: コンテナ内で最初に一致した要素を使う
//	Attr:     指定時は属性値、未指定時は要素のテキスト
//	Optional: trueなら欠けていてもレコードを捨てない
type FieldRule struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
}

// IsSet はセレクタが指定されているか
func (f FieldRule) IsSet() bool {
	return strings.TrimSpace(f.Selector) != ""
}

// Rule は1サイト（1リビジョン）分のマッチングルール
type Rule struct {
	Name    string   `yaml:"name"`
	Hosts   []string `yaml:"hosts"`
	Kind    RuleKind `yaml:"kind"`
	BaseURL string   `yaml:"base_url,omitempty"`

	// Landmark はページ構造が想定どおりであることを示す要素。
	// これが見つからなければ「HTMLが変わった」と判定する。
	Landmark  string `yaml:"landmark,omitempty"`
	Container string `yaml:"container,omitempty"`

	Title   FieldRule `yaml:"title,omitempty"`
	Link    FieldRule `yaml:"link,omitempty"`
	Date    FieldRule `yaml:"date,omitempty"`
	Summary FieldRule `yaml:"summary,omitempty"`

	// DateFormat を指定すると、ISO-8601の日付をこのGoレイアウトで整形する
	DateFormat string `yaml:"date_format,omitempty"`

	// sections 用
	Heading    string `yaml:"heading,omitempty"`
	Body       string `yaml:"body,omitempty"`
	DatePrefix string `yaml:"date_prefix,omitempty"`
}

// Validate はプロファイルの必須項目を検証する
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrRuleMissingName
	}
	if len(r.Hosts) == 0 {
		return fmt.Errorf("%s: %w", r.Name, ErrRuleMissingHosts)
	}
	for _, h := range r.Hosts {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("%s: %w", r.Name, ErrRuleMissingHosts)
		}
	}

	switch r.Kind {
	case KindList:
		if r.Landmark == "" {
			return fmt.Errorf("%s: %w", r.Name, ErrRuleMissingLandmark)
		}
		if r.Container == "" {
			return fmt.Errorf("%s: %w", r.Name, ErrRuleMissingContainer)
		}
		if !r.Title.IsSet() {
			return fmt.Errorf("%s: %w", r.Name, ErrRuleMissingTitle)
		}
	case KindSections:
		if r.Landmark == "" {
			return fmt.Errorf("%s: %w", r.Name, ErrRuleMissingLandmark)
		}
		if r.Heading == "" || r.Body == "" {
			return fmt.Errorf("%s: %w", r.Name, ErrRuleMissingHeading)
		}
	case KindFeed:
	default:
		return fmt.Errorf("%s: %w (got %q)", r.Name, ErrRuleInvalidKind, r.Kind)
	}
	return nil
}

// MatchesHost はホストがプロファイルのいずれかのホスト文字列を含むか判定する
func (r Rule) MatchesHost(host string) bool {
	host = strings.ToLower(host)
	if host == "" {
		return false
	}
	for _, h := range r.Hosts {
		if strings.Contains(host, strings.ToLower(strings.TrimSpace(h))) {
			return true
		}
	}
	return false
}

// =============================================================================
// RuleSet
// =============================================================================

// RuleSet は順序付きのプロファイル集合
type RuleSet struct {
	rules []Rule
}

type rulesFile struct {
	Profiles []Rule `yaml:"profiles"`
}

// ParseRules はYAMLからプロファイル集合を読み込み、検証する
func ParseRules(data []byte) (*RuleSet, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	return NewRuleSet(f.Profiles...)
}

// NewRuleSet はプロファイルを検証してRuleSetを作成する
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%s: %w", r.Name, ErrRuleDuplicateName)
		}
		seen[r.Name] = true
	}
	return &RuleSet{rules: append([]Rule(nil), rules...)}, nil
}

// DefaultRules は埋め込みの既定プロファイルを返す
func DefaultRules() (*RuleSet, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules はファイルからプロファイルを読み込む。pathが空なら既定プロファイル
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	return ParseRules(b)
}

// Rules はプロファイルを定義順で返す（コピー）
func (rs *RuleSet) Rules() []Rule {
	return append([]Rule(nil), rs.rules...)
}

// Lookup は名前でプロファイルを探す
func (rs *RuleSet) Lookup(name string) (Rule, error) {
	for _, r := range rs.rules {
		if r.Name == name {
			return r, nil
		}
	}
	return Rule{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// ForURL はURLのホストに一致する最初のプロファイルを返す
func (rs *RuleSet) ForURL(rawURL string) (Rule, bool) {
	host := hostOf(rawURL)
	for _, r := range rs.rules {
		if r.MatchesHost(host) {
			return r, true
		}
	}
	return Rule{}, false
}
