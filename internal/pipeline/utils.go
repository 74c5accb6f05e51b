// =============================================================================
// utils.go - ユーティリティ関数
// =============================================================================
//
// このファイルはシステム全体で使用する汎用的なヘルパー関数を提供します。
//
// 【このファイルで提供する機能】
//   - 文字列操作: 空白正規化、表示幅での切り詰め
//   - URL操作: 相対URLの解決、ホスト抽出、非HTMLファイルの判定
//   - 日付操作: ISO-8601 から表示用フォーマットへの変換
//   - テキスト抽出: HTML断片からプレーンテキストへの変換
//
// =============================================================================
package pipeline

import (
	"html"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/microcosm-cc/bluemonday"
)

// -----------------------------------------------------------------------------
// 文字列操作関数
// -----------------------------------------------------------------------------

// normalizeWhitespace は文字列内の連続する空白を単一スペースに正規化する
//
// 使用例:
//
//	normalizeWhitespace("  hello   world  ")  // "hello world"
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateDisplay は表示幅（全角=2）でmaxWidthを超える場合に"..."を付けて切り詰める
//
// コンソール表とメールのプレビューで使う。
func truncateDisplay(s string, maxWidth int) string {
	if maxWidth <= 0 || runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// -----------------------------------------------------------------------------
// URL操作関数
// -----------------------------------------------------------------------------

// resolveURL は相対URLを絶対URLに変換
//
// ベースURLと相対URL（href）から完全な絶対URLを生成する。
// 既に絶対URLの場合はそのまま返す。
//
//	resolveURL("https://www.fca.org.uk", "/news/press-releases/x")
//	  // "https://www.fca.org.uk/news/press-releases/x"
func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// hostOf はURLのホスト部分（小文字）を返す。パースできなければ空文字
func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// skippedFileExtensions はフェッチせずに読み飛ばすリンクの拡張子
var skippedFileExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".zip":  true,
}

// isSkippedFileURL はURLのパスが非HTMLファイル（PDFなど）を指すか判定する
//
// クエリ文字列・フラグメントは無視し、拡張子は大文字小文字を区別しない。
func isSkippedFileURL(raw string) bool {
	p := raw
	if u, err := url.Parse(strings.TrimSpace(raw)); err == nil {
		p = u.Path
	}
	return skippedFileExtensions[strings.ToLower(path.Ext(p))]
}

// -----------------------------------------------------------------------------
// 日付操作関数
// -----------------------------------------------------------------------------

// isoLayouts は機械可読なdatetime属性で見かける形式
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// reformatISODate はISO-8601の日付文字列をlayoutで整形し直す
//
// パースできない場合は元の文字列をそのまま返す（ページ上のテキストを優先）。
//
//	reformatISODate("2025-03-14T09:30:00Z", "02/01/2006")  // "14/03/2025"
func reformatISODate(value, layout string) string {
	value = strings.TrimSpace(value)
	if layout == "" || value == "" {
		return value
	}
	for _, l := range isoLayouts {
		if t, err := time.Parse(l, value); err == nil {
			return t.Format(layout)
		}
	}
	return value
}

// -----------------------------------------------------------------------------
// テキスト抽出
// -----------------------------------------------------------------------------

// strictPolicy は全タグを除去するポリシー（フィード本文のテキスト化に使用）
// タグを除去した位置には空白を入れ、段落同士が連結されないようにする。
var strictPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// htmlToText はHTML断片からタグを取り除き、エンティティを戻して空白を正規化する
func htmlToText(fragment string) string {
	if fragment == "" {
		return ""
	}
	text := strictPolicy.Sanitize(fragment)
	return normalizeWhitespace(html.UnescapeString(text))
}
