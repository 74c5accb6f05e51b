// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルはfca-relay全体で使用するデータ構造（型）を定義します。
//
// 【このファイルで定義している型】
//   - Record:        1件の記事・公表物（日付・タイトル・リンク・要約）
//   - Layout:        CSVテーブルの列構成（news / updates）
//   - Extraction:    1ページ分の抽出結果と判定ステータス
//   - SourceReport:  ソース1件ごとの処理結果
//
// =============================================================================
package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Record - 抽出された1件の記事
// -----------------------------------------------------------------------------
//
// 一度生成したRecordは変更しない。重複排除は行わない
// （同じタイトル・リンクが複数回出てきてもそのまま残す）。
//
// 【フィールドの説明】
//
//	Date:    公開日（ページ上のテキスト、またはDD/MM/YYYYに整形した文字列）
//	Title:   記事タイトル（プレーンテキスト）
//	Link:    記事の絶対URL
//	URL:     取得元ページのURL（複数ソースモードのみ）
//	Summary: 段落テキストを連結した要約（複数ソースモードのみ）
type Record struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	URL     string `json:"url,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// -----------------------------------------------------------------------------
// Layout - テーブルの列構成
// -----------------------------------------------------------------------------

// Layout はCSVテーブルの列構成を表す
type Layout string

const (
	// LayoutNews は単一ソース（ニュース検索ページ）用: Date,Title,Link
	LayoutNews Layout = "news"
	// LayoutUpdates は複数ソース用: Title,URL,Date,Summary
	LayoutUpdates Layout = "updates"
)

// ErrUnknownLayout は未知のレイアウト名が指定された場合のエラー
var ErrUnknownLayout = errors.New("unknown table layout")

// ParseLayout はレイアウト名をLayoutに変換する
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case LayoutNews:
		return LayoutNews, nil
	case LayoutUpdates:
		return LayoutUpdates, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLayout, s)
}

// Header はヘッダー行（列名）を固定順で返す
func (l Layout) Header() []string {
	if l == LayoutUpdates {
		return []string{"Title", "URL", "Date", "Summary"}
	}
	return []string{"Date", "Title", "Link"}
}

// Row はRecordをヘッダーと同じ順序の1行に変換する
func (l Layout) Row(r Record) []string {
	if l == LayoutUpdates {
		return []string{r.Title, r.URL, r.Date, r.Summary}
	}
	return []string{r.Date, r.Title, r.Link}
}

// DefaultFile はレイアウトごとの既定の出力ファイル名
func (l Layout) DefaultFile() string {
	if l == LayoutUpdates {
		return "fca_updates.csv"
	}
	return "fca_news.csv"
}

// -----------------------------------------------------------------------------
// Extraction - 抽出結果
// -----------------------------------------------------------------------------
//
// 「セレクタが一致しなかった（サイトのHTMLが変わった）」と
// 「本当に新着がない」を区別するためにStatusを持つ。
//
//	StatusMatched:        1件以上のRecordを抽出できた
//	StatusEmpty:          ページの目印（landmark）はあるがレコードが0件
//	StatusMarkupMismatch: 目印が見つからない、またはコンテナはあるが
//	                      必須フィールドが全件欠けていた
type ExtractStatus int

const (
	StatusMatched ExtractStatus = iota
	StatusEmpty
	StatusMarkupMismatch
)

func (s ExtractStatus) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusEmpty:
		return "empty"
	case StatusMarkupMismatch:
		return "markup-mismatch"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Extraction は1ページ分の抽出結果
type Extraction struct {
	Records    []Record
	Status     ExtractStatus
	Containers int // マッチしたコンテナ（またはフィードアイテム）の数
	Skipped    int // 必須フィールド欠落でスキップしたコンテナの数
}

// -----------------------------------------------------------------------------
// SourceReport - ソース単位の処理結果
// -----------------------------------------------------------------------------

// SourceReport は1ソース分の処理結果
//
// Errがnilでない場合、そのソースはスキップされている。
// Errは ErrSkippedFile / ErrUnsupportedHost / ErrUnknownProfile / ErrFetchFailed
// のいずれかをラップしている（errors.Isで判定）。
type SourceReport struct {
	URL     string
	Profile string
	Status  ExtractStatus
	Records int
	Err     error
}

// Outcome はログ・コンソール表示用の短い結果文字列を返す
func (r SourceReport) Outcome() string {
	switch {
	case r.Err == nil:
		return r.Status.String()
	case errors.Is(r.Err, ErrSkippedFile):
		return "skipped-file"
	case errors.Is(r.Err, ErrUnsupportedHost):
		return "unsupported-host"
	case errors.Is(r.Err, ErrUnknownProfile):
		return "unknown-profile"
	case errors.Is(r.Err, ErrFetchFailed):
		return "fetch-failed"
	case errors.Is(r.Err, ErrMarkupMismatch):
		return "markup-mismatch"
	}
	return "error"
}
