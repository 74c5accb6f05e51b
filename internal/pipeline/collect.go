// =============================================================================
// collect.go - ソース巡回と集約
// =============================================================================
//
// ソース（URL + プロファイル）を1件ずつ順番に取得・抽出し、
// 結果をソース順 → ページ内の出現順で1つのスライスにまとめる。
// マージ・重複排除・日付ソートは行わない。
//
// 【2つのモード】
//   - CollectSingle:      単一ソース。取得失敗時は実行全体を中断（エラーを返す）
//   - CollectFromSources: 複数ソース。失敗したソースはログに残してスキップ
//
// 【スキップ条件（複数ソース）】
//   - パスが .pdf などの非HTMLファイル → フェッチもしない
//   - どのプロファイルのホストにも一致しない → フェッチもしない
//   - 取得失敗（通信エラー・2xx以外）
//
// =============================================================================
package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Skip reasons.
var (
	ErrSkippedFile     = errors.New("non-HTML file link skipped")
	ErrUnsupportedHost = errors.New("no matching profile for host")
)

// Source は取得対象の1ページ
//
// Profileが空の場合、URLのホストから最初に一致したプロファイルを使う。
type Source struct {
	URL     string `yaml:"url"`
	Profile string `yaml:"profile,omitempty"`
}

// CollectResult は収集結果とソースごとの処理結果を保持する
type CollectResult struct {
	Records []Record
	Reports []SourceReport
}

// Mismatched はHTML構造の不一致が疑われるソースを返す
func (r *CollectResult) Mismatched() []SourceReport {
	var out []SourceReport
	for _, rep := range r.Reports {
		if rep.Err == nil && rep.Status == StatusMarkupMismatch {
			out = append(out, rep)
		}
	}
	return out
}

// Failed はスキップされたソースを返す
func (r *CollectResult) Failed() []SourceReport {
	var out []SourceReport
	for _, rep := range r.Reports {
		if rep.Err != nil {
			out = append(out, rep)
		}
	}
	return out
}

// Collector はFetcherとプロファイル集合を使ってソースを処理する
type Collector struct {
	fetcher PageFetcher
	rules   *RuleSet
	limit   int
}

// NewCollector は新しいCollectorを作成する
//
// limitはソースあたりの最大レコード数（0以下は無制限）。
func NewCollector(fetcher PageFetcher, rules *RuleSet, limit int) *Collector {
	return &Collector{fetcher: fetcher, rules: rules, limit: limit}
}

// resolveRule はソースに使うプロファイルを決める
//
// 明示指定されたプロファイルでも、ホストが一致しなければ使わない。
func (c *Collector) resolveRule(src Source) (Rule, error) {
	if isSkippedFileURL(src.URL) {
		return Rule{}, fmt.Errorf("%w: %s", ErrSkippedFile, src.URL)
	}
	host := hostOf(src.URL)
	if src.Profile == "" {
		rule, ok := c.rules.ForURL(src.URL)
		if !ok {
			return Rule{}, fmt.Errorf("%w: %q (%s)", ErrUnsupportedHost, host, src.URL)
		}
		return rule, nil
	}
	rule, err := c.rules.Lookup(src.Profile)
	if err != nil {
		return Rule{}, err
	}
	if !rule.MatchesHost(host) {
		return Rule{}, fmt.Errorf("%w: %q does not serve %q", ErrUnsupportedHost, rule.Name, host)
	}
	return rule, nil
}

// collectOne は1ソースを処理する。エラー時もReportは埋めて返す
func (c *Collector) collectOne(ctx context.Context, src Source) ([]Record, SourceReport) {
	rep := SourceReport{URL: src.URL, Profile: src.Profile}

	rule, err := c.resolveRule(src)
	if err != nil {
		rep.Err = err
		return nil, rep
	}
	rep.Profile = rule.Name

	body, err := c.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		rep.Err = err
		return nil, rep
	}

	ex, err := Extract(body, src.URL, rule, c.limit)
	if err != nil {
		rep.Err = fmt.Errorf("%w: %v", ErrMarkupMismatch, err)
		rep.Status = StatusMarkupMismatch
		return nil, rep
	}

	rep.Status = ex.Status
	rep.Records = len(ex.Records)
	if err := ex.Err(); err != nil {
		logger.Warn("treating page as zero records", "url", src.URL, "profile", rule.Name,
			"containers", ex.Containers, "skipped", ex.Skipped, "error", err)
	} else {
		logger.Info("extracted records", "url", src.URL, "profile", rule.Name,
			"records", len(ex.Records), "status", ex.Status)
	}
	return ex.Records, rep
}

// CollectSingle は単一ソースを処理する
//
// 取得・プロファイル解決に失敗した場合はエラーを返し、呼び出し側は実行を中断する。
// HTML構造の不一致はエラーではなく、Reportのステータスで知らせる。
func (c *Collector) CollectSingle(ctx context.Context, src Source) (*CollectResult, error) {
	recs, rep := c.collectOne(ctx, src)
	result := &CollectResult{Records: recs, Reports: []SourceReport{rep}}
	if rep.Err != nil {
		return result, rep.Err
	}
	return result, nil
}

// CollectFromSources は複数ソースを指定順に処理する
//
// 失敗したソースは警告ログを出してスキップし、残りのソースの処理を続ける。
func (c *Collector) CollectFromSources(ctx context.Context, sources []Source) *CollectResult {
	result := &CollectResult{}

	for _, src := range sources {
		if ctx.Err() != nil {
			result.Reports = append(result.Reports, SourceReport{URL: src.URL, Profile: src.Profile,
				Err: fmt.Errorf("%w: %v", ErrFetchFailed, ctx.Err())})
			continue
		}

		recs, rep := c.collectOne(ctx, src)
		result.Reports = append(result.Reports, rep)
		if rep.Err != nil {
			logger.Warn("source skipped", "url", src.URL, "reason", rep.Outcome(), "error", rep.Err)
			continue
		}
		result.Records = append(result.Records, recs...)
	}

	if failed := result.Failed(); len(failed) > 0 {
		logger.Warn("some sources were skipped",
			"skipped", len(failed), "sources", len(sources), "records", len(result.Records))
	}
	return result
}
