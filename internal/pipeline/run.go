// =============================================================================
// run.go - パイプライン実行
// =============================================================================
//
//   ┌─────────┐    ┌─────────┐    ┌─────────┐    ┌─────────┐    ┌─────────┐
//   │ Fetch   │ -> │ Extract │ -> │ Collect │ -> │ Write   │ -> │ Notify  │
//   └─────────┘    └─────────┘    └─────────┘    └─────────┘    └─────────┘
//
// 各段階を上から順に1回だけ実行する。戻りはない。
// Notifyは単一ソースモードのみ（Notifierが設定されている場合）。
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
)

// RunResult は1回の実行結果
type RunResult struct {
	Layout  Layout
	Table   WriteResult
	Collect *CollectResult
	Notify  *NotifyResult
}

// Records は書き出したレコード数
func (r *RunResult) Records() int {
	return r.Table.Rows
}

// Runner はCollectorとNotifierをつないで実行する
type Runner struct {
	collector *Collector
	notifier  *Notifier
}

// NewRunner は新しいRunnerを作成する。notifierがnilならメールは送らない
func NewRunner(collector *Collector, notifier *Notifier) *Runner {
	return &Runner{collector: collector, notifier: notifier}
}

// NewRunnerFromConfig は設定からFetcher・プロファイル・Notifierを組み立てる
func NewRunnerFromConfig(cfg *PipelineConfig) (*Runner, *RuleSet, error) {
	rules, err := LoadRules(cfg.Input.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	collector := NewCollector(NewFetcher(cfg.Input.UserAgent), rules, cfg.Input.Limit)

	var notifier *Notifier
	if cfg.Email.Send {
		notifier = NewNotifier(cfg.Email.Notifier)
	}
	return NewRunner(collector, notifier), rules, nil
}

// RunNews は単一ソースモードを実行する
//
// ページの取得に失敗した場合はCSVを書かず、メールも送らずにエラーを返す。
func (r *Runner) RunNews(ctx context.Context, src Source, path string) (*RunResult, error) {
	collected, err := r.collector.CollectSingle(ctx, src)
	if err != nil {
		logger.Error("failed to retrieve page", "url", src.URL, "error", err)
		return &RunResult{Layout: LayoutNews, Collect: collected}, err
	}

	wr, err := WriteTable(path, LayoutNews, collected.Records)
	if err != nil {
		return &RunResult{Layout: LayoutNews, Collect: collected}, err
	}
	out := &RunResult{Layout: LayoutNews, Table: wr, Collect: collected}

	if r.notifier != nil {
		nr := r.notifier.NotifyExtraction(ctx, wr.Path, collected.Reports[0].Status)
		out.Notify = &nr
	}
	return out, nil
}

// RunUpdates は複数ソースモードを実行する
//
// 失敗したソースはスキップされ、残りの結果だけでCSVを書く。
func (r *Runner) RunUpdates(ctx context.Context, sources []Source, path string) (*RunResult, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	collected := r.collector.CollectFromSources(ctx, sources)

	wr, err := WriteTable(path, LayoutUpdates, collected.Records)
	if err != nil {
		return &RunResult{Layout: LayoutUpdates, Collect: collected}, err
	}
	return &RunResult{Layout: LayoutUpdates, Table: wr, Collect: collected}, nil
}

// StatusLines は利用者向けのステータス行を返す
func (r *RunResult) StatusLines() []string {
	var lines []string
	if r.Table.Path != "" {
		lines = append(lines, fmt.Sprintf("Data saved to %s (%d records)", r.Table.Path, r.Table.Rows))
	}
	if r.Collect != nil {
		for _, rep := range r.Collect.Mismatched() {
			lines = append(lines, fmt.Sprintf("Warning: %s did not match profile %s; the site markup may have changed", rep.URL, rep.Profile))
		}
		for _, rep := range r.Collect.Failed() {
			lines = append(lines, fmt.Sprintf("Skipped %s: %s", rep.URL, rep.Outcome()))
		}
	}
	if n := r.Notify; n != nil {
		switch {
		case n.Skipped:
			lines = append(lines, "Email credentials not found in environment variables. Skipping email.")
		case n.Err != nil:
			lines = append(lines, fmt.Sprintf("Failed to send email: %v", n.Err))
		case n.Sent:
			lines = append(lines, "Email sent successfully!")
		}
	}
	return lines
}
