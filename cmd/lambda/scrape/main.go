// =============================================================================
// Lambda: scrape
// =============================================================================
//
// スケジューラ（EventBridge など）から起動され、パイプラインを1回実行する
//
// 環境変数:
//   - MODE:           news（単一ソース + メール）/ updates（複数ソース）。デフォルト: news
//   - NEWS_URL:       newsモードの取得先（デフォルト: FCAニュース検索ページ）
//   - NEWS_PROFILE:   newsモードのプロファイル（デフォルト: fca-news-search）
//   - OUTPUT_PATH:    CSVの出力先（デフォルト: /tmp/fca_news.csv など）
//   - USER_AGENT:     User-Agentヘッダー（任意）
//   - SEND_EMAIL:     "false" でメール送信を無効化（デフォルト: true）
//   - SENDER_EMAIL:   送信元メールアドレス（任意、無ければ送信スキップ）
//   - RECEIVER_EMAIL: 送信先メールアドレス（任意）
//   - EMAIL_PASSWORD: Gmailアプリパスワード（任意）
//   - LOG_LEVEL:      debug/info/warn/error
//
// 取得失敗やメール送信失敗でもLambdaとしては成功を返す（スケジューラを止めない）。
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"

	"fca-relay/internal/pipeline"
)

// Response はLambdaレスポンス
type Response struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Records    int      `json:"records"`
	Sent       bool     `json:"sent"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event interface{}) (Response, error) {
	log.Println("Starting fca-relay scrape Lambda...")

	cfg, mode, modeErr := loadConfig(os.Getenv)
	if modeErr != nil {
		log.Printf("Invalid MODE, using %s: %v", mode, modeErr)
	}
	if err := pipeline.ConfigureLogging(cfg.Log.Level, os.Stderr); err != nil {
		log.Printf("Invalid LOG_LEVEL, using info: %v", err)
	}

	runner, _, err := pipeline.NewRunnerFromConfig(cfg)
	if err != nil {
		log.Printf("Error loading profiles: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	var res *pipeline.RunResult
	if mode == pipeline.LayoutUpdates {
		res, err = runner.RunUpdates(ctx, pipeline.DefaultUpdateSources, cfg.Output.PathFor(pipeline.LayoutUpdates))
	} else {
		src := pipeline.Source{URL: cfg.Input.URL, Profile: cfg.Input.Profile}
		res, err = runner.RunNews(ctx, src, cfg.Output.PathFor(pipeline.LayoutNews))
	}
	if err != nil {
		log.Printf("Run aborted: %v", err)
		return Response{StatusCode: 200, Message: "Run aborted: " + err.Error()}, nil
	}

	lines := res.StatusLines()
	for _, l := range lines {
		log.Println(l)
	}

	resp := Response{
		StatusCode: 200,
		Message:    strings.Join(lines, "; "),
		Records:    res.Records(),
	}
	if res.Notify != nil {
		resp.Sent = res.Notify.Sent
	}
	if modeErr != nil {
		resp.Warnings = append(resp.Warnings, modeErr.Error())
	}
	if res.Collect != nil {
		for _, rep := range res.Collect.Mismatched() {
			resp.Warnings = append(resp.Warnings, rep.URL+": markup mismatch ("+rep.Profile+")")
		}
	}
	return resp, nil
}

// loadConfig は環境変数から設定を読み込む
//
// MODEが未知の値の場合はnewsモードで続行し、ErrUnknownLayoutを返す（MODE未設定はエラーにしない）。
func loadConfig(getenv func(string) string) (*pipeline.PipelineConfig, pipeline.Layout, error) {
	cfg := pipeline.DefaultConfig()

	var modeErr error
	mode := pipeline.LayoutNews
	if v := getenv("MODE"); v != "" {
		parsed, err := pipeline.ParseLayout(v)
		if err != nil {
			modeErr = fmt.Errorf("MODE: %w", err)
		} else {
			mode = parsed
		}
	}

	if v := getenv("NEWS_URL"); v != "" {
		cfg.Input.URL = v
	}
	if v := getenv("NEWS_PROFILE"); v != "" {
		cfg.Input.Profile = v
	}
	if v := getenv("USER_AGENT"); v != "" {
		cfg.Input.UserAgent = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Lambdaで書き込めるのは /tmp のみ
	cfg.Output.Path = getenv("OUTPUT_PATH")
	if cfg.Output.Path == "" {
		cfg.Output.Path = filepath.Join(os.TempDir(), mode.DefaultFile())
	}

	cfg.Email.Send = mode == pipeline.LayoutNews
	if v := getenv("SEND_EMAIL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Email.Send = b && mode == pipeline.LayoutNews
		}
	}
	cfg.Email.Notifier = pipeline.NotifierConfigFromEnv(getenv)

	return cfg, mode, modeErr
}

func main() {
	lambda.Start(Handler)
}
