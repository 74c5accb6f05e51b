// =============================================================================
// Lambda: send-email
// =============================================================================
//
// 書き出し済みのCSVテーブルを読み込み、メール送信するLambda関数
// （scrape Lambdaと別スケジュールで送りたい場合に使う）
//
// 環境変数:
//   - TABLE_PATH:     送信するCSV（デフォルト: /tmp/fca_news.csv）
//   - SENDER_EMAIL:   送信元メールアドレス
//   - RECEIVER_EMAIL: 送信先メールアドレス（カンマ区切りで複数可）
//   - EMAIL_PASSWORD: Gmailアプリパスワード
//   - LOG_LEVEL:      debug/info/warn/error
//
// 認証情報が欠けている場合は送信せずに成功を返す。
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"

	"fca-relay/internal/pipeline"
)

// LambdaConfig は環境変数から読み込む設定
type LambdaConfig struct {
	TablePath string
	LogLevel  string
	Notifier  pipeline.NotifierConfig
}

// Response はLambdaレスポンス
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Records    int    `json:"records"`
	Sent       bool   `json:"sent"`
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event interface{}) (Response, error) {
	log.Println("Starting send-email Lambda...")

	cfg := loadConfig(os.Getenv)
	if err := pipeline.ConfigureLogging(cfg.LogLevel, os.Stderr); err != nil {
		log.Printf("Invalid LOG_LEVEL, using info: %v", err)
	}

	res := pipeline.NewNotifier(cfg.Notifier).NotifyFromTable(ctx, cfg.TablePath)
	return toResponse(cfg, res), nil
}

func toResponse(cfg LambdaConfig, res pipeline.NotifyResult) Response {
	switch {
	case res.Skipped:
		msg := "Email credentials not found (" + strings.Join(res.Missing, ", ") + "). Skipping email."
		log.Println(msg)
		return Response{StatusCode: 200, Message: msg}
	case res.Err != nil:
		log.Printf("Error sending email: %v", res.Err)
		return Response{StatusCode: 500, Message: res.Err.Error(), Records: res.Records}
	}

	log.Printf("Email sent successfully to %s", cfg.Notifier.Recipient)
	return Response{
		StatusCode: 200,
		Message:    fmt.Sprintf("Successfully sent %d records from %s to %s", res.Records, cfg.TablePath, cfg.Notifier.Recipient),
		Records:    res.Records,
		Sent:       true,
	}
}

// loadConfig は環境変数から設定を読み込む
func loadConfig(getenv func(string) string) LambdaConfig {
	tablePath := getenv("TABLE_PATH")
	if tablePath == "" {
		tablePath = filepath.Join(os.TempDir(), pipeline.LayoutNews.DefaultFile())
	}
	return LambdaConfig{
		TablePath: tablePath,
		LogLevel:  getenv("LOG_LEVEL"),
		Notifier:  pipeline.NotifierConfigFromEnv(getenv),
	}
}

func main() {
	lambda.Start(Handler)
}
