// =============================================================================
// main.go - fca-relay のエントリーポイント
// =============================================================================
//
// FCA（金融行為規制機構）のニュース一覧や公表物ページを取得し、
// 記事のタイトル・日付・リンクをCSVに書き出して、必要ならメールで送る。
//
// =============================================================================
// 【サブコマンド】
// =============================================================================
//
//	fca-relay news      ニュース検索ページ1件 → fca_news.csv → メール
//	fca-relay updates   複数ページ（FCA・legislation.gov.uk）→ fca_updates.csv
//	fca-relay notify    既存のCSVをメールで送るだけ
//	fca-relay rules     読み込まれているマッチングプロファイルの一覧
//
// 実行の間隔は外部（cron、GitHub Actions、EventBridge など）に任せる。
//
// =============================================================================
// 【終了コード】
// =============================================================================
//
//	取得失敗・0件・メール失敗はいずれもメッセージを出して正常終了する。
//	フラグやプロファイルファイルが不正な場合のみ 1 で終了する。
//
// =============================================================================
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv" // .env ファイル読み込み
)

func main() {
	// .env ファイルから環境変数を読み込み
	// ファイルが存在しない場合でも処理は続行する
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "WARN: .env file not loaded: %v (using environment variables only)\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
