// =============================================================================
// fetch.go - ページ取得
// =============================================================================
//
// 1つのURLに対してGETを1回だけ実行する。
//
// 【方針】
//   - リトライなし、タイムアウト・リダイレクトはライブラリの既定値
//   - キャンセルは呼び出し元のcontextのみ
//   - 2xx以外のステータスと通信エラーはErrFetchFailedでラップして返す
//
// =============================================================================
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// ErrFetchFailed はページ取得に失敗した場合のエラー
var ErrFetchFailed = errors.New("fetch failed")

// DefaultUserAgent はブロッキング回避のためのブラウザ風User-Agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// PageFetcher はURLから生のレスポンスボディを取得する
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Fetcher はrestyクライアントによるPageFetcherの実装
type Fetcher struct {
	client *resty.Client
}

// NewFetcher は新しいFetcherを作成する
//
// userAgentが空の場合はUser-Agentヘッダーを上書きしない（ライブラリ既定）。
func NewFetcher(userAgent string) *Fetcher {
	client := resty.New().
		SetRetryCount(0).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &Fetcher{client: client}
}

// Fetch はGETを実行してボディを返す
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetchFailed, url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: GET %s: status %s", ErrFetchFailed, url, resp.Status())
	}
	logger.Debug("fetched page", "url", url, "status", resp.StatusCode(), "bytes", len(resp.Body()))
	return resp.Body(), nil
}
