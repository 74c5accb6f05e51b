// =============================================================================
// logger.go - ログ出力
// =============================================================================
//
// 進捗・警告・エラーは標準エラー出力へ、slogのテキスト形式で出力する。
// 標準出力は利用者向けのステータス行（"Data saved to ..." など）に使う。
//
// 【レベル】
//
//	debug / info / warn / error（既定: info）
//	DEBUG_SCRAPING=1 の場合は常に debug
//
// =============================================================================
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrInvalidLogLevel は未知のログレベルが指定された場合のエラー
var ErrInvalidLogLevel = errors.New("log level must be one of: debug, info, warn, error")

var logger = NewLogger(slog.LevelInfo, os.Stderr)

// ParseLogLevel はレベル名をslog.Levelに変換する（空文字はinfo）
func ParseLogLevel(level string) (slog.Level, error) {
	if os.Getenv("DEBUG_SCRAPING") != "" {
		return slog.LevelDebug, nil
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w (got %q)", ErrInvalidLogLevel, level)
}

// NewLogger はテキストハンドラのslog.Loggerを作成する
func NewLogger(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetLogger はパッケージ全体で使うロガーを差し替える
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Logger は現在のロガーを返す
func Logger() *slog.Logger {
	return logger
}

// ConfigureLogging はレベル名からロガーを作成して設定する
func ConfigureLogging(level string, w io.Writer) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	SetLogger(NewLogger(lvl, w))
	return nil
}
