// =============================================================================
// table.go - CSVテーブルの書き出し・読み込み
// =============================================================================
//
// 【出力形式】
//   - UTF-8、カンマ区切り、1行目はヘッダー
//   - 区切り文字・ダブルクォート・改行を含むフィールドはクォートする
//   - 毎回ファイルを作り直す（追記・バージョン管理なし）
//
// =============================================================================
package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// WriteResult は書き出したファイルと行数（ヘッダーを除く）
type WriteResult struct {
	Path string
	Rows int
}

// WriteTable はレコードをCSVに書き出す。既存のファイルは上書きされる
func WriteTable(path string, layout Layout, records []Record) (WriteResult, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WriteResult{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return WriteResult{}, fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(layout.Header()); err != nil {
		f.Close()
		return WriteResult{}, fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(layout.Row(r)); err != nil {
			f.Close()
			return WriteResult{}, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return WriteResult{}, fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("close %s: %w", path, err)
	}

	logger.Debug("table written", "path", path, "rows", len(records), "layout", layout)
	return WriteResult{Path: path, Rows: len(records)}, nil
}

// ReadTable はCSVを読み込み、ヘッダーとデータ行を分けて返す
func ReadTable(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
