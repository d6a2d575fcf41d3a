// Package core は、GIIFの中核となるビジネスロジックを実装します。
package core

import (
	"fmt"
	"time"

	"GoInstaImageFetcher/internal/model"
)

// RunStats は、1回のダウンロード実行の統計情報を管理します。
type RunStats struct {
	StartTime         time.Time // 実行開始時刻
	Succeeded         int       // ダウンロードに成功した件数
	Skipped           int       // 既存ファイルによりスキップした件数
	Failed            int       // 失敗した件数
	TotalBytesWritten int64     // 合計ダウンロードサイズ（バイト）
}

// NewRunStats は、開始時刻を現在時刻に設定した統計情報を返します。
func NewRunStats() *RunStats {
	return &RunStats{StartTime: time.Now()}
}

// Record は、1件のダウンロード結果を統計に反映します。
func (s *RunStats) Record(res model.DownloadResult) {
	switch res.Outcome {
	case model.OutcomeSucceeded:
		s.Succeeded++
		s.TotalBytesWritten += res.Bytes
	case model.OutcomeSkipped:
		s.Skipped++
	case model.OutcomeFailed:
		s.Failed++
	}
}

// Total は、処理した件数の合計を返します。
func (s *RunStats) Total() int {
	return s.Succeeded + s.Skipped + s.Failed
}

// FormatSummary は、実行結果の統計情報を文字列にフォーマットします。
func (s *RunStats) FormatSummary() string {
	elapsed := time.Since(s.StartTime).Round(time.Second)

	// サイズをMB単位に変換
	sizeMB := float64(s.TotalBytesWritten) / (1024 * 1024)

	return fmt.Sprintf("所要: %v | 成功: %d | スキップ: %d | 失敗: %d | %.1fMB",
		elapsed, s.Succeeded, s.Skipped, s.Failed, sizeMB)
}
