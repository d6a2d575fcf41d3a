// Package model は、GIIFの各パッケージ間で共有されるデータ構造を定義します。
package model

// SizeClass は、抽出されたURLが指す画像の種別を表します。
type SizeClass int

const (
	// SizeClassUnknown は、判定前または判定不能な状態です。
	SizeClassUnknown SizeClass = iota
	// SizeClassFull は、投稿本体のフルサイズ画像です。
	SizeClassFull
	// SizeClassThumbnail は、サムネイル（縮小版）画像です。
	SizeClassThumbnail
	// SizeClassProfile は、プロフィールアイコン画像です。
	SizeClassProfile
)

// String は SizeClass を人間可読な文字列に変換します。
func (s SizeClass) String() string {
	switch s {
	case SizeClassFull:
		return "full"
	case SizeClassThumbnail:
		return "thumbnail"
	case SizeClassProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// CandidateURL は、キャプチャから抽出された画像URL候補を保持します。
// 抽出段階でのみ使用される一時的な構造体で、フルサイズと判定されたものだけが
// URLリストとして出力されます。
type CandidateURL struct {
	URL     string    // 完全なURL
	MediaID string    // URLパスから抽出されたメディアID (例: 123_456_789_n.jpg)。抽出できない場合は空
	Class   SizeClass // フルサイズ / サムネイル / プロフィールの分類
}

// DownloadTask は、1件のダウンロード対象を表します。
// DestPath はURLから決定論的に導出されるため、同じURLに対する再実行は
// 常に同じパスを指します（冪等性の保証）。
type DownloadTask struct {
	URL      string // ダウンロード対象のURL
	DestPath string // 保存先のフルパス
	Attempts int    // 実際に行ったHTTPリクエストの回数
}

// Outcome は、1件のダウンロードタスクの結果種別です。
type Outcome int

const (
	// OutcomeSucceeded は、ダウンロードに成功しファイルを保存したことを表します。
	OutcomeSucceeded Outcome = iota
	// OutcomeSkipped は、保存先ファイルが既に存在したためリクエストを行わなかったことを表します。
	OutcomeSkipped
	// OutcomeFailed は、リトライ上限まで失敗した、または恒久的なエラーが発生したことを表します。
	OutcomeFailed
)

// String は Outcome を人間可読な文字列に変換します。
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DownloadResult は、1件のダウンロードタスクの処理結果を保持します。
type DownloadResult struct {
	Task    DownloadTask
	Outcome Outcome
	Bytes   int64 // 保存したバイト数 (成功時のみ)
	Err     error // 失敗時の最後のエラー
}
