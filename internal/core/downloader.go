package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"GoInstaImageFetcher/internal/config"
	"GoInstaImageFetcher/internal/model"
	"GoInstaImageFetcher/internal/network"
)

// Downloader は、URLリストを1件ずつ順番に処理するダウンローダーです。
// 並行処理は行いません。中断点はHTTPリクエストの待機とリクエスト間の
// スリープだけで、どちらもcontextのキャンセルで即座に抜けられます。
type Downloader struct {
	client   *network.Client
	settings config.DownloadSettings
	logger   *log.Logger
}

// NewDownloader は、Downloaderを初期化します。loggerがnilの場合は
// 標準のロガーを使用します。
func NewDownloader(client *network.Client, settings config.DownloadSettings, logger *log.Logger) *Downloader {
	if logger == nil {
		logger = log.Default()
	}
	return &Downloader{
		client:   client,
		settings: settings,
		logger:   logger,
	}
}

// ReadURLList は、1行1URLのリストファイルを読み込みます。
// 空行とhttpで始まらない行は無視します。ファイルが存在しない場合はエラーです。
func ReadURLList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("URLリスト '%s' の読み込みに失敗しました: %w", path, err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "http") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("URLリスト '%s' の走査に失敗しました: %w", path, err)
	}
	return urls, nil
}

// RunFile は、URLリストファイルを読み込み、全件を出力ディレクトリに
// ダウンロードします。リストの欠如と出力ディレクトリの作成失敗だけが
// エラーとなり、個々のURLの失敗は統計に記録して処理を続行します。
func (d *Downloader) RunFile(ctx context.Context, urlListPath, outputDir string, delay time.Duration) (*RunStats, error) {
	urls, err := ReadURLList(urlListPath)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, urls, outputDir, delay)
}

// Run は、URLのスライスを順番にダウンロードします。
func (d *Downloader) Run(ctx context.Context, urls []string, outputDir string, delay time.Duration) (*RunStats, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("出力ディレクトリ '%s' の作成に失敗しました: %w", outputDir, err)
	}

	stats := NewRunStats()
	if len(urls) == 0 {
		d.logger.Println("URLリストが空です。処理する対象がありません。")
		return stats, nil
	}

	d.logger.Printf("%d件のURLをダウンロードします (保存先: %s, 間隔: %v)", len(urls), outputDir, delay)

	for i, rawURL := range urls {
		select {
		case <-ctx.Done():
			d.logger.Println("シャットダウンシグナルを受信しました。処理を中断します。")
			return stats, ctx.Err()
		default:
		}

		res := d.downloadOne(ctx, rawURL, outputDir)
		stats.Record(res)

		switch res.Outcome {
		case model.OutcomeSucceeded:
			d.logger.Printf("SUCCESS (%d/%d): %s (%d bytes)", i+1, len(urls), filepath.Base(res.Task.DestPath), res.Bytes)
			if d.settings.EnableMetadataIndex {
				if err := appendToMetadataIndex(d.settings.MetadataIndexPath, res); err != nil {
					d.logger.Printf("WARNING: メタデータインデックスへの追記に失敗しました: %v", err)
				}
			}
		case model.OutcomeSkipped:
			d.logger.Printf("SKIP (%d/%d): 既に存在します: %s", i+1, len(urls), filepath.Base(res.Task.DestPath))
		case model.OutcomeFailed:
			d.logger.Printf("FAILED (%d/%d): %s - %v", i+1, len(urls), rawURL, res.Err)
		}

		// 結果に関わらずリクエスト間隔を空ける（最終要素の後は不要）
		if delay > 0 && i < len(urls)-1 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	d.logger.Printf("ダウンロード完了: %s", stats.FormatSummary())
	return stats, nil
}

// downloadOne は、1件のURLを処理して結果を返します。この関数はエラーを
// 返しません。失敗はDownloadResultに記録され、バッチ全体は続行されます。
func (d *Downloader) downloadOne(ctx context.Context, rawURL, outputDir string) model.DownloadResult {
	task := model.DownloadTask{
		URL:      rawURL,
		DestPath: filepath.Join(outputDir, DeriveFilename(rawURL)),
	}

	// 既存ファイルがあればリクエストを発行せずスキップ（冪等性の保証）
	if info, err := os.Stat(task.DestPath); err == nil && info.Size() > 0 {
		return model.DownloadResult{Task: task, Outcome: model.OutcomeSkipped}
	}

	body, err := d.fetchWithRetry(ctx, &task)
	if err != nil {
		return model.DownloadResult{Task: task, Outcome: model.OutcomeFailed, Err: err}
	}

	if err := os.WriteFile(task.DestPath, body, 0644); err != nil {
		return model.DownloadResult{
			Task:    task,
			Outcome: model.OutcomeFailed,
			Err:     fmt.Errorf("ファイルの書き込みに失敗しました (path=%s, size=%d bytes): %w", task.DestPath, len(body), err),
		}
	}

	return model.DownloadResult{Task: task, Outcome: model.OutcomeSucceeded, Bytes: int64(len(body))}
}

// errNotAnImage は、レスポンスが画像以外だった場合の恒久的なエラーです。
var errNotAnImage = errors.New("レスポンスが画像ではありません")

// fetchWithRetry は、リトライ付きで1件のURLを取得します。
// ネットワークエラー・429・500番台はリトライし、その他の400番台と
// 画像以外のContent-Typeは即座に失敗とします。
func (d *Downloader) fetchWithRetry(ctx context.Context, task *model.DownloadTask) ([]byte, error) {
	retryCount := d.settings.RetryCount
	retryWait := time.Duration(d.settings.RetryWaitMillis) * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= retryCount; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		task.Attempts++
		resp, err := d.client.Get(ctx, task.URL)
		if err != nil {
			var httpErr *network.HTTPError
			if errors.As(err, &httpErr) && !httpErr.IsRetryable() {
				// 404や403はリトライしても無駄なので即座に失敗
				return nil, fmt.Errorf("リトライ不可能なHTTPエラー (status=%d): %w", httpErr.StatusCode, err)
			}
			lastErr = err
			d.logger.Printf("WARNING: ダウンロード失敗（試行 %d/%d）: url=%s, error=%v", attempt+1, retryCount+1, task.URL, err)
			if attempt < retryCount {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(retryWait):
				}
			}
			continue
		}

		// CDNがエラーページ等をHTTP 200で返すことがあるため、Content-Typeを確認する
		if resp.ContentType != "" && !strings.Contains(resp.ContentType, "image") {
			return nil, fmt.Errorf("%w (Content-Type: %s, url=%s)", errNotAnImage, resp.ContentType, task.URL)
		}

		return resp.Body, nil
	}

	return nil, fmt.Errorf("ダウンロードがリトライ上限に達しました (url=%s, retry_count=%d): %w", task.URL, retryCount, lastErr)
}
