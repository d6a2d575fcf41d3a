package core

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"GoInstaImageFetcher/internal/config"
	"GoInstaImageFetcher/internal/network"
)

// newTestDownloader は、テスト用の設定でDownloaderを構築します。
func newTestDownloader(t *testing.T, settings config.DownloadSettings) *Downloader {
	t.Helper()
	client, err := network.NewClient(config.NetworkSettings{
		UserAgent:            "GIIF-Test/1.0",
		RequestTimeoutMillis: 5000,
	})
	if err != nil {
		t.Fatalf("NewClientの作成に失敗しました: %v", err)
	}
	return NewDownloader(client, settings, log.New(io.Discard, "", 0))
}

// writeURLListFile は、テスト用のURLリストファイルを作成します。
func writeURLListFile(t *testing.T, urls []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(strings.Join(urls, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("URLリストの書き込みに失敗しました: %v", err)
	}
	return path
}

func TestDownloader_RunFileDownloadsAll(t *testing.T) {
	// 1. Arrange (準備)
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprintf(w, "image-body-of-%s", filepath.Base(r.URL.Path))
	}))
	defer server.Close()

	urls := []string{
		server.URL + "/v/t51.29350-15/111_222_333_n.jpg",
		server.URL + "/v/t51.29350-15/444_555_666_n.jpg",
	}
	listPath := writeURLListFile(t, urls)
	outputDir := filepath.Join(t.TempDir(), "images")

	d := newTestDownloader(t, config.DownloadSettings{RetryCount: 1, RetryWaitMillis: 1})

	// 2. Act (実行)
	stats, err := d.RunFile(context.Background(), listPath, outputDir, 0)

	// 3. Assert (検証)
	if err != nil {
		t.Fatalf("RunFileで予期せぬエラーが発生しました: %v", err)
	}
	if stats.Succeeded != 2 || stats.Skipped != 0 || stats.Failed != 0 {
		t.Errorf("統計が期待値と異なります: %+v", stats)
	}
	if requests.Load() != 2 {
		t.Errorf("リクエスト数が期待値と異なります。期待値: 2, 実際値: %d", requests.Load())
	}

	content, err := os.ReadFile(filepath.Join(outputDir, "111_222_333_n.jpg"))
	if err != nil {
		t.Fatalf("保存ファイルの読み込みに失敗しました: %v", err)
	}
	if string(content) != "image-body-of-111_222_333_n.jpg" {
		t.Errorf("保存されたファイルの内容が期待値と異なります: '%s'", content)
	}
}

func TestDownloader_SecondRunSkipsWithoutRequests(t *testing.T) {
	// Arrange
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	urls := []string{
		server.URL + "/v/t51.29350-15/111_222_333_n.jpg",
		server.URL + "/v/t51.29350-15/444_555_666_n.jpg",
	}
	listPath := writeURLListFile(t, urls)
	outputDir := filepath.Join(t.TempDir(), "images")
	d := newTestDownloader(t, config.DownloadSettings{RetryCount: 0, RetryWaitMillis: 1})

	// Act: 1回目の実行
	if _, err := d.RunFile(context.Background(), listPath, outputDir, 0); err != nil {
		t.Fatalf("1回目のRunFileで予期せぬエラーが発生しました: %v", err)
	}
	firstRunRequests := requests.Load()

	// Act: 2回目の実行（冪等性の検証）
	stats, err := d.RunFile(context.Background(), listPath, outputDir, 0)
	if err != nil {
		t.Fatalf("2回目のRunFileで予期せぬエラーが発生しました: %v", err)
	}

	// Assert: 2回目はネットワークリクエストを一切行わない
	if requests.Load() != firstRunRequests {
		t.Errorf("2回目の実行でリクエストが発生しました。1回目: %d, 合計: %d", firstRunRequests, requests.Load())
	}
	if stats.Skipped != 2 || stats.Succeeded != 0 || stats.Failed != 0 {
		t.Errorf("2回目の統計が期待値と異なります: %+v", stats)
	}
}

func TestDownloader_FailedURLDoesNotAbortBatch(t *testing.T) {
	// Arrange: /broken_n.jpg だけが常に503を返すサーバー
	var brokenRequests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "broken") {
			brokenRequests.Add(1)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	urls := []string{
		server.URL + "/v/t51.29350-15/111_222_broken_n.jpg",
		server.URL + "/v/t51.29350-15/444_555_666_n.jpg",
	}
	listPath := writeURLListFile(t, urls)
	outputDir := filepath.Join(t.TempDir(), "images")
	d := newTestDownloader(t, config.DownloadSettings{RetryCount: 2, RetryWaitMillis: 1})

	// Act
	stats, err := d.RunFile(context.Background(), listPath, outputDir, 0)

	// Assert: 1件の失敗が後続の処理を妨げない
	if err != nil {
		t.Fatalf("RunFileで予期せぬエラーが発生しました: %v", err)
	}
	if stats.Failed != 1 || stats.Succeeded != 1 {
		t.Errorf("統計が期待値と異なります: %+v", stats)
	}
	// 503はリトライ可能なので初回+リトライ2回=3リクエスト
	if brokenRequests.Load() != 3 {
		t.Errorf("リトライ回数が期待値と異なります。期待値: 3, 実際値: %d", brokenRequests.Load())
	}
	if _, err := os.Stat(filepath.Join(outputDir, "444_555_666_n.jpg")); err != nil {
		t.Errorf("失敗URLの後続ファイルが保存されていません: %v", err)
	}
}

func TestDownloader_NotFoundFailsWithoutRetry(t *testing.T) {
	// Arrange
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	listPath := writeURLListFile(t, []string{server.URL + "/v/t51.29350-15/111_222_333_n.jpg"})
	d := newTestDownloader(t, config.DownloadSettings{RetryCount: 3, RetryWaitMillis: 1})

	// Act
	stats, err := d.RunFile(context.Background(), listPath, filepath.Join(t.TempDir(), "images"), 0)

	// Assert: 404はリトライせず1リクエストで失敗扱い
	if err != nil {
		t.Fatalf("RunFileで予期せぬエラーが発生しました: %v", err)
	}
	if stats.Failed != 1 {
		t.Errorf("統計が期待値と異なります: %+v", stats)
	}
	if requests.Load() != 1 {
		t.Errorf("404に対してリトライが発生しました。リクエスト数: %d", requests.Load())
	}
}

func TestDownloader_NonImageContentTypeFails(t *testing.T) {
	// Arrange: HTTP 200でHTMLのエラーページを返すサーバー
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>login required</html>"))
	}))
	defer server.Close()

	listPath := writeURLListFile(t, []string{server.URL + "/v/t51.29350-15/111_222_333_n.jpg"})
	d := newTestDownloader(t, config.DownloadSettings{RetryCount: 3, RetryWaitMillis: 1})

	// Act
	stats, err := d.RunFile(context.Background(), listPath, filepath.Join(t.TempDir(), "images"), 0)

	// Assert
	if err != nil {
		t.Fatalf("RunFileで予期せぬエラーが発生しました: %v", err)
	}
	if stats.Failed != 1 {
		t.Errorf("統計が期待値と異なります: %+v", stats)
	}
	if requests.Load() != 1 {
		t.Errorf("画像以外のレスポンスに対してリトライが発生しました。リクエスト数: %d", requests.Load())
	}
}

func TestDownloader_EmptyListCompletesWithZeroCounts(t *testing.T) {
	// Arrange: 空行のみのリスト
	listPath := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(listPath, []byte("\n\n"), 0644); err != nil {
		t.Fatalf("URLリストの書き込みに失敗しました: %v", err)
	}
	d := newTestDownloader(t, config.DownloadSettings{})

	// Act
	stats, err := d.RunFile(context.Background(), listPath, filepath.Join(t.TempDir(), "images"), 0)

	// Assert
	if err != nil {
		t.Fatalf("RunFileで予期せぬエラーが発生しました: %v", err)
	}
	if stats.Total() != 0 {
		t.Errorf("空リストに対する統計が0ではありません: %+v", stats)
	}
}

func TestDownloader_MissingListIsFatal(t *testing.T) {
	// Act
	d := newTestDownloader(t, config.DownloadSettings{})
	_, err := d.RunFile(context.Background(), filepath.Join(t.TempDir(), "no_such_list.txt"), t.TempDir(), 0)

	// Assert
	if err == nil {
		t.Fatal("存在しないURLリストに対してエラーが返されるべきです。")
	}
}

func TestDownloader_MetadataIndexAppendsRows(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	indexPath := filepath.Join(tmpDir, "index.csv")
	listPath := writeURLListFile(t, []string{server.URL + "/v/t51.29350-15/111_222_333_n.jpg"})
	d := newTestDownloader(t, config.DownloadSettings{
		EnableMetadataIndex: true,
		MetadataIndexPath:   indexPath,
	})

	// Act
	if _, err := d.RunFile(context.Background(), listPath, filepath.Join(tmpDir, "images"), 0); err != nil {
		t.Fatalf("RunFileで予期せぬエラーが発生しました: %v", err)
	}

	// Assert
	data, err := os.ReadFile(indexPath)
	if err != nil {
		t.Fatalf("インデックスファイルの読み込みに失敗しました: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("インデックスの行数が期待値と異なります。期待値: 2 (ヘッダー+1件), 実際値: %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Filename,URL,Bytes") {
		t.Errorf("ヘッダー行が不正です: '%s'", lines[0])
	}
	if !strings.Contains(lines[1], "111_222_333_n.jpg") {
		t.Errorf("レコード行にファイル名が含まれていません: '%s'", lines[1])
	}
}

func TestRunVerification(t *testing.T) {
	// Arrange: 1件は正常に保存済み、1件は欠損
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("repaired-bytes"))
	}))
	defer server.Close()

	urls := []string{
		server.URL + "/v/t51.29350-15/111_222_333_n.jpg",
		server.URL + "/v/t51.29350-15/444_555_666_n.jpg",
	}
	listPath := writeURLListFile(t, urls)
	outputDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outputDir, "111_222_333_n.jpg"), []byte("existing"), 0644); err != nil {
		t.Fatalf("既存ファイルの作成に失敗しました: %v", err)
	}

	d := newTestDownloader(t, config.DownloadSettings{RetryCount: 0, RetryWaitMillis: 1})

	// Act: 検証のみ
	result, err := d.RunVerification(context.Background(), listPath, outputDir, false)
	if err != nil {
		t.Fatalf("RunVerificationで予期せぬエラーが発生しました: %v", err)
	}

	// Assert
	if result.TotalChecked != 2 || result.TotalMissing != 1 {
		t.Errorf("検証結果が期待値と異なります: %+v", result)
	}

	// Act: 修復あり
	result, err = d.RunVerification(context.Background(), listPath, outputDir, true)
	if err != nil {
		t.Fatalf("修復付きRunVerificationで予期せぬエラーが発生しました: %v", err)
	}

	// Assert: 欠損ファイルが再ダウンロードされている
	if result.TotalRepaired != 1 {
		t.Errorf("修復件数が期待値と異なります: %+v", result)
	}
	content, err := os.ReadFile(filepath.Join(outputDir, "444_555_666_n.jpg"))
	if err != nil {
		t.Fatalf("修復されたファイルの読み込みに失敗しました: %v", err)
	}
	if string(content) != "repaired-bytes" {
		t.Errorf("修復されたファイルの内容が期待値と異なります: '%s'", content)
	}
}
