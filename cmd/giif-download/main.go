// giif-download は、URLリストファイルに記載された画像を順番にダウンロードします。
// 既に保存済みのファイルはスキップされるため、同じリストに対する再実行は
// 冪等です。-verify で保存済みファイルの検証、-repair で欠損の修復を行います。
//
// 使い方:
//
//	giif-download [-o 出力ディレクトリ] [-d 間隔秒] <URLリストファイル>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GoInstaImageFetcher/internal/config"
	"GoInstaImageFetcher/internal/core"
	"GoInstaImageFetcher/internal/network"
)

// コマンドラインフラグ
var (
	configFile = flag.String("config", "", "設定ファイルのパス (JSONまたはYAML、省略可)")
	verifyMode = flag.Bool("verify", false, "検証モードで実行 (保存済みファイルの存在とサイズを確認)")
	repairMode = flag.Bool("repair", false, "検証モード時に欠損ファイルの再ダウンロードを試みる")
	outputDir  string
	delaySecs  float64
)

func init() {
	flag.StringVar(&outputDir, "o", "", "出力ディレクトリ (デフォルト: instagram_images)")
	flag.StringVar(&outputDir, "output", "", "-o のロングフラグ")
	flag.Float64Var(&delaySecs, "d", -1, "リクエスト間隔 (秒、デフォルト: 0.5)")
	flag.Float64Var(&delaySecs, "delay", -1, "-d のロングフラグ")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "使い方: %s [フラグ] <URLリストファイル>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetOutput(os.Stdout)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	urlListPath := flag.Arg(0)

	// 設定ファイルの読み込み (省略時はデフォルト設定)
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.LoadAndResolve(*configFile)
		if err != nil {
			log.Fatalf("設定ファイルの読み込みに失敗しました: %v", err)
		}
		cfg = loaded
	}
	logFile := setupLogger(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	// フラグは設定ファイルより優先される
	if outputDir == "" {
		outputDir = cfg.Download.OutputDirectory
	}
	delay := time.Duration(cfg.Download.RequestIntervalMillis) * time.Millisecond
	if delaySecs >= 0 {
		delay = time.Duration(delaySecs * float64(time.Second))
	}

	// シグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("終了シグナルを受信しました。シャットダウンを開始します...")
		cancel()
	}()

	client, err := network.NewClient(cfg.Network)
	if err != nil {
		log.Fatalf("ネットワーククライアントの初期化に失敗しました: %v", err)
	}
	downloader := core.NewDownloader(client, cfg.Download, nil)

	if *verifyMode {
		result, err := downloader.RunVerification(ctx, urlListPath, outputDir, *repairMode)
		if err != nil {
			log.Fatalf("検証中にエラーが発生しました: %v", err)
		}
		if result.TotalMissing > result.TotalRepaired {
			os.Exit(1)
		}
		return
	}

	stats, err := downloader.RunFile(ctx, urlListPath, outputDir, delay)
	if err != nil {
		if ctx.Err() != nil && stats != nil {
			log.Printf("中断されました: %s", stats.FormatSummary())
			os.Exit(130)
		}
		log.Fatalf("ダウンロードに失敗しました: %v", err)
	}

	log.Println("============================================================")
	log.Printf("成功: %d", stats.Succeeded)
	log.Printf("スキップ: %d", stats.Skipped)
	log.Printf("失敗: %d", stats.Failed)
	log.Printf("合計: %d", stats.Total())
}

// setupLogger は、設定に応じてログをファイルにも出力します。
func setupLogger(cfg *config.Config) *os.File {
	if !cfg.EnableLogFile {
		return nil
	}
	path := cfg.LogFilePath
	if path == "" {
		path = "giif.log"
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("WARNING: ログファイルを開けませんでした: %v", err)
		return nil
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return f
}
