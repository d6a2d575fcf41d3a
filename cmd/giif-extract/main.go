// giif-extract は、ブラウザのネットワークキャプチャや任意のテキスト・HTMLから
// Instagramのフルサイズ画像URLを抽出し、1行1URLのリストファイルを生成します。
//
// 使い方:
//
//	giif-extract [-o 出力ファイル] [-method auto|network|text|html] <入力ファイル>
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"GoInstaImageFetcher/internal/config"
	"GoInstaImageFetcher/internal/extract"
)

// コマンドラインフラグ
var (
	configFile = flag.String("config", "", "設定ファイルのパス (JSONまたはYAML、省略可)")
	outputPath string
	methodName string
)

func init() {
	flag.StringVar(&outputPath, "o", "", "出力ファイルのパス (デフォルト: instagram_urls.txt)")
	flag.StringVar(&outputPath, "output", "", "-o のロングフラグ")
	flag.StringVar(&methodName, "method", "", "抽出方法: network / text / html / auto (デフォルト: auto)")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "使い方: %s [フラグ] <入力ファイル>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetOutput(os.Stdout)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

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
	if outputPath == "" {
		outputPath = cfg.Extract.OutputPath
	}
	if methodName == "" {
		methodName = cfg.Extract.Method
	}
	method, err := extract.ParseMethod(methodName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("'%s' からURLを抽出します (method=%s)...", inputPath, method)

	urls, err := extract.ExtractFile(inputPath, method)
	if err != nil {
		log.Fatalf("抽出に失敗しました: %v", err)
	}

	log.Printf("%d件のフルサイズ画像URLが見つかりました。", len(urls))

	// 一致0件でも空のリストを書き出す（エラーではない）
	if err := extract.WriteURLList(outputPath, urls); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%d件のURLを '%s' に保存しました。", len(urls), outputPath)

	// 確認用に先頭5件を表示
	for i, u := range urls {
		if i >= 5 {
			break
		}
		log.Printf("  %s", u)
	}
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
