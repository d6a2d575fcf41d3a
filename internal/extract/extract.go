// Package extract は、ブラウザのネットワークキャプチャや任意のテキスト・HTMLから
// Instagramのフルサイズ画像URLを抽出する機能を提供します。
// サムネイルとプロフィールアイコンを除外し、初出順を保った重複なしの
// URLリストを生成します。
package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"GoInstaImageFetcher/internal/model"
)

// Method は、抽出方法を表します。
type Method string

const (
	// MethodAuto は、networkを試し、結果が少なければtextにフォールバックします。
	MethodAuto Method = "auto"
	// MethodNetwork は、タブ区切りのネットワークエクスポートとして解析します。
	MethodNetwork Method = "network"
	// MethodText は、任意のテキストブロブを正規表現で走査します。
	MethodText Method = "text"
	// MethodHTML は、保存されたHTMLページをDOMとして走査します。
	MethodHTML Method = "html"
)

// ParseMethod は、コマンドライン等で指定された文字列をMethodに変換します。
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodAuto, MethodNetwork, MethodText, MethodHTML:
		return Method(s), nil
	}
	return "", fmt.Errorf("不明な抽出方法 '%s' です。network / text / html / auto のいずれかを指定してください", s)
}

// autoFallbackThreshold は、autoモードでnetwork解析の結果がこの件数未満の
// 場合にtext解析へフォールバックする閾値です。
const autoFallbackThreshold = 5

// URLの形をした部分文字列の検出用。末尾の句読点は後でトリムします。
var urlPattern = regexp.MustCompile(`https?://[^\s<>"')]+`)

// FromNetworkExport は、タブ区切りのネットワークエクスポートを解析し、
// 許可ドメイン上の画像URL候補を返します。2列目がURLである形式を想定します。
func FromNetworkExport(data []byte) []model.CandidateURL {
	var candidates []model.CandidateURL

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}

		rawURL := strings.TrimSpace(parts[1])
		if !strings.HasPrefix(rawURL, "http") {
			continue
		}
		if !IsAllowedHost(rawURL) {
			continue
		}
		candidates = append(candidates, NewCandidate(rawURL))
	}
	return candidates
}

// FromText は、任意のテキストブロブからURLの形をした部分文字列を抜き出し、
// 許可ドメイン上のものを候補として返します。
func FromText(data []byte) []model.CandidateURL {
	var candidates []model.CandidateURL
	for _, match := range urlPattern.FindAllString(string(data), -1) {
		// URLの一部ではない末尾の句読点を除去
		rawURL := strings.TrimRight(match, ".,;:!?)")
		if !IsAllowedHost(rawURL) {
			continue
		}
		candidates = append(candidates, NewCandidate(rawURL))
	}
	return candidates
}

// Run は、指定された方法でデータから候補を抽出し、フルサイズURLのみを
// 初出順・重複なしで返します。
func Run(data []byte, method Method) ([]string, error) {
	switch method {
	case MethodNetwork:
		return FullSizeURLs(FromNetworkExport(data)), nil
	case MethodText:
		return FullSizeURLs(FromText(data)), nil
	case MethodHTML:
		candidates, err := FromHTML(data)
		if err != nil {
			return nil, err
		}
		return FullSizeURLs(candidates), nil
	case MethodAuto:
		urls := FullSizeURLs(FromNetworkExport(data))
		if len(urls) < autoFallbackThreshold {
			// エクスポート形式でない入力の可能性が高いのでテキスト走査を試す
			if textURLs := FullSizeURLs(FromText(data)); len(textURLs) > len(urls) {
				return textURLs, nil
			}
		}
		return urls, nil
	}
	return nil, fmt.Errorf("不明な抽出方法 '%s' です", method)
}

// FullSizeURLs は、候補のうちフルサイズと分類されたURLだけを、
// 初出順を保ちつつ重複を除いて返します。
func FullSizeURLs(candidates []model.CandidateURL) []string {
	seen := make(map[string]bool, len(candidates))
	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Class != model.SizeClassFull {
			continue
		}
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		urls = append(urls, c.URL)
	}
	return urls
}

// ExtractFile は、入力ファイルを読み込み、文字コードを正規化した上で
// 指定された方法でフルサイズURLのリストを抽出します。
// 入力ファイルが存在しない場合はエラーを返します。一致が0件であることは
// エラーではなく、空のリストを返します。
func ExtractFile(inputPath string, method Method) ([]string, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("入力ファイル '%s' の読み込みに失敗しました: %w", inputPath, err)
	}

	decoded, err := decodeCapture(data)
	if err != nil {
		return nil, fmt.Errorf("入力ファイル '%s' の文字コード変換に失敗しました: %w", inputPath, err)
	}

	return Run(decoded, method)
}

// WriteURLList は、URLリストを1行1URLで出力ファイルに書き込みます。
// 既存のファイルは上書きされます。
func WriteURLList(outputPath string, urls []string) error {
	var buf bytes.Buffer
	for _, u := range urls {
		buf.WriteString(u)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("URLリスト '%s' の書き込みに失敗しました: %w", outputPath, err)
	}
	return nil
}
