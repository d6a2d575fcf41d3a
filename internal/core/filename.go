package core

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// InstagramのフルサイズメディアID (例: 449093482_102938475_837261_n.jpg)
	mediaIDPattern = regexp.MustCompile(`(\d+_\d+_\d+_n\.(?:jpg|jpeg|png|webp))`)
	// 保存対象として認める画像拡張子
	imageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	}
)

// DeriveFilename は、URLから保存ファイル名を決定論的に導出します。
// 同じURLは常に同じファイル名になるため、再実行時のスキップ判定が成立します。
// 優先順位:
//  1. パス中のメディアID (そのまま使用)
//  2. パス末尾のセグメント (画像拡張子を持つ場合)
//  3. URL全体のFNV-1aハッシュ + ".jpg"
func DeriveFilename(rawURL string) string {
	path := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		path = parsed.Path
	}

	if m := mediaIDPattern.FindStringSubmatch(path); m != nil {
		return m[1]
	}

	base := filepath.Base(path)
	if base != "." && base != "/" && imageExtensions[strings.ToLower(filepath.Ext(base))] {
		return SanitizeFilename(base)
	}

	// ファイル名が取り出せない場合のフォールバック。
	// ハッシュはプロセスに依存しないFNV-1aを使い、実行ごとに名前が
	// 変わらないようにする。
	h := fnv.New32a()
	h.Write([]byte(rawURL))
	return fmt.Sprintf("img_%08x.jpg", h.Sum32())
}

// SanitizeFilename は、ファイル名として使用できない文字を全角文字に置換します。
func SanitizeFilename(name string) string {
	r := strings.NewReplacer(
		"/", "／",
		"\\", "＼",
		":", "：",
		"*", "＊",
		"?", "？",
		"\"", "”",
		"<", "＜",
		">", "＞",
		"|", "｜",
	)
	return r.Replace(name)
}
