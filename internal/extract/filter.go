package extract

import (
	"regexp"
	"strconv"
	"strings"

	"GoInstaImageFetcher/internal/model"
)

var (
	// InstagramのフルサイズメディアのファイルネームID (例: 123456_789012_345678_n.jpg)
	mediaIDPattern = regexp.MustCompile(`/(\d+_\d+_\d+_n\.(?:jpg|jpeg|png|webp))`)
	// パス中のサイズ指定トークン (例: p1080x1080, s640x640)
	sizeTokenPattern = regexp.MustCompile(`[ps](\d{3,4})x\d{3,4}`)
)

// profilePathSegment は、プロフィールアイコンを示すCDNパスセグメントです。
const profilePathSegment = "/t51.2885-19/"

// thumbnailMarkers は、小サイズのサムネイルを示す固定トークンです。
var thumbnailMarkers = []string{"_s150x150", "_s100x100", "s150x150", "s100x100"}

// postPathSegments は、投稿本体のフルサイズ画像を示すCDNパスセグメントです。
var postPathSegments = []string{"/t51.82787-15/", "/t51.75761-15/", "/t51.71878-15/"}

// minFullSizeEdge は、サイズトークンからフルサイズと見なす最小の辺長(px)です。
const minFullSizeEdge = 640

// IsAllowedHost は、URLがInstagramのコンテンツ配信ドメイン群に
// 属しているかどうかを判定します。
func IsAllowedHost(rawURL string) bool {
	return strings.Contains(rawURL, "instagram") ||
		strings.Contains(rawURL, "fbcdn.net") ||
		strings.Contains(rawURL, "cdninstagram.com")
}

// Classify は、許可ドメイン上のURLをフルサイズ / サムネイル / プロフィールに
// 分類します。判定順序が重要です: プロフィールパス → サムネイルトークン →
// 投稿パス → サイズトークン → 既定でフルサイズ。
func Classify(rawURL string) model.SizeClass {
	if strings.Contains(rawURL, profilePathSegment) {
		return model.SizeClassProfile
	}

	for _, marker := range thumbnailMarkers {
		if strings.Contains(rawURL, marker) {
			return model.SizeClassThumbnail
		}
	}

	for _, segment := range postPathSegments {
		if strings.Contains(rawURL, segment) {
			return model.SizeClassFull
		}
	}

	if m := sizeTokenPattern.FindStringSubmatch(rawURL); m != nil {
		if edge, err := strconv.Atoi(m[1]); err == nil && edge >= minFullSizeEdge {
			return model.SizeClassFull
		}
		// 小さなサイズトークンでも、既知のサムネイルトークンに該当しない限り
		// 投稿画像の可能性があるため除外はしない。
	}

	// 許可ドメイン上でサムネイルの痕跡がなければフルサイズとして扱う
	return model.SizeClassFull
}

// NewCandidate は、URL文字列から分類とメディアIDを埋めたCandidateURLを生成します。
func NewCandidate(rawURL string) model.CandidateURL {
	c := model.CandidateURL{
		URL:   rawURL,
		Class: Classify(rawURL),
	}
	if m := mediaIDPattern.FindStringSubmatch(rawURL); m != nil {
		c.MediaID = m[1]
	}
	return c
}
