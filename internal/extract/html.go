package extract

import (
	"bytes"
	"fmt"
	"strings"

	"GoInstaImageFetcher/internal/model"

	"github.com/PuerkitoBio/goquery"
)

// FromHTML は、保存されたHTMLページをDOMとして走査し、img要素のsrc / srcset
// 属性とog:imageメタタグから許可ドメイン上の画像URL候補を抽出します。
func FromHTML(data []byte) ([]model.CandidateURL, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("HTMLの解析に失敗しました: %w", err)
	}

	var candidates []model.CandidateURL
	appendIfAllowed := func(rawURL string) {
		rawURL = strings.TrimSpace(rawURL)
		if !strings.HasPrefix(rawURL, "http") {
			return
		}
		if !IsAllowedHost(rawURL) {
			return
		}
		candidates = append(candidates, NewCandidate(rawURL))
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			appendIfAllowed(src)
		}
		if srcset, ok := s.Attr("srcset"); ok {
			// srcsetは "url1 640w, url2 1080w" 形式。URL部分だけを取り出す
			for _, entry := range strings.Split(srcset, ",") {
				fields := strings.Fields(strings.TrimSpace(entry))
				if len(fields) > 0 {
					appendIfAllowed(fields[0])
				}
			}
		}
	})

	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok {
			appendIfAllowed(content)
		}
	})

	return candidates, nil
}
