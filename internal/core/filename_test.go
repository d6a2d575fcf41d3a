package core

import (
	"strings"
	"testing"
)

func TestDeriveFilename(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "メディアIDをそのまま使用する",
			url:  "https://scontent.cdninstagram.com/v/t51.29350-15/449093482_102938475_837261_n.jpg?stp=dst-jpg&_nc_ht=scontent.cdninstagram.com",
			want: "449093482_102938475_837261_n.jpg",
		},
		{
			name: "クエリパラメータはファイル名に影響しない",
			url:  "https://scontent.cdninstagram.com/v/t51.29350-15/449093482_102938475_837261_n.jpg",
			want: "449093482_102938475_837261_n.jpg",
		},
		{
			name: "メディアIDがなければパス末尾のセグメントを使用する",
			url:  "https://scontent.cdninstagram.com/v/t51.82787-15/photo.webp",
			want: "photo.webp",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DeriveFilename(c.url); got != c.want {
				t.Errorf("DeriveFilename(%s) = '%s', 期待値: '%s'", c.url, got, c.want)
			}
		})
	}
}

func TestDeriveFilenameHashFallback(t *testing.T) {
	// Arrange: 拡張子を持たないURL
	url := "https://scontent.cdninstagram.com/v/t51.29350-15/opaque-token"

	// Act
	name1 := DeriveFilename(url)
	name2 := DeriveFilename(url)

	// Assert: 決定論的であること（再実行で同じ名前になる）
	if name1 != name2 {
		t.Errorf("同じURLから異なるファイル名が導出されました: '%s' / '%s'", name1, name2)
	}
	if !strings.HasPrefix(name1, "img_") || !strings.HasSuffix(name1, ".jpg") {
		t.Errorf("フォールバック名の形式が不正です: '%s'", name1)
	}

	// 異なるURLは異なる名前になる
	other := DeriveFilename("https://scontent.cdninstagram.com/v/t51.29350-15/another-token")
	if name1 == other {
		t.Errorf("異なるURLから同じファイル名が導出されました: '%s'", name1)
	}
}

func TestSanitizeFilename(t *testing.T) {
	// Act
	got := SanitizeFilename(`a:b*c?.jpg`)

	// Assert
	want := "a：b＊c？.jpg"
	if got != want {
		t.Errorf("SanitizeFilename = '%s', 期待値: '%s'", got, want)
	}
}
