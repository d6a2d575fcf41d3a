package extract

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeCapture は、キャプチャファイルのバイト列をUTF-8に正規化します。
// ブラウザの「すべてコピー」で保存したエクスポートはWindows環境でUTF-16に
// なることがあるため、BOMを見てUTF-8 / UTF-16 LE / UTF-16 BEを判別します。
// BOMがなければUTF-8として扱います。
func decodeCapture(data []byte) ([]byte, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return nil, fmt.Errorf("文字コード変換に失敗しました: %w", err)
	}
	return decoded, nil
}
