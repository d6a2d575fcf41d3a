package core

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"GoInstaImageFetcher/internal/model"
)

// appendToMetadataIndex は、ダウンロード成功1件をCSVインデックスに追記します。
// ファイルが存在しない場合はヘッダー行を先に書き込みます。
func appendToMetadataIndex(path string, res model.DownloadResult) error {
	if path == "" {
		return fmt.Errorf("metadata_index_pathが設定されていません")
	}

	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("メタデータインデックス '%s' を開けませんでした: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	if needsHeader {
		header := []string{"Filename", "URL", "Bytes", "DownloadedAt"}
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	record := []string{
		filepath.Base(res.Task.DestPath),
		res.Task.URL,
		strconv.FormatInt(res.Bytes, 10),
		time.Now().Format(time.RFC3339),
	}
	if err := writer.Write(record); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
