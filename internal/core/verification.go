package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"GoInstaImageFetcher/internal/model"
)

// VerificationResult は検証結果を表します。
type VerificationResult struct {
	TotalChecked   int
	TotalMissing   int
	TotalRepaired  int
	TotalFailed    int
	MissingDetails []string
}

// RunVerification は、URLリストの各項目について保存先ファイルの存在と
// サイズを検証します。保存先パスはURLから再導出するため、検証のための
// 履歴ファイル等は持ちません。repairがtrueの場合、欠損ファイルの
// 再ダウンロードを試みます。
func (d *Downloader) RunVerification(ctx context.Context, urlListPath, outputDir string, repair bool) (*VerificationResult, error) {
	urls, err := ReadURLList(urlListPath)
	if err != nil {
		return nil, err
	}

	d.logger.Println("検証モードを開始します...")
	if repair {
		d.logger.Println("修復モード: 有効 (欠損ファイルを再ダウンロードします)")
	} else {
		d.logger.Println("修復モード: 無効 (検証のみ行います)")
	}

	result := &VerificationResult{}

	for _, rawURL := range urls {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		result.TotalChecked++
		destPath := filepath.Join(outputDir, DeriveFilename(rawURL))

		info, err := os.Stat(destPath)
		if err == nil && info.Size() > 0 {
			continue // 正常
		}

		result.TotalMissing++
		reason := "欠損"
		if err == nil {
			reason = "サイズ0"
		}
		result.MissingDetails = append(result.MissingDetails,
			fmt.Sprintf("%s: %s (url=%s)", reason, filepath.Base(destPath), rawURL))

		if !repair {
			continue
		}

		// 欠損ファイルの再ダウンロード。downloadOneはサイズ0の既存ファイルを
		// スキップしないため、そのまま再取得される。
		res := d.downloadOne(ctx, rawURL, outputDir)
		if res.Outcome == model.OutcomeSucceeded {
			result.TotalRepaired++
			d.logger.Printf("修復成功: %s", filepath.Base(destPath))
		} else {
			result.TotalFailed++
			d.logger.Printf("修復失敗: %s - %v", rawURL, res.Err)
		}
	}

	d.logger.Println("========================================")
	d.logger.Println("検証完了")
	d.logger.Printf("チェック済み: %d", result.TotalChecked)
	d.logger.Printf("欠損あり: %d", result.TotalMissing)
	if repair {
		d.logger.Printf("修復成功: %d", result.TotalRepaired)
		d.logger.Printf("修復失敗: %d", result.TotalFailed)
	}
	for _, detail := range result.MissingDetails {
		d.logger.Println(detail)
	}
	d.logger.Println("========================================")

	return result, nil
}
