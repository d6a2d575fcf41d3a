package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CompatibleVersion は、このバイナリが解釈できる設定ファイルのバージョンです。
const CompatibleVersion = "1.0"

// LoadAndResolve は、指定されたパスから設定ファイルを読み込み、解析と
// デフォルト値の解決を行います。拡張子が .yaml / .yml の場合はYAMLとして、
// それ以外はJSONとして解釈します。
func LoadAndResolve(path string) (*Config, error) {
	absPath, _ := filepath.Abs(path)
	cwd, _ := os.Getwd()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイル '%s' の読み込みに失敗しました (Abs: '%s', Cwd: '%s'): %w", path, absPath, cwd, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseAndResolveYAML(data)
	default:
		return ParseAndResolve(data)
	}
}

// ParseAndResolve は、JSON形式の設定データを解析し、デフォルト値を解決して
// 最終的な設定を返します。この関数はテストのために分離されています。
func ParseAndResolve(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError

		if errors.As(err, &syntaxErr) {
			line, col := computeLineAndColumn(data, syntaxErr.Offset)
			return nil, fmt.Errorf("設定ファイルのJSON構文エラー (行 %d, 列 %d): %w", line, col, err)
		}
		if errors.As(err, &typeErr) {
			line, col := computeLineAndColumn(data, typeErr.Offset)
			return nil, fmt.Errorf("設定ファイルの型エラー (行 %d, 列 %d, フィールド '%s'): 期待値 %v, 実際 %v - %w",
				line, col, typeErr.Field, typeErr.Type, typeErr.Value, err)
		}
		return nil, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}
	return resolve(cfg)
}

// ParseAndResolveYAML は、YAML形式の設定データを解析し、デフォルト値を
// 解決して最終的な設定を返します。
func ParseAndResolveYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのYAML解析に失敗しました: %w", err)
	}
	return resolve(cfg)
}

// resolve は、バージョンの互換性を検証し、ゼロ値のままのフィールドに
// デフォルト値を補完します。
func resolve(cfg *Config) (*Config, error) {
	if cfg.ConfigVersion != CompatibleVersion {
		return nil, fmt.Errorf("サポートされていない設定バージョン '%s' です。'%s' が必要です。", cfg.ConfigVersion, CompatibleVersion)
	}

	def := Default()
	if cfg.Network.UserAgent == "" {
		cfg.Network.UserAgent = def.Network.UserAgent
	}
	if cfg.Network.DefaultHeaders == nil {
		cfg.Network.DefaultHeaders = def.Network.DefaultHeaders
	}
	if cfg.Network.PerDomainIntervalMillis == nil {
		cfg.Network.PerDomainIntervalMillis = def.Network.PerDomainIntervalMillis
	}
	if cfg.Network.RequestTimeoutMillis <= 0 {
		cfg.Network.RequestTimeoutMillis = def.Network.RequestTimeoutMillis
	}
	if cfg.Extract.OutputPath == "" {
		cfg.Extract.OutputPath = def.Extract.OutputPath
	}
	if cfg.Extract.Method == "" {
		cfg.Extract.Method = def.Extract.Method
	}
	if cfg.Download.OutputDirectory == "" {
		cfg.Download.OutputDirectory = def.Download.OutputDirectory
	}
	if cfg.Download.RequestIntervalMillis < 0 {
		cfg.Download.RequestIntervalMillis = def.Download.RequestIntervalMillis
	}
	if cfg.Download.RetryCount < 0 {
		cfg.Download.RetryCount = def.Download.RetryCount
	}
	if cfg.Download.RetryWaitMillis <= 0 {
		cfg.Download.RetryWaitMillis = def.Download.RetryWaitMillis
	}
	if cfg.Download.MetadataIndexPath == "" {
		cfg.Download.MetadataIndexPath = def.Download.MetadataIndexPath
	}
	return cfg, nil
}

// computeLineAndColumn は、バイトオフセットから行番号と列番号（1始まり）を計算します。
func computeLineAndColumn(data []byte, offset int64) (int, int) {
	if offset < 0 || int(offset) > len(data) {
		return 0, 0
	}
	line := 1
	lastLineStart := 0
	for i, b := range data {
		if int64(i) == offset {
			return line, i - lastLineStart + 1
		}
		if b == '\n' {
			line++
			lastLineStart = i + 1
		}
	}
	return line, int(offset) - lastLineStart + 1
}
