// Package config は、アプリケーションの設定ファイル(config.json / config.yaml)の
// 構造定義と、その読み込み・デフォルト値の解決に関する機能を提供します。
// 設定ファイルは任意であり、全ての項目にはコマンドラインだけで動作する
// デフォルト値が用意されています。
package config

// Config は設定ファイル全体を表すルート構造体です。
type Config struct {
	ConfigVersion string           `json:"config_version" yaml:"config_version"`
	Network       NetworkSettings  `json:"network" yaml:"network"`
	Extract       ExtractSettings  `json:"extract" yaml:"extract"`
	Download      DownloadSettings `json:"download" yaml:"download"`
	EnableLogFile bool             `json:"enable_log_file" yaml:"enable_log_file"`
	LogFilePath   string           `json:"log_file_path,omitempty" yaml:"log_file_path,omitempty"`
}

// NetworkSettings は、HTTPリクエストに関するグローバルな設定を保持します。
type NetworkSettings struct {
	UserAgent               string            `json:"user_agent" yaml:"user_agent"`
	DefaultHeaders          map[string]string `json:"default_headers" yaml:"default_headers"`
	PerDomainIntervalMillis map[string]int    `json:"per_domain_interval_ms" yaml:"per_domain_interval_ms"`
	RequestTimeoutMillis    int               `json:"request_timeout_ms" yaml:"request_timeout_ms"`
}

// ExtractSettings は、URL抽出 (giif-extract) に関する設定を保持します。
type ExtractSettings struct {
	// OutputPath は抽出したURLリストの出力先です。
	OutputPath string `json:"output_path" yaml:"output_path"`
	// Method は抽出方法です。"network" / "text" / "html" / "auto" のいずれか。
	Method string `json:"method" yaml:"method"`
}

// DownloadSettings は、画像ダウンロード (giif-download) に関する設定を保持します。
type DownloadSettings struct {
	OutputDirectory       string `json:"output_directory" yaml:"output_directory"`
	RequestIntervalMillis int    `json:"request_interval_ms" yaml:"request_interval_ms"`
	RetryCount            int    `json:"retry_count" yaml:"retry_count"`
	RetryWaitMillis       int    `json:"retry_wait_ms" yaml:"retry_wait_ms"`
	EnableMetadataIndex   bool   `json:"enable_metadata_index" yaml:"enable_metadata_index"`
	MetadataIndexPath     string `json:"metadata_index_path,omitempty" yaml:"metadata_index_path,omitempty"`
}

// Default は、設定ファイルなしで動作するためのデフォルト設定を返します。
// HTTPヘッダーは一般的なブラウザの画像リクエストを模倣した値です。
func Default() *Config {
	return &Config{
		ConfigVersion: CompatibleVersion,
		Network: NetworkSettings{
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			DefaultHeaders: map[string]string{
				"Accept":          "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.9",
				"Accept-Encoding": "gzip, deflate, br",
				"Referer":         "https://www.instagram.com/",
				"Sec-Fetch-Dest":  "image",
				"Sec-Fetch-Mode":  "no-cors",
				"Sec-Fetch-Site":  "cross-site",
			},
			PerDomainIntervalMillis: map[string]int{},
			RequestTimeoutMillis:    30000,
		},
		Extract: ExtractSettings{
			OutputPath: "instagram_urls.txt",
			Method:     "auto",
		},
		Download: DownloadSettings{
			OutputDirectory:       "instagram_images",
			RequestIntervalMillis: 500,
			RetryCount:            3,
			RetryWaitMillis:       1000,
			EnableMetadataIndex:   false,
			MetadataIndexPath:     "download_index.csv",
		},
	}
}
