// Package network は、GIIFのHTTP通信に関する機能を提供します。
// ブラウザを模倣したヘッダー群と、ドメインごとのレートリミッターを
// カプセル化した、より高レベルなHTTPクライアントを実装しています。
package network

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"GoInstaImageFetcher/internal/config"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

// HTTPError は、HTTPリクエストで発生したエラーとステータスコードを保持します。
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsRetryable は、このエラーがリトライ可能かどうかを判定します。
// 429 Too Many Requests と500番台はサーバー側の一時的な問題の可能性があるため
// リトライ可能、それ以外の400番台（404, 403など）はリトライしても無駄と判定します。
func (e *HTTPError) IsRetryable() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return false
	}
	return true
}

// Response は、Getの結果として返されるレスポンスの内容です。
type Response struct {
	Body        []byte
	ContentType string
}

// Client は、ブラウザ相当のヘッダーとドメインごとのレートリミッターを持つ
// HTTPクライアントです。Accept-Encodingを自前で送るため、ボディの展開
// (gzip / deflate / br) もこのクライアントが行います。
type Client struct {
	httpClient         *http.Client
	userAgent          string
	defaultHeaders     map[string]string
	rateLimiters       map[string]*rate.Limiter // ホスト名ごとのレートリミッター
	rateLimitersMutex  sync.Mutex               // rateLimitersへのアクセスを保護するMutex
	perDomainIntervals map[string]int           // ドメインごとの設定間隔
}

// NewClient は NetworkSettings に基づいて HTTP クライアントを初期化し、
// ドメインごとのレートリミッターを設定します。
func NewClient(settings config.NetworkSettings) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jarの作成に失敗しました: %w", err)
	}

	timeout := time.Duration(settings.RequestTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second // デフォルトタイムアウト
	}

	httpClient := &http.Client{
		Jar:     jar,
		Timeout: timeout,
	}

	// ドメインごとのレートリミッターを構築
	rateLimiters := make(map[string]*rate.Limiter)
	for domain, intervalMillis := range settings.PerDomainIntervalMillis {
		if intervalMillis <= 0 {
			continue
		}
		limiter := rate.NewLimiter(rate.Every(time.Duration(intervalMillis)*time.Millisecond), 1)
		rateLimiters[domain] = limiter
	}

	return &Client{
		httpClient:         httpClient,
		userAgent:          settings.UserAgent,
		defaultHeaders:     settings.DefaultHeaders,
		rateLimiters:       rateLimiters,
		perDomainIntervals: settings.PerDomainIntervalMillis,
	}, nil
}

// Get は、指定されたURLにブラウザ相当のヘッダー付きでGETリクエストを送信し、
// 展開済みのレスポンスボディとContent-Typeを返します。
// 2xx以外のステータスは *HTTPError として返します。
func (c *Client) Get(ctx context.Context, reqURL string) (*Response, error) {
	parsedURL, err := url.Parse(reqURL)
	if err != nil {
		return nil, fmt.Errorf("リクエストURLの解析に失敗しました (%s): %w", reqURL, err)
	}

	// ドメインごとのレートリミッターを取得し、待機
	limiter := c.getLimiterForHost(parsedURL.Hostname())
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レートリミッター待機中にエラーが発生しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエストの作成に失敗しました (%s): %w", reqURL, err)
	}

	// デフォルトヘッダーを全て設定
	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	// User-Agentも設定
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GETリクエストの送信に失敗しました (%s): %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました (%s): %w", reqURL, err)
	}

	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// decodeBody は、Content-Encodingに応じてレスポンスボディを展開して読み込みます。
// Accept-Encodingヘッダーを自前で設定しているため、net/httpの自動展開は働きません。
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip展開に失敗しました: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}
	return io.ReadAll(reader)
}

// getLimiterForHost は、指定されたホスト名に対応するレートリミッターを返します。
// 存在しない場合は新しく生成します。Wait自体はロックの外で行います。
func (c *Client) getLimiterForHost(host string) *rate.Limiter {
	c.rateLimitersMutex.Lock()
	defer c.rateLimitersMutex.Unlock()

	if limiter, exists := c.rateLimiters[host]; exists {
		return limiter
	}

	// per_domain_interval_msが与えられたドメインだけを絞り、未設定の
	// ドメインは制限なしとする。リクエスト間隔の基本的な制御は
	// ダウンローダー側のスリープが担う。
	var newLimiter *rate.Limiter
	if val, ok := c.perDomainIntervals[host]; ok && val > 0 {
		newLimiter = rate.NewLimiter(rate.Every(time.Duration(val)*time.Millisecond), 1)
	} else {
		newLimiter = rate.NewLimiter(rate.Inf, 1)
	}

	c.rateLimiters[host] = newLimiter
	return newLimiter
}
