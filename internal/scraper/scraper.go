// Package scraper は求人ページを取得し、求人らしいリンクを抽出する。
// 結果は参考情報であり、スコアリングや再試行は行わない。
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/jobtracker/internal/metrics"
	"github.com/hitoshi/jobtracker/internal/model"
)

const (
	// DefaultTimeout は1回の取得のタイムアウト。
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodySize は読み込むレスポンスボディの上限。
	DefaultMaxBodySize int64 = 5 * 1024 * 1024
	// DefaultKeywordHint はヒント未指定時のCLI既定値。
	DefaultKeywordHint = "machine learning"
)

// ブラウザ相当のリクエストヘッダー。
// Accept-EncodingはTransportがgzipを付与し、展開も行う。
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Connection":                "keep-alive",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
}

// URLGuard はSSRF検証のインターフェース。
// security.Guardを抽象化し、テストではnilを渡して検証を無効にする。
type URLGuard interface {
	Validate(rawURL string) error
	NewClient(timeout time.Duration) *http.Client
}

// Scraper は求人ページの取得とリンク抽出を行う。
type Scraper struct {
	guard       URLGuard
	client      *http.Client
	maxBodySize int64
	logger      *slog.Logger
	metrics     metrics.MetricsCollector
}

// NewScraper はScraperを生成する。
// guardがnilの場合はSSRF検証を行わず、通常のhttp.Clientを使う。
// timeoutとmaxBodySizeが0以下の場合はデフォルト値を使う。
func NewScraper(
	guard URLGuard,
	timeout time.Duration,
	maxBodySize int64,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
) *Scraper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.Nop{}
	}

	client := &http.Client{Timeout: timeout}
	if guard != nil {
		client = guard.NewClient(timeout)
	}

	return &Scraper{
		guard:       guard,
		client:      client,
		maxBodySize: maxBodySize,
		logger:      logger,
		metrics:     collector,
	}
}

// FetchAndExtractLinks はpageURLを1回だけGETし、求人らしいリンクを返す。
//
// 取得失敗や2xx以外の応答では空のリストとエラーを返す。
// レスポンスがRSS/Atomフィードの場合は各記事をリンクとして扱う。
func (s *Scraper) FetchAndExtractLinks(ctx context.Context, pageURL, hint string) ([]string, error) {
	start := time.Now()

	if s.guard != nil {
		if err := s.guard.Validate(pageURL); err != nil {
			s.fail("invalid_url", pageURL, err)
			return nil, err
		}
	}
	if u, err := url.Parse(pageURL); err != nil || u.Scheme == "" || u.Host == "" {
		apiErr := model.NewInvalidURLError(fmt.Sprintf("cannot resolve links against %q", pageURL))
		s.fail("invalid_url", pageURL, apiErr)
		return nil, apiErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		apiErr := model.NewInvalidURLError(err.Error())
		s.fail("invalid_url", pageURL, apiErr)
		return nil, apiErr
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	s.logger.Info("求人ページを取得します", slog.String("url", pageURL), slog.String("keyword_hint", hint))

	resp, err := s.client.Do(req)
	if err != nil {
		apiErr := model.NewFetchFailedError(err.Error())
		s.fail("network", pageURL, apiErr)
		return nil, apiErr
	}
	defer resp.Body.Close()

	s.metrics.RecordHTTPStatus(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := model.NewFetchFailedError(fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode))
		s.fail("http_status", pageURL, apiErr)
		return nil, apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		apiErr := model.NewFetchFailedError(fmt.Sprintf("read body: %v", err))
		s.fail("read_body", pageURL, apiErr)
		return nil, apiErr
	}

	anchors := s.anchors(resp.Header.Get("Content-Type"), body, pageURL)
	links := FilterLinks(anchors, pageURL, hint)

	duration := time.Since(start)
	s.metrics.RecordScrapeLatency(duration)
	s.metrics.RecordScrapeSuccess(len(links))

	for _, link := range links {
		s.logger.Debug("求人リンク候補を検出しました", slog.String("link", link))
	}
	s.logger.Info("求人ページの解析が完了しました",
		slog.String("url", pageURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("anchors", len(anchors)),
		slog.Int("links", len(links)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return links, nil
}

// anchors はレスポンスからリンク一覧を取り出す。
// フィードとして解析できない場合はHTMLとして扱う。
func (s *Scraper) anchors(contentType string, body []byte, pageURL string) []Anchor {
	if IsFeed(contentType, body) {
		anchors, err := ExtractFeedAnchors(body)
		if err == nil {
			return anchors
		}
		s.logger.Warn("フィードのパースに失敗したためHTMLとして解析します",
			slog.String("url", pageURL),
			slog.String("error", err.Error()),
		)
	}
	return ExtractAnchors(body)
}

func (s *Scraper) fail(reason, pageURL string, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeSSRFBlocked {
		reason = "ssrf_blocked"
	}
	s.metrics.RecordScrapeFailure(reason)
	s.logger.Warn("求人ページの取得に失敗しました",
		slog.String("url", pageURL),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)
}
