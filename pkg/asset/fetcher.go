// Package asset は編集元画像など入力アセットの取得とパス解決を提供します。
// HTTP(S) の URL、GCS の gs:// URI、ローカルパスを同じ入口で扱います。
package asset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

// HTTPFetcher は HTTP(S) からバイト列を取得する最小インターフェースです。
type HTTPFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Reader は gs:// およびローカルパスを開く最小インターフェースです。
type Reader interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// ImageCacher は取得済み画像のキャッシュ操作を抽象化するインターフェースです。
type ImageCacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, d time.Duration)
}

// Fetched は取得したアセットです。
type Fetched struct {
	Data     []byte
	MimeType string
}

// Fetcher は入力画像の取得を担います。
type Fetcher struct {
	httpClient HTTPFetcher
	reader     Reader
	cache      ImageCacher
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewFetcher は依存関係を注入して Fetcher を生成します。
func NewFetcher(httpClient HTTPFetcher, reader Reader, cache ImageCacher, cacheTTL time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		httpClient: httpClient,
		reader:     reader,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Fetch は URI から画像を取得します。取得したデータが画像でない場合は
// KindValidation を返します。HTTP(S) はキャッシュと SSRF 検証を通します。
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*Fetched, error) {
	if cached, found := f.cacheGet(uri); found {
		return cached, nil
	}

	var data []byte
	var err error

	if isHTTPURL(uri) {
		if safe, serr := isSafeURL(uri); !safe || serr != nil {
			f.logger.Warn("SSRFの可能性がある、または不正なURLをブロックしました",
				"url", uri, "error", serr)
			return nil, domain.NewError(domain.KindValidation,
				"入力画像の URL が許可されていません: "+uri).WithCause(serr)
		}
		data, err = f.httpClient.FetchBytes(ctx, uri)
	} else {
		data, err = f.readAll(ctx, uri)
	}
	if err != nil {
		return nil, domain.NewError(domain.KindFileOperation,
			"入力画像の取得に失敗しました: "+uri).WithCause(err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, domain.Errorf(domain.KindValidation,
			"入力ファイルが画像ではありません (検出 MIME: %s): %s", mimeType, uri)
	}

	fetched := &Fetched{Data: data, MimeType: mimeType}
	f.cacheSet(uri, fetched)
	return fetched, nil
}

func (f *Fetcher) readAll(ctx context.Context, uri string) ([]byte, error) {
	rc, err := f.reader.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (f *Fetcher) cacheGet(uri string) (*Fetched, bool) {
	if f.cache == nil {
		return nil, false
	}
	cached, found := f.cache.Get(uri)
	if !found {
		return nil, false
	}
	fetched, ok := cached.(*Fetched)
	if !ok {
		f.logger.Warn("キャッシュデータが不正な型です", "uri", uri, "type", fmt.Sprintf("%T", cached))
		return nil, false
	}
	return fetched, true
}

func (f *Fetcher) cacheSet(uri string, fetched *Fetched) {
	if f.cache != nil {
		f.cache.Set(uri, fetched, f.cacheTTL)
	}
}

func isHTTPURL(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// isSafeURL は SSRF 対策として URL を検証します。
// 名前解決されたすべての IP アドレスに対してプライベート IP チェックを行います。
func isSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP

	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolvedIPs, err := net.LookupIP(host)
		if err != nil {
			return false, fmt.Errorf("名前解決失敗: %w", err)
		}
		ips = resolvedIPs
	}

	if len(ips) == 0 {
		return false, fmt.Errorf("IPが見つかりません")
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
