// Package backend は、2 つの上流画像生成 API への薄いクライアントを提供します。
// 各クライアントは 1 リクエストにつき 1 回だけ HTTP 呼び出しを行い、
// 非 2xx をエラー分類へ、「2xx だが画像 0 件」を KindNoImageData へ対応付けます。
// リトライはここでは行いません（リトライ方針は呼び出し側の責務です）。
package backend

import (
	"net/http"
	"time"
)

// DefaultBaseURL は Generative Language API の公開エンドポイントです。
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config はクライアント共通の接続設定です。
type Config struct {
	APIKey  string
	BaseURL string        // 空なら DefaultBaseURL
	Timeout time.Duration // HTTP 呼び出し境界で強制されるタイムアウト
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c Config) httpClient() *http.Client {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Image は生成された 1 枚の画像データです。
type Image struct {
	Data     []byte
	MimeType string
}

// Payload は 1 回のバックエンド呼び出しの解析済み結果です。
type Payload struct {
	Images []Image
}
