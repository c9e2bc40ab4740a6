package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

// ContentClient は generateContent API（インライン画像パーツ）向けのクライアントです。
// 画像生成に加えて、プロンプト強化が利用するテキスト生成も同じ資格情報で提供します。
type ContentClient struct {
	cfg Config
	hc  *http.Client
}

// NewContentClient は ContentClient を初期化します。
func NewContentClient(cfg Config) *ContentClient {
	return &ContentClient{
		cfg: cfg,
		hc:  cfg.httpClient(),
	}
}

// ContentRequest はコンテンツ系バックエンドへの適応済みリクエストです。
// ここに無いパラメータはこのバックエンドの契約外であり、適応時に破棄されています。
type ContentRequest struct {
	Model       string
	Prompt      string
	AspectRatio string
	Count       int

	// InputImage は編集リクエストの元画像です（任意）。
	InputImage     []byte
	InputImageMime string
}

// --- generateContent API のワイヤ構造 ---

type contentBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type contentPart struct {
	Text       string       `json:"text,omitempty"`
	InlineData *contentBlob `json:"inlineData,omitempty"`
	// InlineDataSnake は旧スネークケース表記のフィールドです。レスポンス側で両方を受理します。
	InlineDataSnake *contentBlob `json:"inline_data,omitempty"`
}

type contentTurn struct {
	Parts []contentPart `json:"parts"`
}

type contentImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type contentGenerationConfig struct {
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	CandidateCount     int                 `json:"candidateCount,omitempty"`
	ImageConfig        *contentImageConfig `json:"imageConfig,omitempty"`
}

type contentAPIRequest struct {
	Contents          []contentTurn            `json:"contents"`
	GenerationConfig  *contentGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *contentTurn             `json:"systemInstruction,omitempty"`
}

type contentCandidate struct {
	Content      contentTurn `json:"content"`
	FinishReason string      `json:"finishReason,omitempty"`
}

type contentAPIResponse struct {
	Candidates []contentCandidate `json:"candidates"`
}

// GenerateImage は 1 回の generateContent 呼び出しで画像を生成または編集します。
// 整形式の 2xx レスポンスでも画像が 0 件の場合は KindNoImageData を返します。
func (c *ContentClient) GenerateImage(ctx context.Context, req ContentRequest) (*Payload, error) {
	parts := make([]contentPart, 0, 2)

	// 編集リクエストでは元画像を先頭パーツとして添付します。
	if len(req.InputImage) > 0 {
		mime := req.InputImageMime
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, contentPart{InlineData: &contentBlob{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(req.InputImage),
		}})
	}

	// アスペクト比は生成設定に加えて、プロンプト末尾のヒントとしても添えます。
	promptText := req.Prompt
	if req.AspectRatio != "" {
		promptText = fmt.Sprintf("%s. Aspect ratio: %s", req.Prompt, req.AspectRatio)
	}
	parts = append(parts, contentPart{Text: promptText})

	genCfg := &contentGenerationConfig{
		ResponseModalities: []string{"Image"},
	}
	if req.AspectRatio != "" {
		genCfg.ImageConfig = &contentImageConfig{AspectRatio: req.AspectRatio}
	}
	if req.Count > 1 {
		genCfg.CandidateCount = req.Count
	}

	body, err := c.post(ctx, req.Model, contentAPIRequest{
		Contents:         []contentTurn{{Parts: parts}},
		GenerationConfig: genCfg,
	})
	if err != nil {
		return nil, err
	}

	var parsed contentAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.NewError(domain.KindAPI,
			"レスポンスの JSON 解析に失敗しました").WithCause(err)
	}

	images := extractInlineImages(parsed)
	if len(images) == 0 {
		return nil, noImageDataError(body)
	}
	return &Payload{Images: images}, nil
}

// GenerateText はプロンプト強化用のテキスト生成を行います。
// 最初の候補のテキストパーツを連結して返します。
func (c *ContentClient) GenerateText(ctx context.Context, model, prompt, systemInstruction string) (string, error) {
	apiReq := contentAPIRequest{
		Contents: []contentTurn{{Parts: []contentPart{{Text: prompt}}}},
	}
	if systemInstruction != "" {
		apiReq.SystemInstruction = &contentTurn{Parts: []contentPart{{Text: systemInstruction}}}
	}

	body, err := c.post(ctx, model, apiReq)
	if err != nil {
		return "", err
	}

	var parsed contentAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", domain.NewError(domain.KindAPI,
			"レスポンスの JSON 解析に失敗しました").WithCause(err)
	}
	if len(parsed.Candidates) == 0 {
		return "", domain.NewError(domain.KindAPI, "テキスト候補が返されませんでした")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// post は generateContent エンドポイントへの 1 回の POST を実行します。
func (c *ContentClient) post(ctx context.Context, model string, apiReq contentAPIRequest) ([]byte, error) {
	reqBody, err := json.Marshal(apiReq)
	if err != nil {
		return nil, domain.NewError(domain.KindAPI, "リクエストの組み立てに失敗しました").WithCause(err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.baseURL(), domain.ModelID(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, domain.NewError(domain.KindAPI, "HTTP リクエストの生成に失敗しました").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, domain.NewError(domain.KindAPI, "HTTP リクエストに失敗しました").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewError(domain.KindAPI, "レスポンスボディの読み取りに失敗しました").WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyHTTPError(resp.StatusCode, body)
	}
	return body, nil
}

// extractInlineImages は全候補の全パーツからインライン画像を取り出します。
func extractInlineImages(parsed contentAPIResponse) []Image {
	var images []Image
	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			blob := part.InlineData
			if blob == nil {
				blob = part.InlineDataSnake
			}
			if blob == nil || blob.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(blob.Data)
			if err != nil {
				continue
			}
			mime := blob.MimeType
			if mime == "" {
				mime = "image/png"
			}
			images = append(images, Image{Data: data, MimeType: mime})
		}
	}
	return images
}
