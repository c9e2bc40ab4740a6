package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

// PredictionClient は predict API（predictions コレクション）向けのクライアントです。
type PredictionClient struct {
	cfg Config
	hc  *http.Client
}

// NewPredictionClient は PredictionClient を初期化します。
func NewPredictionClient(cfg Config) *PredictionClient {
	return &PredictionClient{
		cfg: cfg,
		hc:  cfg.httpClient(),
	}
}

// PredictionRequest は予測系バックエンドへの適応済みリクエストです。
type PredictionRequest struct {
	Model            string
	Prompt           string
	NegativePrompt   string
	Count            int
	AspectRatio      string
	OutputMimeType   string
	PersonGeneration string
	// Seed は将来の上流対応に備えたワイヤ項目です。現行モデルの適応表では
	// 転送対象から外れているため、通常は nil のまま届きます。
	Seed *int64
}

// --- predict API のワイヤ構造 ---

type predictionInstance struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
}

type predictionParameters struct {
	SampleCount      int    `json:"sampleCount"`
	AspectRatio      string `json:"aspectRatio,omitempty"`
	OutputMimeType   string `json:"outputMimeType,omitempty"`
	PersonGeneration string `json:"personGeneration,omitempty"`
	Seed             *int64 `json:"seed,omitempty"`
}

type predictionAPIRequest struct {
	Instances  []predictionInstance `json:"instances"`
	Parameters predictionParameters `json:"parameters"`
}

type predictionEntry struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType,omitempty"`
}

type predictionAPIResponse struct {
	Predictions []predictionEntry `json:"predictions"`
}

// GenerateImage は 1 回の predict 呼び出しで指定枚数の画像を生成します。
// 複数枚の要求はこの 1 呼び出しに畳み込まれます（sampleCount）。
func (c *PredictionClient) GenerateImage(ctx context.Context, req PredictionRequest) (*Payload, error) {
	count := req.Count
	if count < 1 {
		count = 1
	}

	apiReq := predictionAPIRequest{
		Instances: []predictionInstance{{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
		}},
		Parameters: predictionParameters{
			SampleCount:      count,
			AspectRatio:      req.AspectRatio,
			OutputMimeType:   req.OutputMimeType,
			PersonGeneration: req.PersonGeneration,
			Seed:             req.Seed,
		},
	}

	reqBody, err := json.Marshal(apiReq)
	if err != nil {
		return nil, domain.NewError(domain.KindAPI, "リクエストの組み立てに失敗しました").WithCause(err)
	}

	// この API は API キーをクエリパラメータで受け取ります。
	url := fmt.Sprintf("%s/%s:predict?key=%s", c.cfg.baseURL(), domain.ModelID(req.Model), c.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, domain.NewError(domain.KindAPI, "HTTP リクエストの生成に失敗しました").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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

	var parsed predictionAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.NewError(domain.KindAPI,
			"レスポンスの JSON 解析に失敗しました").WithCause(err)
	}

	images := make([]Image, 0, len(parsed.Predictions))
	for _, entry := range parsed.Predictions {
		if entry.BytesBase64Encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(entry.BytesBase64Encoded)
		if err != nil {
			continue
		}
		mime := entry.MimeType
		if mime == "" {
			mime = req.OutputMimeType
		}
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, Image{Data: data, MimeType: mime})
	}

	if len(images) == 0 {
		return nil, noImageDataError(body)
	}
	return &Payload{Images: images}, nil
}
