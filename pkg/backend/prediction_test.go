package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

func newPredictionTestClient(t *testing.T, handler http.HandlerFunc) *PredictionClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewPredictionClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
}

func predictionsResponse(images ...[]byte) string {
	entries := make([]predictionEntry, 0, len(images))
	for _, img := range images {
		entries = append(entries, predictionEntry{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(img),
			MimeType:           "image/png",
		})
	}
	body, _ := json.Marshal(predictionAPIResponse{Predictions: entries})
	return string(body)
}

func TestPredictionClient_GenerateImage(t *testing.T) {
	ctx := context.Background()

	t.Run("成功: リクエストの組み立てと複数画像の抽出", func(t *testing.T) {
		var captured predictionAPIRequest
		var path, keyParam string

		client := newPredictionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			keyParam = r.URL.Query().Get("key")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Write([]byte(predictionsResponse([]byte("img-a"), []byte("img-b"))))
		})

		payload, err := client.GenerateImage(ctx, PredictionRequest{
			Model:            "imagen-4",
			Prompt:           "a mountain lake",
			NegativePrompt:   "blurry",
			Count:            2,
			AspectRatio:      "16:9",
			OutputMimeType:   "image/png",
			PersonGeneration: "allow_adult",
		})

		require.NoError(t, err)
		require.Len(t, payload.Images, 2)
		assert.Equal(t, []byte("img-a"), payload.Images[0].Data)
		assert.Equal(t, []byte("img-b"), payload.Images[1].Data)

		// 登録名からワイヤ上のモデル ID へ解決されること
		assert.Equal(t, "/models/imagen-4.0-generate-001:predict", path)
		assert.Equal(t, "test-key", keyParam)

		require.Len(t, captured.Instances, 1)
		assert.Equal(t, "a mountain lake", captured.Instances[0].Prompt)
		assert.Equal(t, "blurry", captured.Instances[0].NegativePrompt)
		assert.Equal(t, 2, captured.Parameters.SampleCount)
		assert.Equal(t, "16:9", captured.Parameters.AspectRatio)
		assert.Equal(t, "allow_adult", captured.Parameters.PersonGeneration)
		assert.Nil(t, captured.Parameters.Seed)
	})

	t.Run("枚数未指定は 1 枚に補正される", func(t *testing.T) {
		var captured predictionAPIRequest
		client := newPredictionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Write([]byte(predictionsResponse([]byte("one"))))
		})

		_, err := client.GenerateImage(ctx, PredictionRequest{Model: "imagen-4", Prompt: "p"})
		require.NoError(t, err)
		assert.Equal(t, 1, captured.Parameters.SampleCount)
	})

	t.Run("MIME 未設定のエントリは要求フォーマットで補完される", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte("raw"))
		client := newPredictionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"predictions":[{"bytesBase64Encoded":"` + encoded + `"}]}`))
		})

		payload, err := client.GenerateImage(ctx, PredictionRequest{
			Model:          "imagen-4-fast",
			Prompt:         "p",
			OutputMimeType: "image/jpeg",
		})
		require.NoError(t, err)
		require.Len(t, payload.Images, 1)
		assert.Equal(t, "image/jpeg", payload.Images[0].MimeType)
	})

	t.Run("predictions が空なら KindNoImageData になる", func(t *testing.T) {
		client := newPredictionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"predictions":[]}`))
		})

		_, err := client.GenerateImage(ctx, PredictionRequest{Model: "imagen-4", Prompt: "p"})
		require.Error(t, err)
		assert.Equal(t, domain.KindNoImageData, domain.KindOf(err))
	})

	t.Run("壊れた base64 のエントリは読み飛ばす", func(t *testing.T) {
		good := base64.StdEncoding.EncodeToString([]byte("good"))
		client := newPredictionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"predictions":[{"bytesBase64Encoded":"!!broken!!"},{"bytesBase64Encoded":"` + good + `","mimeType":"image/png"}]}`))
		})

		payload, err := client.GenerateImage(ctx, PredictionRequest{Model: "imagen-4", Prompt: "p"})
		require.NoError(t, err)
		require.Len(t, payload.Images, 1)
		assert.Equal(t, []byte("good"), payload.Images[0].Data)
	})

	t.Run("エラー分類は generateContent 側と共通", func(t *testing.T) {
		client := newPredictionTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
		})

		_, err := client.GenerateImage(ctx, PredictionRequest{Model: "imagen-4", Prompt: "p"})
		require.Error(t, err)
		assert.Equal(t, domain.KindRateLimit, domain.KindOf(err))
		assert.True(t, domain.IsRetryable(err))
	})
}
