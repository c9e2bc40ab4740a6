package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBackend(t *testing.T) {
	t.Run("登録簿は互いに素である", func(t *testing.T) {
		for name := range ContentModels {
			_, dup := PredictionModels[name]
			assert.False(t, dup, "model %q belongs to both registries", name)
		}
	})

	t.Run("解決は純粋関数である（同じ入力は常に同じ結果）", func(t *testing.T) {
		for _, name := range AllModels() {
			first := ResolveBackend(name)
			second := ResolveBackend(name)
			require.Equal(t, first, second, "model %q", name)
			assert.NotEqual(t, KindUnknown, first, "registered model %q must resolve", name)
		}
	})

	t.Run("コンテンツ系モデル", func(t *testing.T) {
		assert.Equal(t, KindContent, ResolveBackend("gemini-2.5-flash-image"))
	})

	t.Run("予測系モデル", func(t *testing.T) {
		assert.Equal(t, KindPrediction, ResolveBackend("imagen-4"))
		assert.Equal(t, KindPrediction, ResolveBackend("imagen-4-ultra"))
	})

	t.Run("未登録モデルは KindUnknown", func(t *testing.T) {
		assert.Equal(t, KindUnknown, ResolveBackend("dall-e-3"))
		assert.Equal(t, KindUnknown, ResolveBackend(""))
	})
}

func TestModelID(t *testing.T) {
	t.Run("予測系は models/ プレフィックス付きのIDに変換される", func(t *testing.T) {
		assert.Equal(t, "models/imagen-4.0-ultra-generate-001", ModelID("imagen-4-ultra"))
	})

	t.Run("コンテンツ系はそのままのID", func(t *testing.T) {
		assert.Equal(t, "gemini-2.5-flash-image", ModelID("gemini-2.5-flash-image"))
	})

	t.Run("未登録名は入力をそのまま返す", func(t *testing.T) {
		assert.Equal(t, "custom-model", ModelID("custom-model"))
	})
}

func TestAllModels(t *testing.T) {
	names := AllModels()
	require.Len(t, names, len(ContentModels)+len(PredictionModels))
	assert.IsIncreasing(t, names, "一覧はソート済みであること")
}
