package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

func TestPrompt(t *testing.T) {
	t.Run("空プロンプトは拒否される", func(t *testing.T) {
		err := Prompt("")
		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("空白のみのプロンプトも拒否される", func(t *testing.T) {
		assert.Error(t, Prompt("   \t\n"))
	})

	t.Run("境界値: 上限ちょうどは通り、1文字超えると失敗する", func(t *testing.T) {
		atLimit := strings.Repeat("a", domain.MaxPromptLength)
		assert.NoError(t, Prompt(atLimit))

		overLimit := atLimit + "a"
		err := Prompt(overLimit)
		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestNegativePrompt(t *testing.T) {
	assert.NoError(t, NegativePrompt(""))
	assert.NoError(t, NegativePrompt(strings.Repeat("x", domain.MaxNegativePromptLength)))
	assert.Error(t, NegativePrompt(strings.Repeat("x", domain.MaxNegativePromptLength+1)))
}

func TestModel(t *testing.T) {
	t.Run("登録済みモデルは通る", func(t *testing.T) {
		assert.NoError(t, Model("gemini-2.5-flash-image"))
		assert.NoError(t, Model("imagen-4-fast"))
	})

	t.Run("未知のモデルはエラーになり、メッセージが有効なモデルを列挙する", func(t *testing.T) {
		err := Model("stable-diffusion-xl")
		require.Error(t, err)
		for _, name := range domain.AllModels() {
			assert.Contains(t, err.Error(), name)
		}
	})
}

func TestAspectRatio(t *testing.T) {
	for _, ratio := range domain.AspectRatios {
		assert.NoError(t, AspectRatio(ratio))
	}

	err := AspectRatio("7:3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "16:9", "メッセージは有効な比率を列挙すること")
}

func TestCount(t *testing.T) {
	t.Run("両端を含む範囲チェック", func(t *testing.T) {
		assert.Error(t, Count(0))
		assert.NoError(t, Count(1))
		assert.NoError(t, Count(domain.MaxImagesPerRequest))
		assert.Error(t, Count(domain.MaxImagesPerRequest+1))
	})
}

func TestOutputFormat(t *testing.T) {
	assert.NoError(t, OutputFormat("png"))
	assert.NoError(t, OutputFormat("JPEG"), "大文字も許容する")
	assert.Error(t, OutputFormat("bmp"))
}

func TestSeed(t *testing.T) {
	var negative int64 = -1
	var zero int64
	assert.NoError(t, Seed(nil))
	assert.NoError(t, Seed(&zero))
	assert.Error(t, Seed(&negative))
}

func TestPersonGeneration(t *testing.T) {
	assert.NoError(t, PersonGeneration(""))
	assert.NoError(t, PersonGeneration("allow_adult"))
	assert.Error(t, PersonGeneration("allow_robots"))
}

func TestPrompts(t *testing.T) {
	t.Run("空の一覧は拒否される", func(t *testing.T) {
		assert.Error(t, Prompts(nil))
	})

	t.Run("不正な要素はインデックス付きで報告される", func(t *testing.T) {
		err := Prompts([]string{"a red apple", "", "a sunset"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "インデックス 1")
	})

	t.Run("全要素が有効なら通る", func(t *testing.T) {
		assert.NoError(t, Prompts([]string{"a red apple", "a sunset"}))
	})
}

func TestConcurrency(t *testing.T) {
	assert.Error(t, Concurrency(0))
	assert.NoError(t, Concurrency(1))
	assert.NoError(t, Concurrency(domain.MaxBatchConcurrency))
	assert.Error(t, Concurrency(domain.MaxBatchConcurrency+1))
}

func TestRequest(t *testing.T) {
	valid := domain.GenerationRequest{
		Prompt:       "a red apple",
		Model:        "imagen-4",
		AspectRatio:  "1:1",
		Count:        1,
		OutputFormat: "png",
	}

	t.Run("有効なリクエストは通る", func(t *testing.T) {
		require.NoError(t, Request(valid))
	})

	t.Run("冪等性: 再検証しても結果は変わらない", func(t *testing.T) {
		require.NoError(t, Request(valid))
		require.NoError(t, Request(valid))
	})

	t.Run("フィールド単位の違反が検出される", func(t *testing.T) {
		broken := valid
		broken.AspectRatio = "bad"
		assert.Error(t, Request(broken))
	})

	t.Run("任意フィールドのゼロ値は指定なしとして通る", func(t *testing.T) {
		minimal := domain.GenerationRequest{
			Prompt: "a red apple",
			Model:  "gemini-2.5-flash-image",
		}
		assert.NoError(t, Request(minimal))
	})
}
