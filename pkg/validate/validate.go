// Package validate は、ネットワークに出る前の入力検証を担います。
// 各関数は 1 フィールドを検査し、違反時には利用者向けメッセージを持つ
// KindValidation のエラーを返します（bool は返しません）。
// 検証の失敗はそのリクエストにとって致命的であり、リトライもフォールバックもしません。
package validate

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

// Prompt はプロンプトが空でなく、上限長以内であることを検証します。
func Prompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return domain.NewError(domain.KindValidation, "プロンプトが空です")
	}
	if len(prompt) > domain.MaxPromptLength {
		return domain.Errorf(domain.KindValidation,
			"プロンプトが長すぎます: %d 文字（上限 %d）", len(prompt), domain.MaxPromptLength)
	}
	return nil
}

// NegativePrompt はネガティブプロンプトの上限長を検証します。空は許容します。
func NegativePrompt(negative string) error {
	if len(negative) > domain.MaxNegativePromptLength {
		return domain.Errorf(domain.KindValidation,
			"ネガティブプロンプトが長すぎます: %d 文字（上限 %d）", len(negative), domain.MaxNegativePromptLength)
	}
	return nil
}

// Model はモデル名がいずれかの登録簿に存在することを検証します。
func Model(model string) error {
	if domain.ResolveBackend(model) == domain.KindUnknown {
		return domain.Errorf(domain.KindValidation,
			"未知のモデル '%s' です。利用可能なモデル: %s", model, strings.Join(domain.AllModels(), ", "))
	}
	return nil
}

// AspectRatio はサポート済みのアスペクト比であることを検証します。
func AspectRatio(ratio string) error {
	if !slices.Contains(domain.AspectRatios, ratio) {
		return domain.Errorf(domain.KindValidation,
			"未対応のアスペクト比 '%s' です。利用可能な比率: %s", ratio, strings.Join(domain.AspectRatios, ", "))
	}
	return nil
}

// Count は生成枚数が 1 以上、上限以下（両端含む）であることを検証します。
func Count(count int) error {
	if count < 1 {
		return domain.Errorf(domain.KindValidation, "生成枚数は 1 以上を指定してください: %d", count)
	}
	if count > domain.MaxImagesPerRequest {
		return domain.Errorf(domain.KindValidation,
			"生成枚数が上限を超えています: %d（上限 %d）", count, domain.MaxImagesPerRequest)
	}
	return nil
}

// OutputFormat は出力フォーマット名を検証します。大文字小文字は区別しません。
func OutputFormat(format string) error {
	if _, ok := domain.ImageFormats[strings.ToLower(format)]; !ok {
		names := make([]string, 0, len(domain.ImageFormats))
		for name := range domain.ImageFormats {
			names = append(names, name)
		}
		slices.Sort(names)
		return domain.Errorf(domain.KindValidation,
			"未対応の出力フォーマット '%s' です。利用可能: %s", format, strings.Join(names, ", "))
	}
	return nil
}

// Seed はシード値が非負であることを検証します。nil は「指定なし」として許容します。
func Seed(seed *int64) error {
	if seed != nil && *seed < 0 {
		return domain.Errorf(domain.KindValidation, "シード値は非負である必要があります: %d", *seed)
	}
	return nil
}

// PersonGeneration は人物生成ポリシーの値を検証します。空は許容します。
func PersonGeneration(policy string) error {
	if policy == "" {
		return nil
	}
	if !slices.Contains(domain.PersonGenerationOptions, policy) {
		return domain.Errorf(domain.KindValidation,
			"未対応の人物生成ポリシー '%s' です。利用可能: %s",
			policy, strings.Join(domain.PersonGenerationOptions, ", "))
	}
	return nil
}

// Prompts はバッチ用のプロンプト一覧を検証します。
// 個別の違反には元のインデックスを添えて報告します。
func Prompts(prompts []string) error {
	if len(prompts) == 0 {
		return domain.NewError(domain.KindValidation, "プロンプト一覧が空です")
	}
	for i, prompt := range prompts {
		if err := Prompt(prompt); err != nil {
			return domain.Errorf(domain.KindValidation,
				"インデックス %d のプロンプトが不正です: %v", i, err)
		}
	}
	return nil
}

// Concurrency はバッチの並列数が 1 以上、上限以下であることを検証します。
func Concurrency(limit int) error {
	if limit < 1 {
		return domain.Errorf(domain.KindValidation, "並列数は 1 以上を指定してください: %d", limit)
	}
	if limit > domain.MaxBatchConcurrency {
		return domain.Errorf(domain.KindValidation,
			"並列数が上限を超えています: %d（上限 %d）", limit, domain.MaxBatchConcurrency)
	}
	return nil
}

// Request は GenerationRequest 全体をまとめて検証します。
// ゼロ値のフィールドは「指定なし」としてバックエンド側の既定値に委ねます。
// 副作用はなく、有効なリクエストを再検証しても結果は変わりません。
func Request(req domain.GenerationRequest) error {
	if err := Prompt(req.Prompt); err != nil {
		return err
	}
	if err := Model(req.Model); err != nil {
		return err
	}
	if req.AspectRatio != "" {
		if err := AspectRatio(req.AspectRatio); err != nil {
			return err
		}
	}
	if req.Count != 0 {
		if err := Count(req.Count); err != nil {
			return err
		}
	}
	if req.OutputFormat != "" {
		if err := OutputFormat(req.OutputFormat); err != nil {
			return err
		}
	}
	if err := NegativePrompt(req.NegativePrompt); err != nil {
		return err
	}
	if err := Seed(req.Seed); err != nil {
		return err
	}
	return PersonGeneration(req.PersonGeneration)
}

// personKeywords は人物への言及を推測するためのキーワードです。
var personKeywords = []string{
	"person", "people", "human", "man", "woman", "men", "women",
	"boy", "girl", "child", "children", "face", "portrait",
}

// WarnPersonPolicy は「プロンプトが人物に言及しているのに人物生成が禁止されている」
// 組み合わせを検知して警告を記録します。上流がこの場合に黙って 0 枚を返すことが
// あると知られていますが、挙動が確定的ではないため、拒否ではなく警告に留めます。
func WarnPersonPolicy(prompt, policy string) {
	if policy != "dont_allow" {
		return
	}
	lowered := strings.ToLower(prompt)
	for _, keyword := range personKeywords {
		if strings.Contains(lowered, keyword) {
			slog.Warn("プロンプトが人物に言及していますが、人物生成ポリシーは禁止になっています。画像が返らない可能性があります",
				"keyword", keyword, "policy", policy)
			return
		}
	}
}
