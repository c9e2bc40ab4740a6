// Package enhancer は画像生成プロンプトの自動強化を提供します。
// テキスト生成モデルにプロンプトを渡し、構図・照明・質感などの
// 専門的なディテールを補った強化版を得ます。
package enhancer

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// systemInstruction は強化モデルに与える固定のシステム指示です。
const systemInstruction = `You are an expert prompt engineer for AI image generation models. Your task is to enhance user prompts to produce the best possible results.

Follow these guidelines:
1. Preserve the user's core intent and subject matter
2. Add specific, professional details about:
   - Composition (framing, perspective, angle)
   - Lighting (type, quality, direction, mood)
   - Materials and textures
   - Atmosphere and mood
   - Artistic style (if appropriate)
3. Use photographic and cinematic terminology when relevant
4. Be hyper-specific rather than generic
5. For portraits: describe features, expressions, clothing
6. For scenes: describe environment, weather, time of day
7. Keep prompts concise but detailed (aim for 100-300 words)
8. Output ONLY the enhanced prompt, no explanations`

// TextGenerator は強化に使うテキスト生成クライアントの最小インターフェースです。
type TextGenerator interface {
	GenerateText(ctx context.Context, model, prompt, systemInstruction string) (string, error)
}

// Context は強化指示に添える文脈ヒントです。
type Context struct {
	IsEditing            bool
	CharacterConsistency bool
	BlendImages          bool
	WorldKnowledge       bool
	AspectRatio          string
}

// Outcome は強化の結果です。失敗時も Prompt には必ず使えるプロンプトが入ります。
type Outcome struct {
	Prompt string
	Used   bool   // 強化版が採用されたかどうか
	Reason string // 採用されなかった場合の理由
}

// Enhancer はプロンプト強化サービスです。
type Enhancer struct {
	gen     TextGenerator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New は Enhancer を生成します。timeout が 0 以下の場合は 30 秒を使います。
func New(gen TextGenerator, model string, timeout time.Duration, logger *slog.Logger) *Enhancer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{gen: gen, model: model, timeout: timeout, logger: logger}
}

// Enhance はプロンプトを強化します。エラーは返しません。
// 強化に失敗した場合は元のプロンプトをそのまま返し、Reason に理由を載せます。
func (e *Enhancer) Enhance(ctx context.Context, original string, ec Context) Outcome {
	// 強化は補助機能なので、本体のタイムアウトより短い独自の期限を設けます。
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	instruction := buildInstruction(original, ec)

	enhanced, err := e.gen.GenerateText(ctx, e.model, instruction, systemInstruction)
	if err != nil {
		e.logger.Warn("プロンプト強化に失敗したため元のプロンプトを使用します", "error", err)
		return Outcome{Prompt: original, Used: false, Reason: err.Error()}
	}

	enhanced = strings.TrimSpace(enhanced)
	if enhanced == "" {
		e.logger.Warn("強化結果が空のため元のプロンプトを使用します")
		return Outcome{Prompt: original, Used: false, Reason: "強化結果が空でした"}
	}

	e.logger.Info("プロンプトを強化しました",
		"original_len", len(original), "enhanced_len", len(enhanced))
	return Outcome{Prompt: enhanced, Used: true}
}

// buildInstruction は文脈ヒント付きの強化指示文を組み立てます。
func buildInstruction(prompt string, ec Context) string {
	parts := []string{"Enhance this image generation prompt:\n\n" + prompt}

	if ec.IsEditing {
		parts = append(parts, "\nContext: This is for image editing/modification")
	}
	if ec.CharacterConsistency {
		parts = append(parts,
			"\nIMPORTANT: Describe the character with specific, consistent features "+
				"for use across multiple generations")
	}
	if ec.BlendImages {
		parts = append(parts,
			"\nContext: Multiple images will be blended. Describe how elements "+
				"should be composed naturally together")
	}
	if ec.WorldKnowledge {
		parts = append(parts,
			"\nContext: Include accurate real-world details for historical figures, "+
				"landmarks, or factual scenarios")
	}

	switch ec.AspectRatio {
	case "16:9", "21:9":
		parts = append(parts, "\nFormat: Wide landscape composition")
	case "9:16", "2:3", "3:4":
		parts = append(parts, "\nFormat: Vertical/portrait composition")
	}

	return strings.Join(parts, "\n")
}
