package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/go-imagegen-kit/internal/builder"
	"github.com/shouni/go-imagegen-kit/internal/config"
	"github.com/shouni/go-imagegen-kit/pkg/domain"
	"github.com/shouni/go-imagegen-kit/pkg/validate"
)

// ExecuteGenerate は、1 件のプロンプトから画像を生成して保存するのだ。
func ExecuteGenerate(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	req := buildRequest(cfg)
	req.Prompt = cfg.Options.Prompt

	validate.WarnPersonPolicy(req.Prompt, req.PersonGeneration)

	results, err := appCtx.Service.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("画像生成に失敗したのだ: %w", err)
	}

	paths, err := appCtx.Saver.SaveAll(ctx, results)
	if err != nil {
		return fmt.Errorf("画像の保存に失敗したのだ: %w", err)
	}

	for _, p := range paths {
		slog.Info("保存完了なのだ", "path", p)
	}
	slog.Info("画像生成が完了したのだ！", "images", len(paths))
	return nil
}

// ExecuteBatch は、プロンプト一覧ファイルを読み込んで並列生成を行い、
// 各画像とマニフェストを保存するのだ。
func ExecuteBatch(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	prompts, err := readPrompts(ctx, appCtx, cfg.Options.PromptsFile)
	if err != nil {
		return err
	}
	if len(prompts) == 0 {
		return fmt.Errorf("プロンプトが 1 件もありません: %s", cfg.Options.PromptsFile)
	}
	if err := validate.Prompts(prompts); err != nil {
		return err
	}
	if cfg.Options.Concurrency > 0 {
		if err := validate.Concurrency(cfg.Options.Concurrency); err != nil {
			return err
		}
	}

	shared := buildRequest(cfg)
	for _, p := range prompts {
		validate.WarnPersonPolicy(p, shared.PersonGeneration)
	}

	outcome := appCtx.BatchRunner.Run(ctx, prompts, shared)

	// 成功した項目の画像を保存するのだ
	savedPaths := make(map[int][]string, len(outcome.Items))
	for _, item := range outcome.Items {
		if item.Status != domain.BatchSucceeded {
			continue
		}
		paths, err := appCtx.Saver.SaveAll(ctx, item.Results)
		if err != nil {
			slog.Error("バッチ項目の保存に失敗したのだ", "index", item.Index, "error", err)
			continue
		}
		savedPaths[item.Index] = paths
	}

	manifestPath, err := appCtx.Saver.WriteManifest(ctx, outcome, savedPaths)
	if err != nil {
		return fmt.Errorf("マニフェストの保存に失敗したのだ: %w", err)
	}

	succeeded, failed, skipped := outcome.Counts()
	slog.Info("バッチ処理が完了したのだ！",
		"succeeded", succeeded, "failed", failed, "skipped", skipped, "manifest", manifestPath)

	if succeeded == 0 {
		return fmt.Errorf("すべてのバッチ項目が失敗またはスキップされました")
	}
	return nil
}

// buildRequest は CLI オプションから共有の生成リクエストを組み立てるのだ。
// モデル未指定時は設定の既定モデルに倒し、強化は環境変数スイッチでも無効化できるのだ。
func buildRequest(cfg *config.Config) domain.GenerationRequest {
	opts := cfg.Options

	model := opts.Model
	if model == "" {
		// 編集（入力画像あり）は generateContent 系でしか扱えないのだ
		if opts.InputImage != "" {
			model = cfg.ContentModel
		} else {
			model = cfg.PredictionModel
		}
	}

	req := domain.GenerationRequest{
		Model:                        model,
		Enhance:                      opts.Enhance && cfg.EnableEnhancement,
		AspectRatio:                  opts.AspectRatio,
		Count:                        opts.Count,
		OutputFormat:                 opts.OutputFormat,
		NegativePrompt:               opts.NegativePrompt,
		PersonGeneration:             opts.PersonGeneration,
		InputImagePath:               opts.InputImage,
		MaintainCharacterConsistency: opts.CharacterConsistency,
		BlendImages:                  opts.BlendImages,
		UseWorldKnowledge:            opts.WorldKnowledge,
	}
	if opts.Seed >= 0 {
		seed := opts.Seed
		req.Seed = &seed
	}
	return req
}

// readPrompts はプロンプト一覧を読み込むのだ。"-" を指定すると標準入力から読むのだ。
// 空行と # で始まるコメント行は読み飛ばすのだ。
func readPrompts(ctx context.Context, appCtx *builder.AppContext, source string) ([]string, error) {
	var rc io.ReadCloser
	if source == "-" {
		rc = io.NopCloser(os.Stdin)
	} else {
		opened, err := appCtx.Reader.Open(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("プロンプト一覧 '%s' の読み込みに失敗しました: %w", source, err)
		}
		rc = opened
	}
	defer rc.Close()

	var prompts []string
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("プロンプト一覧の読み取り中にエラーが発生しました: %w", err)
	}
	return prompts, nil
}
