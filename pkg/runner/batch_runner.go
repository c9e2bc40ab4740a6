// Package runner はバッチ生成の並列実行を提供します。
package runner

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

// Generator は 1 件の生成リクエストを実行するインターフェース。
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.ImageResult, error)
}

// BatchRunner は、複数プロンプトの画像生成を並列で実行する実体。
// 1 件の失敗が他のプロンプトを道連れにしないよう、結果は項目ごとに記録する。
type BatchRunner struct {
	generator   Generator
	concurrency int
	interval    time.Duration
	logger      *slog.Logger
}

// NewBatchRunner は BatchRunner の新しいインスタンスを生成して返す。
func NewBatchRunner(generator Generator, concurrency int, interval time.Duration, logger *slog.Logger) *BatchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > domain.MaxBatchConcurrency {
		concurrency = domain.MaxBatchConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchRunner{
		generator:   generator,
		concurrency: concurrency,
		interval:    interval,
		logger:      logger,
	}
}

// Run は全プロンプトを並列で実行するメインロジックなのだ。
// 戻り値の Items は入力プロンプトと同じ順序・同じ件数になるのだ。
func (br *BatchRunner) Run(ctx context.Context, prompts []string, shared domain.GenerationRequest) *domain.BatchOutcome {
	items := make([]domain.BatchItem, len(prompts))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(br.concurrency)

	// 設定された間隔で流量制限をかけるのだ
	// Burst 2 により、開始直後に2件までは同時にリクエストを開始できるのだ
	limiter := rate.NewLimiter(rate.Every(br.interval), 2)
	br.logger.Info("並列バッチ生成を開始するのだ",
		"count", len(prompts), "concurrency", br.concurrency, "interval", br.interval)

	for i, prompt := range prompts {
		i, prompt := i, prompt // ゴルーチンのクロージャ対策なのだ

		eg.Go(func() error {
			items[i] = br.runOne(egCtx, limiter, i, prompt, shared)
			// 1 件の失敗で全体を止めないため、常に nil を返すのだ
			return nil
		})
	}

	// すべての並列処理が完了するのを待つのだ（ワーカーは常に nil を返す）
	_ = eg.Wait()

	outcome := &domain.BatchOutcome{Items: items}
	succeeded, failed, skipped := outcome.Counts()
	br.logger.Info("バッチ生成が完了したのだ",
		"succeeded", succeeded, "failed", failed, "skipped", skipped)
	return outcome
}

// runOne は 1 プロンプト分の生成を実行し、結果を項目として返すのだ。
func (br *BatchRunner) runOne(ctx context.Context, limiter *rate.Limiter, index int, prompt string, shared domain.GenerationRequest) domain.BatchItem {
	item := domain.BatchItem{Index: index, Prompt: prompt}

	// キャンセル済みなら手を付けずにスキップ扱いにするのだ
	if ctx.Err() != nil {
		item.Status = domain.BatchSkipped
		return item
	}

	// レートリミットに従って、自分の番が来るまで待機するのだ
	if err := limiter.Wait(ctx); err != nil {
		item.Status = domain.BatchSkipped
		return item
	}

	req := shared
	req.Prompt = prompt

	br.logger.Info("バッチ項目を生成中...", "index", index+1, "prompt_head", prompt[:min(len(prompt), 40)])

	results, err := br.generator.Generate(ctx, req)
	if err != nil {
		// 実行中にキャンセルされた場合は失敗ではなく未実行として扱うのだ
		if ctx.Err() != nil {
			item.Status = domain.BatchSkipped
			return item
		}
		br.logger.Error("バッチ項目の生成に失敗したのだ", "index", index+1, "error", err)
		item.Status = domain.BatchFailed
		item.Err = domain.AsError(err)
		return item
	}

	item.Status = domain.BatchSucceeded
	item.Results = results
	br.logger.Info("バッチ項目の生成に成功したのだ", "index", index+1, "images", len(results))
	return item
}
