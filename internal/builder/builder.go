package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-imagegen-kit/internal/config"
	"github.com/shouni/go-imagegen-kit/pkg/asset"
	"github.com/shouni/go-imagegen-kit/pkg/backend"
	"github.com/shouni/go-imagegen-kit/pkg/enhancer"
	"github.com/shouni/go-imagegen-kit/pkg/generator"
	"github.com/shouni/go-imagegen-kit/pkg/runner"
	"github.com/shouni/go-imagegen-kit/pkg/sink"
)

// BuildAppContext は、設定から全コンポーネントを組み立てて AppContext を返すのだ。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	httpClient := httpkit.New(resolveHTTPTimeout(cfg))

	gcsFactory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.InputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.OutputWriter()
	if err != nil {
		return nil, err
	}

	service, err := BuildService(cfg, httpClient, reader)
	if err != nil {
		return nil, fmt.Errorf("生成サービスの構築に失敗したのだ: %w", err)
	}

	saver := BuildSaver(cfg, writer)
	batchRunner := BuildBatchRunner(cfg, service)

	appCtx := NewAppContext(cfg, httpClient, reader, service, batchRunner, saver)
	return &appCtx, nil
}

// BuildService は 2 系統のバックエンドクライアントと強化サービスを束ねた
// 画像生成サービスを構築します。
func BuildService(cfg *config.Config, httpClient httpkit.HTTPClient, reader remoteio.InputReader) (*generator.Service, error) {
	contentClient := backend.NewContentClient(backend.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.APIBase,
		Timeout: cfg.RequestTimeout,
	})
	predictionClient := backend.NewPredictionClient(backend.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.APIBase,
		Timeout: cfg.RequestTimeout,
	})

	// 強化用クライアントは生成本体より短いタイムアウトで独立させるのだ
	enhancementClient := backend.NewContentClient(backend.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.APIBase,
		Timeout: cfg.EnhancementTimeout,
	})
	promptEnhancer := enhancer.New(enhancementClient, cfg.EnhancementModel, cfg.EnhancementTimeout, slog.Default())

	fetcher := buildFetcher(httpClient, reader)

	return generator.NewService(contentClient, predictionClient, promptEnhancer, fetcher, slog.Default())
}

// BuildSaver は出力先に応じた保存コンポーネントを構築します。
func BuildSaver(cfg *config.Config, writer remoteio.OutputWriter) *sink.Saver {
	outputDir := cfg.Options.OutputDir
	if outputDir == "" {
		outputDir = config.DefaultOutputDir
	}
	return sink.NewSaver(writer, outputDir, slog.Default())
}

// BuildBatchRunner はバッチ生成の並列実行コンポーネントを構築します。
func BuildBatchRunner(cfg *config.Config, service *generator.Service) *runner.BatchRunner {
	concurrency := cfg.Options.Concurrency
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}
	return runner.NewBatchRunner(service, concurrency, config.DefaultRateInterval, slog.Default())
}

// resolveHTTPTimeout は --http-timeout の指定値を返し、未指定ならデフォルトに倒します。
func resolveHTTPTimeout(cfg *config.Config) time.Duration {
	if cfg.Options.HTTPTimeout > 0 {
		return cfg.Options.HTTPTimeout
	}
	return config.DefaultHTTPTimeout
}

// buildFetcher は入力画像の取得コンポーネントを構築します。
func buildFetcher(httpClient httpkit.HTTPClient, reader remoteio.InputReader) *asset.Fetcher {
	imgCache := cache.New(30*time.Minute, 1*time.Hour)
	return asset.NewFetcher(httpClient, reader, imgCache, config.DefaultCacheTTL, slog.Default())
}
