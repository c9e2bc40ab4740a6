// Package generator は 2 系統の画像生成バックエンドを束ねる
// オーケストレーション層です。検証、入力画像の取得、プロンプト強化、
// パラメータの適合、バックエンド呼び出しを 1 つの入口にまとめます。
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shouni/go-imagegen-kit/pkg/asset"
	"github.com/shouni/go-imagegen-kit/pkg/backend"
	"github.com/shouni/go-imagegen-kit/pkg/domain"
	"github.com/shouni/go-imagegen-kit/pkg/enhancer"
	"github.com/shouni/go-imagegen-kit/pkg/validate"
)

// ContentInvoker は generateContent 系バックエンドの呼び出し口です。
type ContentInvoker interface {
	GenerateImage(ctx context.Context, req backend.ContentRequest) (*backend.Payload, error)
}

// PredictionInvoker は predict 系バックエンドの呼び出し口です。
type PredictionInvoker interface {
	GenerateImage(ctx context.Context, req backend.PredictionRequest) (*backend.Payload, error)
}

// PromptEnhancer はプロンプト強化の呼び出し口です。
type PromptEnhancer interface {
	Enhance(ctx context.Context, original string, ec enhancer.Context) enhancer.Outcome
}

// AssetFetcher は編集元画像の取得口です。
type AssetFetcher interface {
	Fetch(ctx context.Context, uri string) (*asset.Fetched, error)
}

// Service は画像生成のオーケストレーションを担います。
type Service struct {
	content    ContentInvoker
	prediction PredictionInvoker
	enhancer   PromptEnhancer
	fetcher    AssetFetcher
	logger     *slog.Logger
}

// NewService は依存関係を注入して Service を生成します。
func NewService(content ContentInvoker, prediction PredictionInvoker, promptEnhancer PromptEnhancer, fetcher AssetFetcher, logger *slog.Logger) (*Service, error) {
	if content == nil {
		return nil, fmt.Errorf("content invoker is required")
	}
	if prediction == nil {
		return nil, fmt.Errorf("prediction invoker is required")
	}
	if promptEnhancer == nil {
		return nil, fmt.Errorf("prompt enhancer is required")
	}
	// fetcher は nil を許容（編集リクエストを使わない構成）
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		content:    content,
		prediction: prediction,
		enhancer:   promptEnhancer,
		fetcher:    fetcher,
		logger:     logger,
	}, nil
}

// Generate は 1 件の生成リクエストを実行し、生成画像を返します。
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.ImageResult, error) {
	if err := validate.Request(req); err != nil {
		return nil, err
	}

	kind := domain.ResolveBackend(req.Model)
	if kind == domain.KindUnknown {
		return nil, domain.Errorf(domain.KindValidation, "未知のモデルです: %s", req.Model)
	}

	dropUnsupported(s.logger, kind, &req)

	// 編集リクエストでは先に元画像を取得します。
	var input *asset.Fetched
	if req.IsEdit() {
		if s.fetcher == nil {
			return nil, domain.NewError(domain.KindValidation,
				"このビルド構成では入力画像を扱えません")
		}
		fetched, err := s.fetcher.Fetch(ctx, req.InputImagePath)
		if err != nil {
			return nil, err
		}
		input = fetched
	}

	originalPrompt := req.Prompt
	sentPrompt := req.Prompt
	enhancementUsed := false

	if req.Enhance {
		outcome := s.enhancer.Enhance(ctx, req.Prompt, enhancer.Context{
			IsEditing:            req.IsEdit(),
			CharacterConsistency: req.MaintainCharacterConsistency,
			BlendImages:          req.BlendImages,
			WorldKnowledge:       req.UseWorldKnowledge,
			AspectRatio:          req.AspectRatio,
		})
		sentPrompt = outcome.Prompt
		enhancementUsed = outcome.Used
	}

	payload, err := s.invoke(ctx, kind, req, sentPrompt, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("画像を生成しました",
		"model", req.Model, "backend", kind.String(), "count", len(payload.Images))

	results := make([]domain.ImageResult, 0, len(payload.Images))
	for i, img := range payload.Images {
		results = append(results, domain.ImageResult{
			Data:           img.Data,
			MimeType:       img.MimeType,
			Model:          req.Model,
			Kind:           kind,
			OriginalPrompt: originalPrompt,
			SentPrompt:     sentPrompt,
			Index:          i,
			Meta: map[string]string{
				domain.MetaEnhancementUsed: strconv.FormatBool(enhancementUsed),
				domain.MetaBackend:         kind.String(),
				domain.MetaAspectRatio:     req.AspectRatio,
			},
		})
	}
	return results, nil
}

// invoke は種別に応じたバックエンドクライアントを呼び出します。
func (s *Service) invoke(ctx context.Context, kind domain.BackendKind, req domain.GenerationRequest, prompt string, input *asset.Fetched) (*backend.Payload, error) {
	switch kind {
	case domain.KindContent:
		creq := backend.ContentRequest{
			Model:       req.Model,
			Prompt:      prompt,
			AspectRatio: req.AspectRatio,
			Count:       req.Count,
		}
		if input != nil {
			creq.InputImage = input.Data
			creq.InputImageMime = input.MimeType
		}
		return s.content.GenerateImage(ctx, creq)

	case domain.KindPrediction:
		return s.prediction.GenerateImage(ctx, backend.PredictionRequest{
			Model:            req.Model,
			Prompt:           prompt,
			NegativePrompt:   req.NegativePrompt,
			Count:            req.Count,
			AspectRatio:      req.AspectRatio,
			OutputMimeType:   domain.ImageFormats[strings.ToLower(req.OutputFormat)],
			PersonGeneration: req.PersonGeneration,
			Seed:             req.Seed,
		})

	default:
		return nil, domain.Errorf(domain.KindValidation, "未対応のバックエンド種別です: %s", kind)
	}
}
