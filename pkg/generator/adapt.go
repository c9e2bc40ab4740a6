package generator

import (
	"log/slog"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

// Param はバックエンド間で対応が分かれる生成パラメータの識別子です。
type Param string

const (
	ParamAspectRatio      Param = "aspect_ratio"
	ParamCount            Param = "count"
	ParamNegativePrompt   Param = "negative_prompt"
	ParamSeed             Param = "seed"
	ParamPersonGeneration Param = "person_generation"
	ParamInputImage       Param = "input_image"
	ParamOutputFormat     Param = "output_format"
)

// capabilities はバックエンド種別ごとに対応するパラメータの静的な表です。
// 表にないパラメータは送信せず、警告ログを出して読み捨てます。
var capabilities = map[domain.BackendKind]map[Param]bool{
	domain.KindContent: {
		ParamAspectRatio: true,
		ParamCount:       true,
		ParamInputImage:  true,
	},
	domain.KindPrediction: {
		ParamAspectRatio:      true,
		ParamCount:            true,
		ParamNegativePrompt:   true,
		ParamPersonGeneration: true,
		ParamOutputFormat:     true,
		// seed はワイヤ上には存在するが現行 API では拒否されるため表から外しています。
	},
}

// supports は kind が param に対応しているかを返します。
func supports(kind domain.BackendKind, param Param) bool {
	caps, ok := capabilities[kind]
	return ok && caps[param]
}

// dropUnsupported はリクエストのうちバックエンドが対応しないパラメータを
// 警告付きで落とし、落としたパラメータ名の一覧を返します。
func dropUnsupported(logger *slog.Logger, kind domain.BackendKind, req *domain.GenerationRequest) []Param {
	var dropped []Param

	drop := func(param Param, clear func()) {
		dropped = append(dropped, param)
		clear()
		logger.Warn("このモデルでは未対応のパラメータを無視します",
			"param", string(param), "model", req.Model, "backend", kind.String())
	}

	if req.NegativePrompt != "" && !supports(kind, ParamNegativePrompt) {
		drop(ParamNegativePrompt, func() { req.NegativePrompt = "" })
	}
	if req.Seed != nil && !supports(kind, ParamSeed) {
		drop(ParamSeed, func() { req.Seed = nil })
	}
	if req.PersonGeneration != "" && !supports(kind, ParamPersonGeneration) {
		drop(ParamPersonGeneration, func() { req.PersonGeneration = "" })
	}
	if req.InputImagePath != "" && !supports(kind, ParamInputImage) {
		drop(ParamInputImage, func() { req.InputImagePath = "" })
	}
	if req.OutputFormat != "" && !supports(kind, ParamOutputFormat) {
		drop(ParamOutputFormat, func() { req.OutputFormat = "" })
	}

	return dropped
}
