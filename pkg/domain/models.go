package domain

import (
	"slices"
)

// BackendKind は、モデル名から解決される画像生成バックエンドの種別です。
type BackendKind int

const (
	// KindUnknown はどの登録簿にも存在しないモデルを示します。
	KindUnknown BackendKind = iota
	// KindContent は generateContent API（インライン画像パーツ）を使うバックエンドです。
	KindContent
	// KindPrediction は predict API（predictions コレクション）を使うバックエンドです。
	KindPrediction
)

// String は slog やメタデータに載せるための安定した名前を返します。
func (k BackendKind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindPrediction:
		return "prediction"
	default:
		return "unknown"
	}
}

// ContentModels は generateContent API で画像生成できるモデルの登録簿です。
// キーは利用者が指定するモデル名、値は API 上のモデルIDです。
var ContentModels = map[string]string{
	"gemini-2.5-flash-image": "gemini-2.5-flash-image",
}

// PredictionModels は predict API 専用モデルの登録簿です。
// 値には API パス上の "models/" プレフィックスを含みます。
var PredictionModels = map[string]string{
	"imagen-4":       "models/imagen-4.0-generate-001",
	"imagen-4-fast":  "models/imagen-4.0-fast-generate-001",
	"imagen-4-ultra": "models/imagen-4.0-ultra-generate-001",
}

// ResolveBackend はモデル名からバックエンド種別を決定する純粋関数です。
// 2つの登録簿は互いに素であり、1つのモデルが両方に属することはありません。
func ResolveBackend(model string) BackendKind {
	if _, ok := ContentModels[model]; ok {
		return KindContent
	}
	if _, ok := PredictionModels[model]; ok {
		return KindPrediction
	}
	return KindUnknown
}

// ModelID はモデル名を API 上のモデルIDへ変換します。未登録なら入力をそのまま返します。
func ModelID(model string) string {
	if id, ok := ContentModels[model]; ok {
		return id
	}
	if id, ok := PredictionModels[model]; ok {
		return id
	}
	return model
}

// AllModels は両登録簿のモデル名をソート済みで返します。
// バリデーションのエラーメッセージや models サブコマンドの表示に使います。
func AllModels() []string {
	names := make([]string, 0, len(ContentModels)+len(PredictionModels))
	for name := range ContentModels {
		names = append(names, name)
	}
	for name := range PredictionModels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AspectRatios は両バックエンド共通でサポートするアスペクト比の一覧です。
var AspectRatios = []string{
	"1:1",
	"2:3",
	"3:2",
	"3:4",
	"4:3",
	"4:5",
	"5:4",
	"9:16",
	"16:9",
	"21:9",
}

// ImageFormats は出力フォーマット名と MIME タイプの対応表です。
var ImageFormats = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"webp": "image/webp",
}

// PersonGenerationOptions は predict API の人物生成ポリシーの取りうる値です。
var PersonGenerationOptions = []string{
	"dont_allow",
	"allow_adult",
	"allow_all",
}

// 生成リクエストに対する上限値です。
const (
	MaxImagesPerRequest     = 4
	MaxBatchConcurrency     = 8
	MaxPromptLength         = 8192
	MaxNegativePromptLength = 1024
)
