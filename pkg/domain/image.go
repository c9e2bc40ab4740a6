package domain

// GenerationRequest は 1 回の画像生成要求です。
// 解決されたバックエンドが対応しないパラメータは、適応時に警告ログ付きで
// 破棄されます（リクエスト自体は失敗しません）。
type GenerationRequest struct {
	Prompt  string
	Model   string
	Enhance bool // プロンプト自動強化を適用するか

	// --- 共通パラメータ（両バックエンドで有効） ---
	AspectRatio  string
	Count        int
	OutputFormat string // png / jpeg / jpg / webp

	// --- コンテンツ系バックエンド固有 ---
	InputImagePath               string // 編集元画像（ローカルパス / gs:// / http(s)）
	MaintainCharacterConsistency bool
	BlendImages                  bool
	UseWorldKnowledge            bool

	// --- 予測系バックエンド固有 ---
	NegativePrompt   string
	Seed             *int64
	PersonGeneration string
}

// IsEdit は編集リクエスト（編集元画像あり）かどうかを返します。
func (r GenerationRequest) IsEdit() bool {
	return r.InputImagePath != ""
}

// ImageResult のメタデータで使うキーです。
const (
	MetaEnhancementUsed = "enhancement_used"
	MetaBackend         = "backend"
	MetaAspectRatio     = "aspect_ratio"
)

// ImageResult は生成された 1 枚の画像とその来歴です。
// バックエンドクライアントがレスポンス解析直後に生成し、オーケストレーターが所有し、
// 保存後は破棄されます（メモリ上の履歴は持ちません）。
type ImageResult struct {
	Data     []byte
	MimeType string
	Model    string
	Kind     BackendKind

	// OriginalPrompt は利用者が入力したプロンプト、
	// SentPrompt は実際にバックエンドへ送られたプロンプト（強化後か元のまま）です。
	// 両方を保持することで呼び出し側が差分を確認できます。
	OriginalPrompt string
	SentPrompt     string

	Index int
	Meta  map[string]string
}
