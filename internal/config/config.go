package config

import (
	"strconv"
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultAPIBase            = "https://generativelanguage.googleapis.com/v1beta"
	DefaultContentModel       = "gemini-2.5-flash-image"
	DefaultPredictionModel    = "imagen-4"
	DefaultEnhancementModel   = "gemini-flash-latest" // プロンプト強化用のテキストモデルなのだ
	DefaultRequestTimeout     = 60 * time.Second
	DefaultEnhancementTimeout = 30 * time.Second
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultConcurrency        = 4
	DefaultRateInterval       = 2 * time.Second
	DefaultOutputDir          = "generated_images"
	DefaultCacheTTL           = 1 * time.Hour
)

// Config はアプリケーション全体の環境設定（APIキーや接続先）を保持する構造体なのだ。
type Config struct {
	APIKey             string
	APIBase            string
	ContentModel       string
	PredictionModel    string
	EnhancementModel   string
	RequestTimeout     time.Duration
	EnhancementTimeout time.Duration
	Concurrency        int
	EnableEnhancement  bool // 環境変数による強化機能の一括無効化スイッチなのだ

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
// APIキーは GEMINI_API_KEY を優先し、無ければ GOOGLE_API_KEY を使うのだ。
func LoadConfig() *Config {
	apiKey := envutil.GetEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = envutil.GetEnv("GOOGLE_API_KEY", "")
	}

	cfg := &Config{
		APIKey:             apiKey,
		APIBase:            envutil.GetEnv("IMAGEGEN_API_BASE", DefaultAPIBase),
		ContentModel:       envutil.GetEnv("IMAGEGEN_CONTENT_MODEL", DefaultContentModel),
		PredictionModel:    envutil.GetEnv("IMAGEGEN_PREDICTION_MODEL", DefaultPredictionModel),
		EnhancementModel:   envutil.GetEnv("IMAGEGEN_ENHANCEMENT_MODEL", DefaultEnhancementModel),
		RequestTimeout:     getEnvDuration("IMAGEGEN_REQUEST_TIMEOUT", DefaultRequestTimeout),
		EnhancementTimeout: getEnvDuration("IMAGEGEN_ENHANCEMENT_TIMEOUT", DefaultEnhancementTimeout),
		Concurrency:        getEnvInt("IMAGEGEN_CONCURRENCY", DefaultConcurrency),
		EnableEnhancement:  getEnvBool("IMAGEGEN_ENABLE_ENHANCEMENT", true),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// プロンプト関連
	Prompt         string // --prompt
	NegativePrompt string // --negative-prompt
	Enhance        bool   // --enhance
	PromptsFile    string // --prompts-file: バッチ用。"-" で標準入力なのだ

	// 生成パラメータ
	Model            string // --model
	AspectRatio      string // --aspect-ratio
	Count            int    // --count
	OutputFormat     string // --format
	Seed             int64  // --seed: 負値は未指定扱いなのだ
	PersonGeneration string // --person-generation

	// 編集関連
	InputImage           string // --input-image: ローカルパス、URL、gs:// のいずれか
	CharacterConsistency bool   // --character-consistency
	BlendImages          bool   // --blend-images
	WorldKnowledge       bool   // --world-knowledge

	// 出力関連
	OutputDir string // --output-dir

	// 実行制御
	Concurrency int           // --concurrency: バッチの並列数
	HTTPTimeout time.Duration // --http-timeout
}

// getEnvDuration は時間型の環境変数を読み、解析できない場合は既定値を返すのだ。
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

// getEnvBool は真偽値の環境変数を読み、解析できない場合は既定値を返すのだ。
func getEnvBool(key string, def bool) bool {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

// getEnvInt は整数型の環境変数を読み、解析できない場合は既定値を返すのだ。
func getEnvInt(key string, def int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
