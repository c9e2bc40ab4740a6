package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-imagegen-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は、コマンドラインフラグの値を集約する実行時オプションなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 生成パラメータ ---
	rootCmd.PersistentFlags().StringVarP(&opts.Model, "model", "m", "", "使用する画像生成モデル名（未指定なら設定の既定モデル）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.AspectRatio, "aspect-ratio", "a", "", "アスペクト比（1:1, 16:9 など）なのだ。")
	rootCmd.PersistentFlags().IntVarP(&opts.Count, "count", "n", 1, "生成する枚数（1〜4）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.OutputFormat, "format", "png", "出力フォーマット（png/jpeg/webp）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.NegativePrompt, "negative-prompt", "", "描きたくない要素の指示（predict 系モデルのみ）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.PersonGeneration, "person-generation", "", "人物生成ポリシー（dont_allow/allow_adult/allow_all）なのだ。")
	rootCmd.PersistentFlags().Int64Var(&opts.Seed, "seed", -1, "シード値（負値は未指定扱い）なのだ。")

	// --- プロンプト強化 ---
	rootCmd.PersistentFlags().BoolVarP(&opts.Enhance, "enhance", "e", true, "プロンプトの自動強化なのだ（既定で有効。--enhance=false で無効化）。")

	// --- 出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "画像の保存先ディレクトリ（ローカル or gs://...）なのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// 画像生成APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	// GEMINI_API_KEY か GOOGLE_API_KEY のどちらかがあればよいのだ。
	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY（または GOOGLE_API_KEY）が設定されていません。APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"ap-imagegen-go",
		addAppFlags,
		preRunAppE,
		generateCmd,
		batchCmd,
		modelsCmd,
	)
}
