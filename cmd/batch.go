package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-imagegen-kit/internal/config"
	"github.com/shouni/go-imagegen-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// batchCmd は、プロンプト一覧ファイルから複数の画像を並列生成するサブコマンドなのだ。
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "プロンプト一覧から画像を一括生成するのだ。",
	Long: `1 行 1 プロンプトのテキストファイル（'-' で標準入力）を読み込み、
流量制限つきの並列処理で画像を一括生成するのだ。
1 件の失敗で全体は止まらず、結果はマニフェスト JSON に記録されるのだよ。`,
	RunE: batchCommand,
}

func init() {
	batchCmd.Flags().StringVarP(&opts.PromptsFile, "prompts-file", "f", "", "プロンプト一覧ファイルのパス（'-'で標準入力なのだ）。")
	batchCmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "c", config.DefaultConcurrency, "並列実行数（1〜8）なのだ。")
}

func batchCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.PromptsFile == "" && !isStdin() {
		return fmt.Errorf("プロンプト一覧（--prompts-file）を指定してほしいのだ")
	}
	if opts.PromptsFile == "" {
		opts.PromptsFile = "-"
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("バッチ生成を起動するのだ！",
		"source", opts.PromptsFile,
		"model", opts.Model,
		"concurrency", opts.Concurrency,
		"output", opts.OutputDir)

	// 3. パイプラインを実行するのだ
	if err := pipeline.ExecuteBatch(ctx, cfg); err != nil {
		return fmt.Errorf("バッチ実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
