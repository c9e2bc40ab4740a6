package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-imagegen-kit/internal/config"
	"github.com/shouni/go-imagegen-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、1 件のプロンプトから画像を生成するサブコマンドなのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "プロンプトから画像を生成するのだ。",
	Long: `テキストプロンプトから画像を生成し、ローカルまたは gs:// に保存するのだ。
モデル名によって generateContent 系と predict 系のバックエンドが自動で切り替わるのだよ。
--input-image を指定すると既存画像の編集モードになるのだ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.Prompt, "prompt", "p", "", "生成したい画像の説明なのだ。")
	generateCmd.Flags().StringVarP(&opts.InputImage, "input-image", "i", "", "編集元画像（ローカルパス、URL、gs://）なのだ。")
	generateCmd.Flags().BoolVar(&opts.CharacterConsistency, "character-consistency", false, "キャラクターの一貫性を保つ強化ヒントを加えるのだ。")
	generateCmd.Flags().BoolVar(&opts.BlendImages, "blend-images", false, "複数要素の自然な合成を強化ヒントに加えるのだ。")
	generateCmd.Flags().BoolVar(&opts.WorldKnowledge, "world-knowledge", false, "実在の人物や場所の正確な描写を強化ヒントに加えるのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.Prompt == "" {
		return fmt.Errorf("プロンプト（--prompt）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("画像生成を起動するのだ！",
		"model", opts.Model,
		"count", opts.Count,
		"enhance", opts.Enhance,
		"output", opts.OutputDir)

	// 3. パイプラインを実行するのだ
	if err := pipeline.ExecuteGenerate(ctx, cfg); err != nil {
		return fmt.Errorf("画像生成中にエラーが発生したのだ: %w", err)
	}
	return nil
}
