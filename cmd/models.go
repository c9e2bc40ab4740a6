package cmd

import (
	"fmt"

	"github.com/shouni/go-imagegen-kit/pkg/domain"

	"github.com/spf13/cobra"
)

// modelsCmd は、利用可能なモデルとバックエンド種別の一覧を表示するサブコマンドなのだ。
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "利用可能なモデルの一覧を表示するのだ。",
	RunE:  modelsCommand,
}

func modelsCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "利用可能なモデル:")
	for _, name := range domain.AllModels() {
		kind := domain.ResolveBackend(name)
		fmt.Fprintf(out, "  %-16s backend=%-10s id=%s\n", name, kind.String(), domain.ModelID(name))
	}
	return nil
}
