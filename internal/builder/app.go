package builder

import (
	"github.com/shouni/go-imagegen-kit/internal/config"
	"github.com/shouni/go-imagegen-kit/pkg/generator"
	"github.com/shouni/go-imagegen-kit/pkg/runner"
	"github.com/shouni/go-imagegen-kit/pkg/sink"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各実行関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config      *config.Config          // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、接続先など）。
	Options     config.GenerateOptions  // Optionsは、コマンドラインから渡された実行時の設定です（モデル名、枚数など）。
	Reader      remoteio.InputReader    // Readerは、プロンプト一覧や入力画像の読み込みに使用する入力元です。
	Service     *generator.Service      // Serviceは、2系統のバックエンドを束ねる画像生成の入口です。
	BatchRunner *runner.BatchRunner     // BatchRunnerは、複数プロンプトの並列実行を担います。
	Saver       *sink.Saver             // Saverは、生成画像とマニフェストの保存を担います。
	httpClient  httpkit.HTTPClient // httpClient は外部APIとの通信に使う共通クライアント
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	httpClient httpkit.HTTPClient,
	reader remoteio.InputReader,
	service *generator.Service,
	batchRunner *runner.BatchRunner,
	saver *sink.Saver,
) AppContext {
	return AppContext{
		Config:      cfg,
		Options:     cfg.Options,
		Reader:      reader,
		Service:     service,
		BatchRunner: batchRunner,
		Saver:       saver,
		httpClient:  httpClient,
	}
}
