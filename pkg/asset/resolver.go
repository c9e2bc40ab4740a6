package asset

import (
	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultOutputDir は生成された画像を格納するデフォルトのディレクトリ名です。
	DefaultOutputDir = "generated_images"
	// DefaultManifestName はバッチ実行結果のデフォルト JSON ファイル名です。
	DefaultManifestName = "batch_manifest.json"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}
