// Package sink は生成画像の保存とバッチ結果マニフェストの書き出しを担います。
// ローカルパスと gs:// の両方を同じ書き込み口で扱います。
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-imagegen-kit/pkg/asset"
	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

// OutputWriter はデータを外部ストレージに保存するためのインターフェースです。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, mimeType string) error
}

// Saver は生成画像の永続化を管理します。
type Saver struct {
	writer  OutputWriter
	baseDir string
	logger  *slog.Logger
	now     func() time.Time
}

// NewSaver は Saver を生成します。baseDir が空の場合はデフォルトの出力先を使います。
func NewSaver(writer OutputWriter, baseDir string, logger *slog.Logger) *Saver {
	if baseDir == "" {
		baseDir = asset.DefaultOutputDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{writer: writer, baseDir: baseDir, logger: logger, now: time.Now}
}

// Save は 1 枚の生成画像を保存し、保存先のフルパスを返します。
func (s *Saver) Save(ctx context.Context, result domain.ImageResult) (string, error) {
	fileName := Filename(result.Model, result.OriginalPrompt, s.now(), result.Index, result.MimeType)

	fullPath, err := asset.ResolveOutputPath(s.baseDir, fileName)
	if err != nil {
		return "", domain.NewError(domain.KindFileOperation,
			"出力パスの解決に失敗しました").WithCause(err)
	}

	if err := s.writer.Write(ctx, fullPath, bytes.NewReader(result.Data), result.MimeType); err != nil {
		return "", domain.NewError(domain.KindFileOperation,
			"画像の保存に失敗しました: "+fullPath).WithCause(err)
	}

	s.logger.Info("画像を保存しました", "path", fullPath, "bytes", len(result.Data))
	return fullPath, nil
}

// SaveAll は複数の生成画像を保存し、保存先パスの一覧を返します。
// 途中で失敗した場合は、そこまでに保存できたパスとエラーを返します。
func (s *Saver) SaveAll(ctx context.Context, results []domain.ImageResult) ([]string, error) {
	paths := make([]string, 0, len(results))
	for _, result := range results {
		p, err := s.Save(ctx, result)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// manifestItem はマニフェストに記録するバッチ項目です。
type manifestItem struct {
	Index  int      `json:"index"`
	Prompt string   `json:"prompt"`
	Status string   `json:"status"`
	Paths  []string `json:"paths,omitempty"`
	Error  string   `json:"error,omitempty"`
}

type manifest struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Skipped     int            `json:"skipped"`
	Items       []manifestItem `json:"items"`
}

// WriteManifest はバッチ実行の結果を JSON マニフェストとして書き出し、
// 書き出し先のフルパスを返します。savedPaths は項目インデックスごとの保存先です。
func (s *Saver) WriteManifest(ctx context.Context, outcome *domain.BatchOutcome, savedPaths map[int][]string) (string, error) {
	succeeded, failed, skipped := outcome.Counts()

	m := manifest{
		GeneratedAt: s.now(),
		Succeeded:   succeeded,
		Failed:      failed,
		Skipped:     skipped,
		Items:       make([]manifestItem, 0, len(outcome.Items)),
	}

	for _, item := range outcome.Items {
		mi := manifestItem{
			Index:  item.Index,
			Prompt: item.Prompt,
			Status: string(item.Status),
			Paths:  savedPaths[item.Index],
		}
		if item.Err != nil {
			mi.Error = item.Err.Error()
		}
		m.Items = append(m.Items, mi)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", domain.NewError(domain.KindFileOperation,
			"マニフェストの生成に失敗しました").WithCause(err)
	}

	fullPath, err := asset.ResolveOutputPath(s.baseDir, asset.DefaultManifestName)
	if err != nil {
		return "", domain.NewError(domain.KindFileOperation,
			"出力パスの解決に失敗しました").WithCause(err)
	}

	if err := s.writer.Write(ctx, fullPath, bytes.NewReader(data), "application/json"); err != nil {
		return "", domain.NewError(domain.KindFileOperation,
			"マニフェストの保存に失敗しました: "+fullPath).WithCause(err)
	}

	s.logger.Info("バッチマニフェストを保存しました", "path", fullPath, "items", len(m.Items))
	return fullPath, nil
}

var (
	unsafeChars  = regexp.MustCompile(`[^a-zA-Z0-9-]`)
	repeatedHole = regexp.MustCompile(`_+`)
)

// Filename は保存用のファイル名を組み立てます。
// 形式: {短縮モデル名}_{yyyymmdd_hhmmss}_{プロンプト断片}[_{連番}].{拡張子}
func Filename(model, prompt string, t time.Time, index int, mimeType string) string {
	timestamp := t.Format("20060102_150405")
	modelShort := shortenModel(model)

	snippet := prompt
	if len(snippet) > 30 {
		snippet = snippet[:30]
	}
	snippet = sanitize(snippet)

	indexPart := ""
	if index > 0 {
		indexPart = "_" + strconv.Itoa(index+1)
	}

	return modelShort + "_" + timestamp + "_" + snippet + indexPart + "." + extensionFor(mimeType)
}

// sanitize はファイル名に使えない文字をアンダースコアに置き換えます。
func sanitize(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "_")
	safe = repeatedHole.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = "image"
	}
	return safe
}

// shortenModel は登録名をファイル名向けの短い表記に変換します。
func shortenModel(model string) string {
	model = strings.ReplaceAll(model, "gemini-2.5-flash-image", "gemini-flash")
	model = strings.ReplaceAll(model, "imagen-4-", "img4-")
	return model
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
