package backend

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

// classifyHTTPError は非 2xx レスポンスをエラー分類へ対応付けます。
// 401/403 は認証、429 はレート制限、安全フィルター由来の 400 はコンテンツポリシー、
// それ以外は一般の API エラーとして扱います。
func classifyHTTPError(statusCode int, body []byte) *domain.Error {
	bodyText := string(body)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return domain.NewError(domain.KindAuthentication,
			"認証に失敗しました。API キーを確認してください").WithStatus(statusCode)
	case statusCode == http.StatusTooManyRequests:
		return domain.NewError(domain.KindRateLimit,
			"レート制限を超過しました。時間を置いて再試行してください").WithStatus(statusCode)
	case statusCode == http.StatusBadRequest && hasSafetyMarker(bodyText):
		return domain.NewError(domain.KindContentPolicy,
			"安全フィルターによりブロックされました。プロンプトを修正してください").WithStatus(statusCode)
	default:
		return domain.Errorf(domain.KindAPI,
			"API リクエストが失敗しました: %s", strings.TrimSpace(bodyText)).WithStatus(statusCode)
	}
}

// hasSafetyMarker はエラーボディに安全ポリシー由来の標識が含まれるかを判定します。
func hasSafetyMarker(body string) bool {
	upper := strings.ToUpper(body)
	return strings.Contains(upper, "SAFETY") || strings.Contains(upper, "BLOCKED")
}

// topLevelKeys はレスポンスボディの最上位キーをソート済みで返します。
// 「2xx だが画像 0 件」の診断情報として使い、上流の静かな拒否と
// こちらの解析不具合を区別できるようにします。
func topLevelKeys(body []byte) []string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	keys := make([]string, 0, len(envelope))
	for key := range envelope {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// noImageDataError は「整形式のレスポンスだが抽出できる画像が 0 件」を表すエラーを組み立てます。
func noImageDataError(body []byte) *domain.Error {
	keys := topLevelKeys(body)
	return domain.Errorf(domain.KindNoImageData,
		"レスポンスに画像データが含まれていません（コンテンツがフィルタされた可能性があります）。最上位キー: [%s]",
		strings.Join(keys, ", ")).WithStatus(http.StatusOK)
}
