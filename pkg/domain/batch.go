package domain

// BatchStatus はバッチ内の 1 項目の終了状態です。
type BatchStatus string

const (
	// BatchSucceeded は生成に成功し、1 枚以上の ImageResult を持つ状態です。
	BatchSucceeded BatchStatus = "succeeded"
	// BatchFailed は分類済みエラーで失敗した状態です。
	BatchFailed BatchStatus = "failed"
	// BatchSkipped はバッチ全体のキャンセルにより着手されなかった状態です。
	// 一般的な失敗とは区別して報告します。
	BatchSkipped BatchStatus = "skipped"
)

// BatchItem は入力プロンプト 1 件に対する結果レコードです。
type BatchItem struct {
	Index   int
	Prompt  string
	Status  BatchStatus
	Results []ImageResult // Status == BatchSucceeded のときのみ非 nil
	Err     *Error        // Status == BatchFailed のときのみ非 nil
}

// BatchOutcome はバッチ実行の結果全体です。
// Items は常に入力プロンプトと同じ長さ・同じ順序で、1 入力につき必ず 1 項目です。
type BatchOutcome struct {
	Items []BatchItem
}

// Counts は状態別の件数を返します。
func (o BatchOutcome) Counts() (succeeded, failed, skipped int) {
	for _, item := range o.Items {
		switch item.Status {
		case BatchSucceeded:
			succeeded++
		case BatchFailed:
			failed++
		case BatchSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}
