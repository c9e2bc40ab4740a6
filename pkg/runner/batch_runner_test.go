package runner

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-imagegen-kit/pkg/domain"
)

type scriptedGenerator struct {
	mu      sync.Mutex
	results map[string][]domain.ImageResult
	errs    map[string]error
	calls   []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
	block       chan struct{}
}

func (g *scriptedGenerator) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.ImageResult, error) {
	cur := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		prev := g.maxInFlight.Load()
		if cur <= prev || g.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	g.mu.Lock()
	g.calls = append(g.calls, req.Prompt)
	g.mu.Unlock()

	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := g.errs[req.Prompt]; ok {
		return nil, err
	}
	if res, ok := g.results[req.Prompt]; ok {
		return res, nil
	}
	return []domain.ImageResult{{Data: []byte(req.Prompt), MimeType: "image/png", SentPrompt: req.Prompt}}, nil
}

func TestBatchRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("全件成功: 入力と同じ順序・件数で返る", func(t *testing.T) {
		gen := &scriptedGenerator{}
		br := NewBatchRunner(gen, 4, time.Millisecond, nil)

		prompts := []string{"apple", "banana", "cherry"}
		outcome := br.Run(ctx, prompts, domain.GenerationRequest{Model: "imagen-4"})

		require.Len(t, outcome.Items, 3)
		for i, item := range outcome.Items {
			assert.Equal(t, i, item.Index)
			assert.Equal(t, prompts[i], item.Prompt)
			assert.Equal(t, domain.BatchSucceeded, item.Status)
			require.Len(t, item.Results, 1)
		}

		succeeded, failed, skipped := outcome.Counts()
		assert.Equal(t, 3, succeeded)
		assert.Zero(t, failed)
		assert.Zero(t, skipped)
	})

	t.Run("1 件の失敗は他の項目を道連れにしない", func(t *testing.T) {
		gen := &scriptedGenerator{
			errs: map[string]error{
				"banana": domain.NewError(domain.KindAPI, "サーバエラー").WithStatus(500),
			},
		}
		br := NewBatchRunner(gen, 2, time.Millisecond, nil)

		outcome := br.Run(ctx, []string{"apple", "banana", "cherry"}, domain.GenerationRequest{Model: "imagen-4"})

		require.Len(t, outcome.Items, 3)
		assert.Equal(t, domain.BatchSucceeded, outcome.Items[0].Status)
		assert.Equal(t, domain.BatchSucceeded, outcome.Items[2].Status)

		failedItem := outcome.Items[1]
		assert.Equal(t, domain.BatchFailed, failedItem.Status)
		assert.Equal(t, 1, failedItem.Index)
		require.NotNil(t, failedItem.Err)
		assert.Equal(t, domain.KindAPI, failedItem.Err.Kind)
	})

	t.Run("分類されていないエラーも KindAPI として記録される", func(t *testing.T) {
		gen := &scriptedGenerator{
			errs: map[string]error{"apple": context.DeadlineExceeded},
		}
		br := NewBatchRunner(gen, 1, time.Millisecond, nil)

		outcome := br.Run(ctx, []string{"apple"}, domain.GenerationRequest{Model: "imagen-4"})

		require.NotNil(t, outcome.Items[0].Err)
		assert.Equal(t, domain.KindAPI, outcome.Items[0].Err.Kind)
	})

	t.Run("同時実行数は上限を超えない", func(t *testing.T) {
		gen := &scriptedGenerator{delay: 30 * time.Millisecond}
		br := NewBatchRunner(gen, 2, 0, nil)

		prompts := make([]string, 8)
		for i := range prompts {
			prompts[i] = strings.Repeat("p", i+1)
		}
		outcome := br.Run(ctx, prompts, domain.GenerationRequest{Model: "imagen-4"})

		require.Len(t, outcome.Items, 8)
		assert.LessOrEqual(t, gen.maxInFlight.Load(), int32(2))
	})

	t.Run("キャンセル後の未着手項目はスキップになる", func(t *testing.T) {
		block := make(chan struct{})
		gen := &scriptedGenerator{block: block}
		br := NewBatchRunner(gen, 1, 0, nil)

		cancelCtx, cancel := context.WithCancel(ctx)

		done := make(chan *domain.BatchOutcome, 1)
		go func() {
			done <- br.Run(cancelCtx, []string{"apple", "banana", "cherry"}, domain.GenerationRequest{Model: "imagen-4"})
		}()

		// 先頭の項目が実行に入るのを待ってからキャンセルする
		require.Eventually(t, func() bool {
			gen.mu.Lock()
			defer gen.mu.Unlock()
			return len(gen.calls) >= 1
		}, time.Second, time.Millisecond)
		cancel() // 実行中の項目は ctx.Done 経由で解放される

		outcome := <-done
		require.Len(t, outcome.Items, 3)

		_, _, skipped := outcome.Counts()
		assert.GreaterOrEqual(t, skipped, 2, "未着手の項目はスキップとして記録されること")
		for _, item := range outcome.Items {
			assert.NotEqual(t, domain.BatchSucceeded, item.Status)
		}
	})

	t.Run("同時実行数は許容範囲に丸められる", func(t *testing.T) {
		br := NewBatchRunner(&scriptedGenerator{}, 0, time.Millisecond, nil)
		assert.Equal(t, 1, br.concurrency)

		br = NewBatchRunner(&scriptedGenerator{}, 100, time.Millisecond, nil)
		assert.Equal(t, domain.MaxBatchConcurrency, br.concurrency)
	})

	t.Run("空のプロンプト一覧は空の結果になる", func(t *testing.T) {
		br := NewBatchRunner(&scriptedGenerator{}, 2, time.Millisecond, nil)
		outcome := br.Run(ctx, nil, domain.GenerationRequest{Model: "imagen-4"})
		assert.Empty(t, outcome.Items)
	})
}
