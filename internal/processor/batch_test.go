package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/allanpk716/docx_filler/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingFiller 记录同时运行的填充数量
type countingFiller struct {
	mu      sync.Mutex
	running int
	peak    int
	calls   atomic.Int32
	failOn  string
}

func (c *countingFiller) Fill(ctx context.Context, req domain.FillRequest) (domain.FillResult, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.running++
	if c.running > c.peak {
		c.peak = c.running
	}
	c.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	c.mu.Lock()
	c.running--
	c.mu.Unlock()

	if req.TemplatePath == c.failOn {
		return domain.FillResult{State: domain.StateFailed}, fmt.Errorf("模拟失败: %s", req.TemplatePath)
	}
	return domain.FillResult{State: domain.StateSaved, OutputPath: req.TemplatePath + ".out", Replacements: 1}, nil
}

func TestBatchFiller_LimitsConcurrency(t *testing.T) {
	filler := &countingFiller{}
	batch := NewBatchFiller(filler, 2, zaptest.NewLogger(t))

	requests := make([]domain.FillRequest, 8)
	for i := range requests {
		requests[i] = domain.FillRequest{TemplatePath: fmt.Sprintf("t%d.txt", i)}
	}

	items, summary := batch.FillAll(context.Background(), requests)

	require.Len(t, items, 8)
	for i, item := range items {
		assert.Equal(t, requests[i].TemplatePath, item.Request.TemplatePath)
		assert.Equal(t, requests[i].TemplatePath+".out", item.Result.OutputPath)
	}
	assert.LessOrEqual(t, filler.peak, 2)
	assert.True(t, summary.Success)
	assert.Equal(t, 8, summary.ProcessedFiles)
	assert.Equal(t, 8, summary.Replacements)
}

func TestBatchFiller_FailureDoesNotStopOthers(t *testing.T) {
	filler := &countingFiller{failOn: "t1.txt"}
	batch := NewBatchFiller(filler, 0, zaptest.NewLogger(t))

	requests := []domain.FillRequest{
		{TemplatePath: "t0.txt"},
		{TemplatePath: "t1.txt"},
		{TemplatePath: "t2.txt"},
	}

	items, summary := batch.FillAll(context.Background(), requests)

	assert.Equal(t, int32(3), filler.calls.Load())
	assert.NoError(t, items[0].Err)
	assert.Error(t, items[1].Err)
	assert.NoError(t, items[2].Err)
	assert.False(t, summary.Success)
	assert.Equal(t, 2, summary.ProcessedFiles)
	assert.Equal(t, 1, summary.FailedFiles)
	assert.Len(t, summary.Errors, 1)
}

func TestBatchFiller_CancelledContext(t *testing.T) {
	filler := &countingFiller{}
	batch := NewBatchFiller(filler, 1, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, summary := batch.FillAll(ctx, []domain.FillRequest{{TemplatePath: "a"}, {TemplatePath: "b"}})

	assert.Zero(t, filler.calls.Load())
	for _, item := range items {
		assert.ErrorIs(t, item.Err, context.Canceled)
	}
	assert.Equal(t, 2, summary.FailedFiles)
}

func TestBatchFiller_ReportNamesAreDistinct(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(template, []byte("Client: ![Client]"), 0644))

	filler := NewFiller(zaptest.NewLogger(t), ReportFileName)
	batch := NewBatchFiller(filler, 4, zaptest.NewLogger(t))

	requests := make([]domain.FillRequest, 6)
	for i := range requests {
		requests[i] = domain.FillRequest{
			TemplatePath: template,
			Fields:       map[string]string{"Client": fmt.Sprintf("client-%d", i)},
			OutputDir:    filepath.Join(dir, "out"),
		}
	}

	items, summary := batch.FillAll(context.Background(), requests)
	require.True(t, summary.Success)

	seen := make(map[string]bool)
	for i, item := range items {
		require.NoError(t, item.Err)
		assert.False(t, seen[item.Result.OutputPath], "重复的输出路径 %s", item.Result.OutputPath)
		seen[item.Result.OutputPath] = true

		got, err := os.ReadFile(item.Result.OutputPath)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("Client: client-%d", i), string(got))
	}
}
