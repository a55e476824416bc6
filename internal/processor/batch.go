package processor

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/logging"
)

// DefaultMaxConcurrentFiles 默认同时处理的文件数
const DefaultMaxConcurrentFiles = 4

// BatchItem 批量填充中单个模板的结果
type BatchItem struct {
	Request domain.FillRequest
	Result  domain.FillResult
	Err     error
}

// BatchFiller 并发填充多个模板。单个模板失败不影响其他模板。
// 各请求的输出路径必须互不相同，否则后写入者覆盖先写入者。
type BatchFiller struct {
	filler        domain.TemplateFiller
	maxConcurrent int
	logger        *zap.Logger
}

// NewBatchFiller 创建批量填充器；maxConcurrent 小于1时使用默认值
func NewBatchFiller(filler domain.TemplateFiller, maxConcurrent int, logger *zap.Logger) *BatchFiller {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrentFiles
	}
	return &BatchFiller{
		filler:        filler,
		maxConcurrent: maxConcurrent,
		logger:        logging.OrNop(logger),
	}
}

// FillAll 填充所有请求，结果与请求顺序一致。
// 上下文取消后尚未开始的请求直接以上下文错误结束。
func (b *BatchFiller) FillAll(ctx context.Context, requests []domain.FillRequest) ([]BatchItem, *domain.ProcessResult) {
	items := make([]BatchItem, len(requests))

	var g errgroup.Group
	g.SetLimit(b.maxConcurrent)

	for i, req := range requests {
		items[i].Request = req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			result, err := b.filler.Fill(ctx, req)
			items[i].Result = result
			items[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	summary := &domain.ProcessResult{}
	for _, item := range items {
		if item.Err != nil {
			summary.FailedFiles++
			summary.Errors = append(summary.Errors, item.Err)
			b.logger.Warn("模板处理失败，继续处理其他模板",
				zap.String("template", item.Request.TemplatePath), zap.Error(item.Err))
			continue
		}
		summary.ProcessedFiles++
		summary.Replacements += item.Result.Replacements
	}
	summary.Success = summary.FailedFiles == 0

	b.logger.Info("批量处理完成",
		zap.Int("processed", summary.ProcessedFiles),
		zap.Int("failed", summary.FailedFiles),
		zap.Int("replacements", summary.Replacements))
	return items, summary
}
