package processor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/extractor"
	"github.com/allanpk716/docx_filler/internal/logging"
)

// Service 文档服务：提取占位符、填充模板、生成报告
type Service struct {
	extractor domain.PlaceholderExtractor
	filler    domain.TemplateFiller
	reports   domain.TemplateFiller
	logger    *zap.Logger
}

// NewService 创建新的文档服务
func NewService(logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	return &Service{
		extractor: extractor.New(logger.Named("extractor")),
		filler:    NewFiller(logger.Named("filler"), DefaultFileName),
		reports:   NewFiller(logger.Named("report"), ReportFileName),
		logger:    logger,
	}
}

// ExtractPlaceholders 返回模板中的占位符名称，按名称排序；读取失败时返回空列表
func (s *Service) ExtractPlaceholders(templatePath string) []string {
	return s.extractor.ExtractFile(templatePath)
}

// FillTemplate 填充模板
func (s *Service) FillTemplate(ctx context.Context, req domain.FillRequest) (domain.FillResult, error) {
	return s.filler.Fill(ctx, req)
}

// GenerateReport 以 report_<uuid>_<时间戳> 命名填充模板，返回输出路径
func (s *Service) GenerateReport(ctx context.Context, templatePath string, fields map[string]string, outputDir string) (string, error) {
	start := time.Now()
	result, err := s.reports.Fill(ctx, domain.FillRequest{
		TemplatePath: templatePath,
		Fields:       fields,
		OutputDir:    outputDir,
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("报告已生成", zap.String("output", result.OutputPath), zap.Duration("elapsed", time.Since(start)))
	return result.OutputPath, nil
}
