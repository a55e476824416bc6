package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/allanpk716/docx_filler/internal/catalog"
	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/processor"
)

// FindTemplateFiles 递归查找目录中的模板文件，跳过匹配排除模式的文件
func FindTemplateFiles(dir string, excludePatterns []string) ([]string, error) {
	var templates []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && catalog.IsTemplate(path, excludePatterns) {
			templates = append(templates, path)
		}
		return nil
	})

	return templates, err
}

// ProcessSingleFile 填充单个模板
func ProcessSingleFile(ctx context.Context, filler domain.TemplateFiller, req domain.FillRequest, out io.Writer) error {
	result, err := filler.Fill(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%d 处替换)\n", result.OutputPath, result.Replacements)
	return nil
}

// ProcessBatchFiles 批量填充目录中的模板，输出目录保持输入目录的层级结构
func ProcessBatchFiles(ctx context.Context, batch *processor.BatchFiller, inputDir, outputDir string, fields map[string]string, excludePatterns []string, logger *zap.Logger, out io.Writer) (*domain.ProcessResult, error) {
	templates, err := FindTemplateFiles(inputDir, excludePatterns)
	if err != nil {
		return nil, fmt.Errorf("查找模板文件失败: %w", err)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("在目录 %s 中没有找到模板文件", inputDir)
	}

	logger.Info("找到模板文件", zap.Int("count", len(templates)))

	requests := make([]domain.FillRequest, 0, len(templates))
	for _, template := range templates {
		relPath, err := filepath.Rel(inputDir, template)
		if err != nil {
			return nil, fmt.Errorf("计算相对路径失败: %w", err)
		}
		requests = append(requests, domain.FillRequest{
			TemplatePath: template,
			Fields:       fields,
			OutputDir:    filepath.Join(outputDir, filepath.Dir(relPath)),
		})
	}

	items, summary := batch.FillAll(ctx, requests)
	for i, item := range items {
		if item.Err != nil {
			fmt.Fprintf(out, "[%d/%d] 失败 %s: %v\n", i+1, len(items), item.Request.TemplatePath, item.Err)
			continue
		}
		fmt.Fprintf(out, "[%d/%d] %s -> %s\n", i+1, len(items), item.Request.TemplatePath, item.Result.OutputPath)
	}
	fmt.Fprintf(out, "完成: 成功 %d, 失败 %d, 替换 %d 处\n", summary.ProcessedFiles, summary.FailedFiles, summary.Replacements)
	return summary, nil
}
