package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/logging"
	"github.com/allanpk716/docx_filler/pkg/docx"
)

// Filler 模板填充器：复制模板到输出目录，再按文档类型改写副本
type Filler struct {
	rich   domain.ContentRewriter
	text   domain.ContentRewriter
	naming NamingFunc
	now    func() time.Time
	logger *zap.Logger
}

// NewFiller 创建新的模板填充器；naming 为 nil 时使用 DefaultFileName
func NewFiller(logger *zap.Logger, naming NamingFunc) *Filler {
	logger = logging.OrNop(logger)
	if naming == nil {
		naming = DefaultFileName
	}
	return &Filler{
		rich:   docx.NewRewriter(logger.Named("docx")),
		text:   NewTextRewriter(logger.Named("text")),
		naming: naming,
		now:    time.Now,
		logger: logger,
	}
}

// Fill 执行一次填充：Idle → Copying → Rewriting → Saved，任一步失败进入 Failed。
// 模板不存在时不会创建任何文件；改写失败时已复制的输出文件保留在原处。
func (f *Filler) Fill(ctx context.Context, req domain.FillRequest) (domain.FillResult, error) {
	result := domain.FillResult{State: domain.StateIdle}
	fail := func(err error) (domain.FillResult, error) {
		failedAt := result.State
		result.State = domain.StateFailed
		f.logger.Error("填充失败",
			zap.String("template", req.TemplatePath),
			zap.Stringer("state", failedAt),
			zap.Error(err))
		return result, &domain.FillError{TemplatePath: req.TemplatePath, State: failedAt, Err: err}
	}

	if err := f.validate(req); err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	f.logger.Info("开始填充模板", zap.String("template", req.TemplatePath), zap.Int("fields", len(req.Fields)))

	result.State = domain.StateCopying
	outputPath, err := f.copyTemplate(req)
	if err != nil {
		return fail(err)
	}
	result.OutputPath = outputPath

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	result.State = domain.StateRewriting
	stats, err := f.rewrite(req.TemplatePath, outputPath, req.Fields)
	if err != nil {
		return fail(err)
	}

	result.Stats = stats
	for _, s := range stats {
		result.Replacements += s.Occurrences
	}
	result.State = domain.StateSaved

	f.logger.Info("模板填充完成",
		zap.String("template", req.TemplatePath),
		zap.String("output", outputPath),
		zap.Int("replacements", result.Replacements))
	return result, nil
}

// validate 检查请求参数和模板文件是否存在
func (f *Filler) validate(req domain.FillRequest) error {
	if req.TemplatePath == "" {
		return domain.ErrEmptyTemplatePath
	}
	if req.OutputDir == "" {
		return domain.ErrEmptyOutputDir
	}

	info, err := os.Stat(req.TemplatePath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, req.TemplatePath)
	}
	if err != nil {
		return fmt.Errorf("检查模板文件失败: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s 是目录", domain.ErrTemplateNotFound, req.TemplatePath)
	}
	return nil
}

// copyTemplate 确保输出目录存在并把模板原样复制过去，已有同名文件会被覆盖
func (f *Filler) copyTemplate(req domain.FillRequest) (string, error) {
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	name := req.OutputFileName
	if name == "" {
		name = f.naming(req.TemplatePath, f.now())
	}
	outputPath := filepath.Join(req.OutputDir, name)

	same, err := sameFile(req.TemplatePath, outputPath)
	if err != nil {
		return "", err
	}
	if same {
		return "", fmt.Errorf("%w: %s", domain.ErrOutputIsTemplate, outputPath)
	}

	if err := copyFile(req.TemplatePath, outputPath); err != nil {
		return "", err
	}
	f.logger.Debug("模板已复制", zap.String("output", outputPath))
	return outputPath, nil
}

// rewrite 按模板扩展名选择改写器处理输出文件，只有发生替换时才写回
func (f *Filler) rewrite(templatePath, outputPath string, fields map[string]string) ([]domain.ReplacementStats, error) {
	rewriter := f.text
	if docx.IsRichExtension(filepath.Ext(templatePath)) {
		rewriter = f.rich
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("读取输出文件失败: %w", err)
	}

	out, stats, err := rewriter.Rewrite(data, fields)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, s := range stats {
		total += s.Occurrences
		if s.Occurrences > 0 {
			f.logger.Debug("字段已替换", zap.String("field", s.Name), zap.Int("count", s.Occurrences))
		}
	}
	if total == 0 {
		return stats, nil
	}

	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return nil, fmt.Errorf("写入输出文件失败: %w", err)
	}
	return stats, nil
}

// sameFile 判断输出路径是否指向模板本身，输出文件尚不存在时返回 false
func sameFile(templatePath, outputPath string) (bool, error) {
	templateAbs, err := filepath.Abs(templatePath)
	if err != nil {
		return false, fmt.Errorf("解析模板路径失败: %w", err)
	}
	outputAbs, err := filepath.Abs(outputPath)
	if err != nil {
		return false, fmt.Errorf("解析输出路径失败: %w", err)
	}
	if templateAbs == outputAbs {
		return true, nil
	}

	outputInfo, err := os.Stat(outputPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("检查输出文件失败: %w", err)
	}
	templateInfo, err := os.Stat(templatePath)
	if err != nil {
		return false, fmt.Errorf("检查模板文件失败: %w", err)
	}
	return os.SameFile(templateInfo, outputInfo), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("打开模板文件失败: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("复制模板失败: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("关闭输出文件失败: %w", err)
	}
	return nil
}
