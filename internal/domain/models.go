package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/allanpk716/docx_filler/pkg/docx"
)

var (
	// ErrTemplateNotFound 模板文件不存在
	ErrTemplateNotFound = errors.New("模板文件不存在")
	// ErrUnsupportedContainer 文档无法按 zip+XML 结构解析
	ErrUnsupportedContainer = docx.ErrUnsupportedContainer
	// ErrEmptyTemplatePath 模板路径为空
	ErrEmptyTemplatePath = errors.New("模板路径不能为空")
	// ErrOutputIsTemplate 输出路径指向模板文件本身
	ErrOutputIsTemplate = errors.New("输出文件不能覆盖模板")
	// ErrEmptyOutputDir 输出目录为空
	ErrEmptyOutputDir = errors.New("输出目录不能为空")
)

// TemplateFiller 模板填充器接口
type TemplateFiller interface {
	Fill(ctx context.Context, req FillRequest) (FillResult, error)
}

// PlaceholderExtractor 占位符提取器接口
type PlaceholderExtractor interface {
	ExtractFile(path string) []string
	Extract(data []byte, rich bool) map[string]struct{}
}

// ContentRewriter 按字段映射改写文档内容
type ContentRewriter interface {
	Rewrite(data []byte, fields map[string]string) ([]byte, []ReplacementStats, error)
}

// FillState 单次填充操作的状态
type FillState int

const (
	StateIdle FillState = iota
	StateCopying
	StateRewriting
	StateSaved
	StateFailed
)

func (s FillState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCopying:
		return "copying"
	case StateRewriting:
		return "rewriting"
	case StateSaved:
		return "saved"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("FillState(%d)", int(s))
	}
}

// FillRequest 填充请求
type FillRequest struct {
	TemplatePath   string
	Fields         map[string]string
	OutputDir      string
	OutputFileName string // 为空时自动生成
}

// FillResult 填充结果
type FillResult struct {
	OutputPath   string
	State        FillState
	Replacements int
	Stats        []ReplacementStats
}

// FillError 填充失败，附带模板路径和失败时所处的阶段
type FillError struct {
	TemplatePath string
	State        FillState
	Err          error
}

func (e *FillError) Error() string {
	return fmt.Sprintf("填充模板 %s 失败 (%s): %v", e.TemplatePath, e.State, e.Err)
}

func (e *FillError) Unwrap() error {
	return e.Err
}

// Match 表示一个匹配项
type Match struct {
	Name        string // 字段名 (如 ClientName)
	Token       string // 原文中的占位符 (如 ![ClientName])
	Replacement string // 替换值
	StartPos    int    // 开始位置
	EndPos      int    // 结束位置
}

// ProcessResult 批量处理结果
type ProcessResult struct {
	Success        bool
	ProcessedFiles int
	FailedFiles    int
	Replacements   int
	Errors         []error
}

// ReplacementStats 替换统计信息
type ReplacementStats = docx.ReplacementStats
