// Package extractor 从模板中收集 ![Name] 占位符名称
package extractor

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/allanpk716/docx_filler/internal/logging"
	"github.com/allanpk716/docx_filler/internal/textenc"
	"github.com/allanpk716/docx_filler/pkg/docx"
)

// Extractor 占位符提取器。
// 提取失败只记录日志，调用方得到空结果。
type Extractor struct {
	logger *zap.Logger
}

// New 创建新的占位符提取器
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logging.OrNop(logger)}
}

// ExtractFile 读取文件并返回按名称排序的占位符列表，按扩展名区分Word文档和纯文本
func (e *Extractor) ExtractFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("读取模板失败，视为没有占位符", zap.String("path", path), zap.Error(err))
		return []string{}
	}

	names := SortedNames(e.Extract(data, docx.IsRichExtension(filepath.Ext(path))))
	e.logger.Debug("提取占位符完成", zap.String("path", path), zap.Int("count", len(names)))
	return names
}

// Extract 返回数据中出现的占位符名称集合
func (e *Extractor) Extract(data []byte, rich bool) map[string]struct{} {
	if rich {
		return e.extractRich(data)
	}
	return e.extractText(data)
}

func (e *Extractor) extractText(data []byte) map[string]struct{} {
	text, codec, err := textenc.Decode(data)
	if err != nil {
		e.logger.Warn("解码文本失败，视为没有占位符", zap.Error(err))
		return map[string]struct{}{}
	}
	e.logger.Debug("识别文本编码", zap.String("encoding", codec.Name()))

	names := make(map[string]struct{})
	for _, name := range docx.ScanNames(text) {
		names[name] = struct{}{}
	}
	return names
}

// extractRich 直接在各XML条目的原始文本上匹配；一个都没有找到时去掉标签后再匹配一次
func (e *Extractor) extractRich(data []byte) map[string]struct{} {
	entries, err := docx.XMLEntries(data)
	if err != nil {
		e.logger.Warn("读取文档条目失败，视为没有占位符", zap.Error(err))
		return map[string]struct{}{}
	}

	names := make(map[string]struct{})
	for _, entry := range entries {
		for _, name := range docx.ScanNames(entry.Content) {
			names[docx.UnescapeXML(name)] = struct{}{}
		}
	}
	if len(names) > 0 {
		return names
	}

	for _, entry := range entries {
		for _, name := range docx.ScanNames(docx.StripTags(entry.Content)) {
			names[docx.UnescapeXML(name)] = struct{}{}
		}
	}
	if len(names) > 0 {
		e.logger.Debug("去除标签后找到占位符", zap.Int("count", len(names)))
	}
	return names
}

// SortedNames 将名称集合转为有序列表
func SortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
