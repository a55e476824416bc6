package processor

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/logging"
	"github.com/allanpk716/docx_filler/internal/matcher"
	"github.com/allanpk716/docx_filler/internal/textenc"
)

// TextRewriter 纯文本模板的改写器，保持原文件编码
type TextRewriter struct {
	matcher *matcher.TokenMatcher
	logger  *zap.Logger
}

// NewTextRewriter 创建新的纯文本改写器
func NewTextRewriter(logger *zap.Logger) *TextRewriter {
	return &TextRewriter{
		matcher: matcher.NewTokenMatcher(),
		logger:  logging.OrNop(logger),
	}
}

// Rewrite 替换整个文本中的占位符。没有任何替换时原样返回输入数据。
func (tr *TextRewriter) Rewrite(data []byte, fields map[string]string) ([]byte, []domain.ReplacementStats, error) {
	text, codec, err := textenc.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("解码文本失败: %w", err)
	}
	if codec.Name() == textenc.Windows1251.Name() {
		tr.logger.Warn("文本不是有效的UTF-8，按 windows-1251 读写", zap.Int("bytes", len(data)))
	}

	replaced, counts := tr.matcher.Replace(text, fields)

	names := make([]string, 0, len(fields))
	for name := range fields {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	total := 0
	stats := make([]domain.ReplacementStats, 0, len(names))
	for _, name := range names {
		n := counts[name]
		total += n
		stats = append(stats, domain.ReplacementStats{Name: name, Occurrences: n, Direct: n})
	}

	if total == 0 {
		return data, stats, nil
	}

	out, err := codec.Encode(replaced)
	if err != nil {
		return nil, nil, err
	}
	tr.logger.Debug("纯文本替换完成", zap.String("encoding", codec.Name()), zap.Int("replacements", total))
	return out, stats, nil
}
