package docx

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// ReplacementStats 单个字段的替换统计
type ReplacementStats struct {
	Name        string
	Occurrences int
	Direct      int // 完整位于单个文本节点内的替换
	Spanning    int // 跨 run 或跨文本节点的替换
}

// Rewriter 按字段映射替换DOCX中的 ![Name] 占位符
type Rewriter struct {
	logger *zap.Logger
}

// NewRewriter 创建新的内容改写器
func NewRewriter(logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{logger: logger}
}

// Rewrite 改写DOCX数据，返回新数据和每个字段的替换统计。
// 没有发生替换的部件按原样复制。
func (rw *Rewriter) Rewrite(data []byte, fields map[string]string) ([]byte, []ReplacementStats, error) {
	pkg, err := OpenPackage(data)
	if err != nil {
		return nil, nil, err
	}

	stats, err := rw.RewritePackage(pkg, fields)
	if err != nil {
		return nil, nil, err
	}

	out, err := pkg.Bytes()
	if err != nil {
		return nil, nil, fmt.Errorf("保存DOCX失败: %w", err)
	}
	return out, stats, nil
}

// RewritePackage 在包内所有文本部件上执行替换
func (rw *Rewriter) RewritePackage(pkg *Package, fields map[string]string) ([]ReplacementStats, error) {
	keys := sortedKeys(fields)
	counters := make(map[string]*ReplacementStats, len(keys))
	patterns := make(map[string]*regexp.Regexp, len(keys))
	for _, key := range keys {
		counters[key] = &ReplacementStats{Name: key}
		patterns[key] = TokenPattern(key)
	}

	for _, name := range pkg.TextParts() {
		doc, err := pkg.Part(name)
		if err != nil {
			return nil, err
		}

		count := rw.rewritePart(doc, keys, fields, patterns, counters)
		if count > 0 {
			pkg.MarkDirty(name)
		}
		rw.logger.Debug("部件处理完成", zap.String("part", name), zap.Int("replacements", count))
	}

	stats := make([]ReplacementStats, 0, len(keys))
	for _, key := range keys {
		s := counters[key]
		s.Occurrences = s.Direct + s.Spanning
		stats = append(stats, *s)
	}
	return stats, nil
}

// rewritePart 两遍替换：先处理单个文本节点内的完整占位符，再处理跨 run 的占位符
func (rw *Rewriter) rewritePart(doc *etree.Document, keys []string, fields map[string]string, patterns map[string]*regexp.Regexp, counters map[string]*ReplacementStats) int {
	total := 0
	paras := paragraphs(doc.Root())

	for _, p := range paras {
		for _, r := range runs(p) {
			for _, t := range textNodes(r) {
				total += replaceInTextNode(t, keys, fields, patterns, counters)
			}
		}
	}

	for _, p := range paras {
		for _, key := range keys {
			n := replaceSpanning(p, patterns[key], fields[key])
			if n > 0 {
				counters[key].Spanning += n
				total += n
				rw.logger.Debug("替换跨 run 占位符", zap.String("field", key), zap.Int("count", n))
			}
		}
	}

	return total
}

func replaceInTextNode(t *etree.Element, keys []string, fields map[string]string, patterns map[string]*regexp.Regexp, counters map[string]*ReplacementStats) int {
	text := t.Text()
	if !strings.Contains(text, TokenPrefix) {
		return 0
	}

	replaced := 0
	for _, key := range keys {
		pattern := patterns[key]
		n := len(pattern.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		text = pattern.ReplaceAllLiteralString(text, fields[key])
		counters[key].Direct += n
		replaced += n
	}

	if replaced > 0 {
		t.SetText(text)
		ensurePreserve(t, text)
	}
	return replaced
}

// textSpan 段落中的一个 w:t 及其在段落可见文本中的起始位置
type textSpan struct {
	run   *etree.Element
	node  *etree.Element
	start int
}

func textSpans(p *etree.Element) ([]textSpan, string) {
	var spans []textSpan
	var sb strings.Builder
	for _, r := range runs(p) {
		for _, t := range textNodes(r) {
			spans = append(spans, textSpan{run: r, node: t, start: sb.Len()})
			sb.WriteString(t.Text())
		}
	}
	return spans, sb.String()
}

// replaceSpanning 替换段落中跨越多个 run 或文本节点的占位符，返回替换次数。
// 只改写被占位符覆盖的 w:t：替换值写入第一个节点，其余节点只保留占位符之外的文本，
// 同一 run 中的 w:tab、w:br 等兄弟元素位置不变。
// 每次替换后从替换值之后继续查找，替换值本身不会被再次扫描。
func replaceSpanning(p *etree.Element, pattern *regexp.Regexp, value string) int {
	count := 0
	cursor := 0

	for {
		spans, full := textSpans(p)
		if cursor > len(full) {
			return count
		}
		loc := pattern.FindStringIndex(full[cursor:])
		if loc == nil {
			return count
		}
		start, end := cursor+loc[0], cursor+loc[1]

		written := false
		for _, span := range spans {
			text := span.node.Text()
			spanEnd := span.start + len(text)
			if spanEnd <= start || span.start >= end {
				continue
			}

			lo := max(start-span.start, 0)
			hi := min(end-span.start, len(text))
			updated := text[:lo]
			if !written {
				updated += value
				written = true
			}
			updated += text[hi:]

			if updated == "" {
				span.run.RemoveChild(span.node)
				continue
			}
			span.node.SetText(updated)
			preserve(span.node)
		}

		count++
		cursor = start + len(value)
	}
}

func sortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
