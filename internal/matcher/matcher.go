package matcher

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/pkg/docx"
)

// TokenMatcher 在纯文本中查找并替换 ![Name] 占位符
type TokenMatcher struct {
	mu           sync.Mutex
	patternCache map[string]*regexp.Regexp
}

// NewTokenMatcher 创建新的占位符匹配器
func NewTokenMatcher() *TokenMatcher {
	return &TokenMatcher{
		patternCache: make(map[string]*regexp.Regexp),
	}
}

// FindMatches 在内容中查找字段映射里所有字段的占位符。
// 占位符名称前后允许空白，如 "![ Name ]"。结果按位置倒序排列，便于从后往前替换。
func (tm *TokenMatcher) FindMatches(content string, fields map[string]string) []domain.Match {
	if !strings.Contains(content, docx.TokenPrefix) {
		return nil
	}

	var matches []domain.Match
	for name, replacement := range fields {
		if name == "" {
			continue
		}
		pattern := tm.pattern(name)
		for _, index := range pattern.FindAllStringIndex(content, -1) {
			matches = append(matches, domain.Match{
				Name:        name,
				Token:       content[index[0]:index[1]],
				Replacement: replacement,
				StartPos:    index[0],
				EndPos:      index[1],
			})
		}
	}

	// 从后往前替换避免位置偏移
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].StartPos != matches[j].StartPos {
			return matches[i].StartPos > matches[j].StartPos
		}
		return matches[i].EndPos > matches[j].EndPos
	})

	return matches
}

// ReplaceMatches 根据匹配结果替换内容，matches 需按位置倒序。
// 与已替换区域重叠的匹配被跳过。
func (tm *TokenMatcher) ReplaceMatches(content string, matches []domain.Match) string {
	result, _ := applyMatches(content, matches)
	return result
}

func applyMatches(content string, matches []domain.Match) (string, map[string]int) {
	counts := make(map[string]int)
	limit := len(content)
	for _, match := range matches {
		if match.StartPos < 0 || match.StartPos > match.EndPos || match.EndPos > limit {
			continue
		}
		content = content[:match.StartPos] + match.Replacement + content[match.EndPos:]
		counts[match.Name]++
		limit = match.StartPos
	}
	return content, counts
}

// Replace 按字段名顺序逐个替换占位符，精确形式和名称带空白的形式一并处理。
// 返回替换后的内容和每个字段的替换次数。
func (tm *TokenMatcher) Replace(content string, fields map[string]string) (string, map[string]int) {
	counts := make(map[string]int)
	if !strings.Contains(content, docx.TokenPrefix) {
		return content, counts
	}

	keys := make([]string, 0, len(fields))
	for name := range fields {
		if name != "" {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)

	for _, name := range keys {
		matches := tm.FindMatches(content, map[string]string{name: fields[name]})
		if len(matches) == 0 {
			continue
		}
		var applied map[string]int
		content, applied = applyMatches(content, matches)
		counts[name] += applied[name]
	}

	return content, counts
}

// pattern 获取或创建字段的 !\[\s*Name\s*\] 正则表达式
func (tm *TokenMatcher) pattern(name string) *regexp.Regexp {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if pattern, exists := tm.patternCache[name]; exists {
		return pattern
	}

	pattern := docx.TokenPattern(name)
	tm.patternCache[name] = pattern
	return pattern
}

// ValidateTokenFormat 验证字符串是否为完整的 ![Name] 占位符
func ValidateTokenFormat(token string) bool {
	if !strings.HasPrefix(token, docx.TokenPrefix) || !strings.HasSuffix(token, docx.TokenSuffix) {
		return false
	}
	name := token[len(docx.TokenPrefix) : len(token)-len(docx.TokenSuffix)]
	return strings.TrimSpace(name) != "" && !strings.ContainsAny(name, "<>]")
}

// ParseToken 从 ![Name] 中提取字段名；不是占位符时原样返回
func ParseToken(token string) string {
	if !ValidateTokenFormat(token) {
		return token
	}
	return strings.TrimSpace(token[len(docx.TokenPrefix) : len(token)-len(docx.TokenSuffix)])
}

// FormatToken 将字段名格式化为 ![Name]；已经是占位符时原样返回
func FormatToken(name string) string {
	if ValidateTokenFormat(name) {
		return name
	}
	return docx.FormatToken(name)
}
