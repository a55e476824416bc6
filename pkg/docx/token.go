package docx

import (
	"regexp"
	"strings"
)

const (
	// TokenPrefix 占位符前缀
	TokenPrefix = "!["
	// TokenSuffix 占位符后缀
	TokenSuffix = "]"
)

var (
	tokenPattern = regexp.MustCompile(`!\[(.*?)\]`)
	tagPattern   = regexp.MustCompile(`<[^>]*>`)

	xmlUnescaper = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
)

// FormatToken 将字段名格式化为 ![Name]
func FormatToken(name string) string {
	return TokenPrefix + name + TokenSuffix
}

// TokenPattern 返回匹配字段占位符的正则，名称前后允许空白，如 "![ Name ]"
func TokenPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`!\[\s*` + regexp.QuoteMeta(name) + `\s*\]`)
}

// ScanNames 扫描文本中的占位符，返回去除首尾空白后的字段名。
// 名称中带有 < 或 > 的匹配跨越了XML标签，丢弃。
func ScanNames(text string) []string {
	var names []string
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || strings.ContainsAny(name, "<>") {
			continue
		}
		names = append(names, name)
	}
	return names
}

// StripTags 移除所有尖括号之间的标记
func StripTags(text string) string {
	return tagPattern.ReplaceAllString(text, "")
}

// UnescapeXML 还原XML预定义实体
func UnescapeXML(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return xmlUnescaper.Replace(text)
}
