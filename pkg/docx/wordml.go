package docx

import (
	"strings"

	"github.com/beevik/etree"
)

const nsWordprocessingML = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// 图形、文本框和嵌入对象中的文本不做替换
var skippedContainers = map[string]bool{
	"drawing":          true,
	"pict":             true,
	"object":           true,
	"txbxContent":      true,
	"AlternateContent": true,
	"del":              true,
}

func isWordElement(e *etree.Element, tag string) bool {
	if e.Tag != tag {
		return false
	}
	return e.Space == "w" || e.NamespaceURI() == nsWordprocessingML
}

func isSkipped(e *etree.Element) bool {
	return skippedContainers[e.Tag]
}

// paragraphs 按文档顺序收集部件中的段落（含表格单元格内的段落）
func paragraphs(root *etree.Element) []*etree.Element {
	var result []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			switch {
			case isWordElement(child, "p"):
				result = append(result, child)
			case isSkipped(child):
			default:
				walk(child)
			}
		}
	}
	walk(root)
	return result
}

// runs 按顺序收集段落中的 w:r，包括超链接、修订插入等容器里的 run
func runs(p *etree.Element) []*etree.Element {
	var result []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			switch {
			case isWordElement(child, "r"):
				result = append(result, child)
			case isWordElement(child, "pPr"), isWordElement(child, "p"), isSkipped(child):
			default:
				walk(child)
			}
		}
	}
	walk(p)
	return result
}

// textNodes 返回 run 的直接 w:t 子元素
func textNodes(run *etree.Element) []*etree.Element {
	var result []*etree.Element
	for _, child := range run.ChildElements() {
		if isWordElement(child, "t") {
			result = append(result, child)
		}
	}
	return result
}

func runText(run *etree.Element) string {
	var sb strings.Builder
	for _, t := range textNodes(run) {
		sb.WriteString(t.Text())
	}
	return sb.String()
}

// paragraphText 返回段落可见文本：所有 run 的 w:t 依次拼接
func paragraphText(p *etree.Element) string {
	var sb strings.Builder
	for _, r := range runs(p) {
		sb.WriteString(runText(r))
	}
	return sb.String()
}

// partText 返回部件中每个段落的可见文本
func partText(doc *etree.Document) []string {
	var texts []string
	for _, p := range paragraphs(doc.Root()) {
		texts = append(texts, paragraphText(p))
	}
	return texts
}

func isPreserved(t *etree.Element) bool {
	attr := t.SelectAttr("xml:space")
	return attr != nil && attr.Value == "preserve"
}

// ensurePreserve 文本首尾带空白时补上 xml:space="preserve"，已有的标记保持不变
func ensurePreserve(t *etree.Element, text string) {
	if isPreserved(t) || text == "" {
		return
	}
	if strings.TrimSpace(text) != text {
		t.CreateAttr("xml:space", "preserve")
	}
}

func preserve(t *etree.Element) {
	if !isPreserved(t) {
		t.CreateAttr("xml:space", "preserve")
	}
}
