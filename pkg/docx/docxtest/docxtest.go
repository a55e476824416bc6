// Package docxtest 构造测试用的最小DOCX文件
package docxtest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const (
	contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

	rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

	documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	nsW       = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
)

// Run 生成一个只含单个文本节点的 run
func Run(text string) string {
	return `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r>`
}

// PlainRun 生成一个不带 xml:space 的 run
func PlainRun(text string) string {
	return `<w:r><w:t>` + escape(text) + `</w:t></w:r>`
}

// MultiTextRun 生成一个含多个文本节点的 run
func MultiTextRun(texts ...string) string {
	var sb strings.Builder
	sb.WriteString(`<w:r>`)
	for _, t := range texts {
		sb.WriteString(`<w:t>` + escape(t) + `</w:t>`)
	}
	sb.WriteString(`</w:r>`)
	return sb.String()
}

// Paragraph 由若干 run 组成段落
func Paragraph(runs ...string) string {
	return `<w:p><w:pPr><w:pStyle w:val="Normal"/></w:pPr>` + strings.Join(runs, "") + `</w:p>`
}

// SplitParagraph 将文本在给定位置切分为多个 run
func SplitParagraph(text string, cuts ...int) string {
	var runs []string
	prev := 0
	for _, c := range cuts {
		runs = append(runs, Run(text[prev:c]))
		prev = c
	}
	runs = append(runs, Run(text[prev:]))
	return Paragraph(runs...)
}

// Document 生成 word/document.xml
func Document(paragraphs ...string) string {
	return xmlHeader + `<w:document ` + nsW + `><w:body>` + strings.Join(paragraphs, "") + `<w:sectPr/></w:body></w:document>`
}

// Header 生成页眉部件
func Header(paragraphs ...string) string {
	return xmlHeader + `<w:hdr ` + nsW + `>` + strings.Join(paragraphs, "") + `</w:hdr>`
}

// Footer 生成页脚部件
func Footer(paragraphs ...string) string {
	return xmlHeader + `<w:ftr ` + nsW + `>` + strings.Join(paragraphs, "") + `</w:ftr>`
}

// Build 打包成DOCX字节；parts 必须包含 word/document.xml
func Build(parts map[string]string) ([]byte, error) {
	all := map[string]string{
		"[Content_Types].xml":          contentTypes,
		"_rels/.rels":                  rootRels,
		"word/_rels/document.xml.rels": documentRels,
	}
	for name, content := range parts {
		all[name] = content
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(all[name])); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustBuild 同 Build，失败时终止测试
func MustBuild(t testing.TB, parts map[string]string) []byte {
	t.Helper()
	data, err := Build(parts)
	if err != nil {
		t.Fatalf("构造DOCX失败: %v", err)
	}
	return data
}

// WriteFile 在目录中写出DOCX文件并返回路径
func WriteFile(t testing.TB, dir, name string, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, MustBuild(t, parts), 0644); err != nil {
		t.Fatalf("写入DOCX失败: %v", err)
	}
	return path
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
