package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// ErrUnsupportedContainer 文档不是可解析的 zip+XML 结构
var ErrUnsupportedContainer = errors.New("不支持的文档容器")

// MainDocumentPart 主文档部件名
const MainDocumentPart = "word/document.xml"

// textPartPattern 承载正文文本的部件：正文、页眉、页脚、脚注、尾注
var textPartPattern = regexp.MustCompile(`^word/(document|header[0-9]*|footer[0-9]*|footnotes|endnotes)\.xml$`)

// IsTextPart 判断部件是否承载可替换的文本
func IsTextPart(name string) bool {
	return textPartPattern.MatchString(name)
}

var richExtensions = map[string]bool{
	".docx": true,
	".docm": true,
	".dotx": true,
	".dotm": true,
}

// IsRichExtension 判断扩展名是否属于 zip+XML 格式的Word文档
func IsRichExtension(ext string) bool {
	return richExtensions[strings.ToLower(ext)]
}

// Package 基于ZIP文件结构的DOCX包，部件按需解析为XML树
type Package struct {
	files []*zip.File
	index map[string]*zip.File
	parts map[string]*etree.Document
	dirty map[string]bool
}

// OpenPackage 从内存数据打开DOCX包
func OpenPackage(data []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: 打开DOCX文件失败: %v", ErrUnsupportedContainer, err)
	}

	pkg := &Package{
		files: reader.File,
		index: make(map[string]*zip.File, len(reader.File)),
		parts: make(map[string]*etree.Document),
		dirty: make(map[string]bool),
	}
	for _, file := range reader.File {
		pkg.index[file.Name] = file
	}

	if _, ok := pkg.index[MainDocumentPart]; !ok {
		return nil, fmt.Errorf("%w: 未找到 %s", ErrUnsupportedContainer, MainDocumentPart)
	}

	return pkg, nil
}

// names 返回包内所有条目名，保持原始顺序
func (p *Package) names() []string {
	names := make([]string, 0, len(p.files))
	for _, file := range p.files {
		names = append(names, file.Name)
	}
	return names
}

// TextParts 返回承载文本的部件名，主文档在前
func (p *Package) TextParts() []string {
	parts := []string{MainDocumentPart}
	for _, name := range p.names() {
		if name != MainDocumentPart && IsTextPart(name) {
			parts = append(parts, name)
		}
	}
	return parts
}

// ReadRaw 读取条目的原始字节
func (p *Package) ReadRaw(name string) ([]byte, error) {
	file, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("未找到条目 %s", name)
	}
	return readZipFile(file)
}

// Part 返回部件的XML树，首次访问时解析
func (p *Package) Part(name string) (*etree.Document, error) {
	if doc, ok := p.parts[name]; ok {
		return doc, nil
	}

	content, err := p.ReadRaw(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("%w: 解析 %s 失败: %v", ErrUnsupportedContainer, name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: %s 没有根元素", ErrUnsupportedContainer, name)
	}

	p.parts[name] = doc
	return doc, nil
}

// MarkDirty 标记部件已修改，保存时重新序列化
func (p *Package) MarkDirty(name string) {
	p.dirty[name] = true
}

// isDirty 返回部件是否已修改
func (p *Package) isDirty(name string) bool {
	return p.dirty[name]
}

// Save 写出整个包；未修改的条目按原始压缩数据复制
func (p *Package) Save(w io.Writer) error {
	zipWriter := zip.NewWriter(w)

	for _, file := range p.files {
		doc, parsed := p.parts[file.Name]
		if !parsed || !p.isDirty(file.Name) {
			if err := zipWriter.Copy(file); err != nil {
				return fmt.Errorf("复制条目 %s 失败: %w", file.Name, err)
			}
			continue
		}

		header := file.FileHeader
		writer, err := zipWriter.CreateHeader(&header)
		if err != nil {
			return fmt.Errorf("创建ZIP文件头失败: %w", err)
		}
		if _, err := doc.WriteTo(writer); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", file.Name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("关闭ZIP写入器失败: %w", err)
	}
	return nil
}

// Bytes 将包序列化为字节
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("打开文件 %s 失败: %w", file.Name, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取文件 %s 失败: %w", file.Name, err)
	}
	return content, nil
}

// Entry 包内的一个XML条目
type Entry struct {
	Name    string
	Content string
}

// XMLEntries 读取包内所有 .xml 条目的原始文本，不要求存在主文档
func XMLEntries(data []byte) ([]Entry, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}

	var entries []Entry
	for _, file := range reader.File {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".xml") {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: file.Name, Content: string(content)})
	}
	return entries, nil
}
