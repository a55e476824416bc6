// Package textenc 识别纯文本模板的字符集，并按原字符集写回
package textenc

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Codec 一种文本编码
type Codec struct {
	name string
	enc  encoding.Encoding // nil 表示不带BOM的UTF-8，原样读写
}

var (
	// UTF8 不带BOM的UTF-8
	UTF8 = Codec{name: "utf-8"}
	// Windows1251 既无BOM又不是有效UTF-8时使用的回退编码
	Windows1251 = Codec{name: "windows-1251", enc: charmap.Windows1251}
)

// Name 编码名称
func (c Codec) Name() string {
	return c.name
}

// Decode 将字节按此编码解码为字符串
func (c Codec) Decode(raw []byte) (string, error) {
	if c.enc == nil {
		return string(raw), nil
	}
	out, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("按 %s 解码失败: %w", c.name, err)
	}
	return string(out), nil
}

// Encode 将字符串按此编码写出，无法表示的字符被替换
func (c Codec) Encode(text string) ([]byte, error) {
	if c.enc == nil {
		return []byte(text), nil
	}
	out, err := encoding.ReplaceUnsupported(c.enc.NewEncoder()).Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("按 %s 编码失败: %w", c.name, err)
	}
	return out, nil
}

// Detect 根据BOM和UTF-8有效性判断编码；既无BOM又不是有效UTF-8时按 Windows-1251 处理
func Detect(raw []byte) Codec {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return Codec{name: "utf-8-bom", enc: unicode.UTF8BOM}
	case bytes.HasPrefix(raw, bomUTF16LE):
		return Codec{name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)}
	case bytes.HasPrefix(raw, bomUTF16BE):
		return Codec{name: "utf-16be", enc: unicode.UTF16(unicode.BigEndian, unicode.UseBOM)}
	case utf8.Valid(raw):
		return UTF8
	default:
		return Windows1251
	}
}

// Decode 识别编码并解码
func Decode(raw []byte) (string, Codec, error) {
	codec := Detect(raw)
	text, err := codec.Decode(raw)
	if err != nil {
		return "", codec, err
	}
	return text, codec, nil
}
