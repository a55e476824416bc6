package docx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_filler/pkg/docx/docxtest"
)

func TestOpenPackage_TextParts(t *testing.T) {
	data := docxtest.MustBuild(t, map[string]string{
		MainDocumentPart:      docxtest.Document(),
		"word/header1.xml":    docxtest.Header(),
		"word/footer1.xml":    docxtest.Footer(),
		"word/footnotes.xml":  `<w:footnotes xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`,
		"word/endnotes.xml":   `<w:endnotes xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`,
		"word/styles.xml":     `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`,
		"customXml/item1.xml": `<root/>`,
	})

	pkg, err := OpenPackage(data)
	require.NoError(t, err)

	assert.Equal(t, []string{
		MainDocumentPart,
		"word/endnotes.xml",
		"word/footer1.xml",
		"word/footnotes.xml",
		"word/header1.xml",
	}, pkg.TextParts())
	assert.Contains(t, pkg.names(), "word/styles.xml")
}

func TestIsTextPart(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"word/document.xml", true},
		{"word/header.xml", true},
		{"word/header12.xml", true},
		{"word/footer3.xml", true},
		{"word/footnotes.xml", true},
		{"word/endnotes.xml", true},
		{"word/styles.xml", false},
		{"word/_rels/document.xml.rels", false},
		{"docProps/core.xml", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTextPart(tt.name), tt.name)
	}
}

func TestPackage_SaveUnchangedKeepsEntries(t *testing.T) {
	document := docxtest.Document(docxtest.Paragraph(docxtest.Run("![A]")))
	data := docxtest.MustBuild(t, map[string]string{MainDocumentPart: document})

	pkg, err := OpenPackage(data)
	require.NoError(t, err)
	_, err = pkg.Part(MainDocumentPart)
	require.NoError(t, err)
	assert.False(t, pkg.isDirty(MainDocumentPart))

	out, err := pkg.Bytes()
	require.NoError(t, err)

	reopened, err := OpenPackage(out)
	require.NoError(t, err)
	assert.Equal(t, pkg.names(), reopened.names())
	raw, err := reopened.ReadRaw(MainDocumentPart)
	require.NoError(t, err)
	assert.Equal(t, document, string(raw))
}

func TestPackage_MissingEntry(t *testing.T) {
	pkg, err := OpenPackage(docxtest.MustBuild(t, map[string]string{MainDocumentPart: docxtest.Document()}))
	require.NoError(t, err)

	_, err = pkg.ReadRaw("word/missing.xml")
	assert.Error(t, err)
	_, err = pkg.Part("word/missing.xml")
	assert.ErrorIs(t, err, ErrUnsupportedContainer)
}

func TestXMLEntries(t *testing.T) {
	data := docxtest.MustBuild(t, map[string]string{
		MainDocumentPart:   docxtest.Document(),
		"word/media/a.png": "\x89PNG",
	})

	entries, err := XMLEntries(data)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"[Content_Types].xml", MainDocumentPart}, names)

	_, err = XMLEntries([]byte("nope"))
	assert.ErrorIs(t, err, ErrUnsupportedContainer)
}
