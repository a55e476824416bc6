package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_filler/internal/config"
	"github.com/allanpk716/docx_filler/pkg/docx"
	"github.com/allanpk716/docx_filler/pkg/docx/docxtest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidateArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    CommandLineArgs
		wantErr bool
	}{
		{name: "defaults", args: CommandLineArgs{}},
		{name: "valid sets", args: CommandLineArgs{Sets: []string{"A=1", "![B]=", "C=x=y"}}},
		{name: "missing equals", args: CommandLineArgs{Sets: []string{"A"}}, wantErr: true},
		{name: "empty key", args: CommandLineArgs{Sets: []string{"=1"}}, wantErr: true},
		{name: "concurrency too high", args: CommandLineArgs{Concurrency: 51}, wantErr: true},
		{name: "name with report", args: CommandLineArgs{OutputName: "a.docx", Report: true}, wantErr: true},
		{name: "name with separator", args: CommandLineArgs{OutputName: "dir/a.docx"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgs(&tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveFields(t *testing.T) {
	cm := config.NewConfigManager()
	cfg := &config.Config{
		ProjectName: "Test",
		Fields: []config.Field{
			{Key: "ClientName", Value: "from config"},
			{Key: "![Phone]", Value: "123"},
		},
	}

	fields, err := ResolveFields(cm, cfg, []string{"ClientName=from flag", "![Price]=15000", "Note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ClientName": "from flag",
		"Phone":      "123",
		"Price":      "15000",
		"Note":       "a=b",
	}, fields)

	fields, err = ResolveFields(cm, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestFindTemplateFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	for _, name := range []string{"a.docx", "sub/b.txt", "sub/~$b.docx", "c.pdf", "d.dotx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	files, err := FindTemplateFiles(dir, []string{"~$*"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.docx"),
		filepath.Join(dir, "d.dotx"),
		filepath.Join(dir, "sub", "b.txt"),
	}, files)

	_, err = FindTemplateFiles(filepath.Join(dir, "missing"), nil)
	assert.Error(t, err)
}

func TestFillCommand(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "client.txt")
	require.NoError(t, os.WriteFile(template, []byte("Name: ![ClientName], Phone: ![Phone]"), 0644))

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("project_name: Test\nfields:\n  - key: ClientName\n    value: Ivan Ivanov\n"), 0644))

	outDir := filepath.Join(dir, "out")
	out, err := execute(t, "fill", template,
		"--config", configPath,
		"--output-dir", outDir,
		"--name", "result.txt",
		"--set", "Phone=+7 999 123 45 67")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(outDir, "result.txt"))

	got, err := os.ReadFile(filepath.Join(outDir, "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Name: Ivan Ivanov, Phone: +7 999 123 45 67", string(got))
}

func TestFillCommand_MissingTemplate(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "fill", filepath.Join(dir, "missing.docx"), "--output-dir", filepath.Join(dir, "out"))
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	template := docxtest.WriteFile(t, dir, "order.docx", map[string]string{
		docx.MainDocumentPart: docxtest.Document(docxtest.Paragraph(docxtest.Run("![Order] ![Client]"))),
		"word/footer1.xml":    docxtest.Footer(docxtest.Paragraph(docxtest.Run("![Manager]"))),
	})

	out, err := execute(t, "extract", template)
	require.NoError(t, err)
	assert.Equal(t, "Client\nManager\nOrder\n", out)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(filepath.Join(input, "letters"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(input, "a.txt"), []byte("A=![A]"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(input, "letters", "b.txt"), []byte("B=![B]"), 0644))
	docxtest.WriteFile(t, input, "c.docx", map[string]string{
		docx.MainDocumentPart: docxtest.Document(docxtest.SplitParagraph("C=![C]", 3)),
	})

	outDir := filepath.Join(dir, "out")
	out, err := execute(t, "batch", input, "-o", outDir, "-j", "2", "-s", "A=1", "-s", "B=2", "-s", "C=3")
	require.NoError(t, err)
	assert.Contains(t, out, "成功 3, 失败 0")

	entries, err := os.ReadDir(filepath.Join(outDir, "letters"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "filled_b_"))

	got, err := os.ReadFile(filepath.Join(outDir, "letters", entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "B=2", string(got))
}

func TestCatalogCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visa.txt"), []byte("![VisaType] ![Country]"), 0644))

	out, err := execute(t, "catalog", dir)
	require.NoError(t, err)
	assert.Equal(t, "visa.txt\t[Country VisaType]\n", out)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, AppName+" v"+AppVersion+"\n", out)
}
