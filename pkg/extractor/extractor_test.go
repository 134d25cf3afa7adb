package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText(t *testing.T) {
	res, err := Extract("txt", []byte("hello brave new world"))
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalWords)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, "hello brave new world", res.Text())
}

func TestExtractTextPageEstimate(t *testing.T) {
	data := strings.Repeat("word ", 1200)
	res, err := Extract(".TXT", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, 1200, res.TotalWords)
	assert.Equal(t, 2, res.TotalPages)
}

func TestExtractDOCX(t *testing.T) {
	paragraphs := make([]string, 65)
	for i := range paragraphs {
		paragraphs[i] = fmt.Sprintf("paragraph %d", i)
	}
	res, err := Extract("docx", buildDOCX(t, paragraphs))
	require.NoError(t, err)

	assert.Equal(t, 130, res.TotalWords)
	assert.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Pages, 3)
	assert.Equal(t, 3, res.Pages[2].Number)
	assert.True(t, strings.HasPrefix(res.Pages[1].Text, "paragraph 30"))
}

func TestExtractDOCXPageCountMatchesPages(t *testing.T) {
	tests := []struct {
		name       string
		paragraphs int
		wantPages  int
	}{
		{"single paragraph", 1, 1},
		{"exactly one page", 30, 1},
		{"partial second page", 45, 2},
		{"almost two pages", 59, 2},
		{"exactly two pages", 60, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paragraphs := make([]string, tt.paragraphs)
			for i := range paragraphs {
				paragraphs[i] = fmt.Sprintf("line %d", i)
			}
			res, err := Extract("docx", buildDOCX(t, paragraphs))
			require.NoError(t, err)

			assert.Equal(t, tt.wantPages, res.TotalPages)
			require.Len(t, res.Pages, tt.wantPages)
			assert.Equal(t, res.TotalPages, res.Pages[len(res.Pages)-1].Number)

			for _, c := range Split(res.Pages, 5, 1) {
				assert.LessOrEqual(t, c.PageNumber, res.TotalPages)
			}
		})
	}
}

func TestExtractBrokenDOCX(t *testing.T) {
	_, err := Extract("doc", []byte("not a zip archive"))
	assert.Error(t, err)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract("png", []byte{0x89})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSplit(t *testing.T) {
	words := make([]string, 25)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	pages := []Page{
		{Number: 1, Text: strings.Join(words[:12], " ")},
		{Number: 2, Text: strings.Join(words[12:], " ")},
	}

	chunks := Split(pages, 10, 2)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.True(t, strings.HasPrefix(chunks[1].Text, "w8 w9 w10"))
	assert.Equal(t, 1, chunks[1].PageNumber)
	assert.Equal(t, 2, chunks[2].PageNumber)
	assert.True(t, strings.HasSuffix(chunks[2].Text, "w24"))
}

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, Split(nil, 1000, 100))
	assert.Empty(t, Split([]Page{{Number: 1, Text: "   "}}, 1000, 100))
}
