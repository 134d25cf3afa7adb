// Package extractor 从上传的文档中按页提取纯文本并切分为带页码的文本块
package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	// docx 没有真实分页，按段落数估算
	docxParagraphsPerPage = 30
	// 纯文本按词数估算页数
	textWordsPerPage = 500
)

var ErrUnsupported = errors.New("unsupported document type")

type Page struct {
	Number int
	Text   string
}

type Result struct {
	Pages      []Page
	TotalWords int
	TotalPages int
}

// Text 拼接全部页面文本
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Extract fileType 为不带点的扩展名：pdf / docx / doc / txt
func Extract(fileType string, data []byte) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch strings.TrimPrefix(strings.ToLower(fileType), ".") {
	case "pdf":
		res, err = extractPDF(data)
	case "docx", "doc":
		// 旧版 .doc 若实际是 OOXML 也能读出，否则报错
		res, err = extractDOCX(data)
	case "txt":
		res, err = extractText(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, fileType)
	}
	if err != nil {
		return nil, err
	}

	for _, p := range res.Pages {
		res.TotalWords += len(strings.Fields(p.Text))
	}
	return res, nil
}

func extractPDF(data []byte) (*Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := r.NumPage()
	res := &Result{TotalPages: total}
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		res.Pages = append(res.Pages, Page{Number: i, Text: text})
	}
	return res, nil
}

func extractDOCX(data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return nil, fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if body == nil {
		return nil, errors.New("docx: word/document.xml not found")
	}
	defer body.Close()

	paragraphs, err := docxParagraphs(body)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i := 0; i < len(paragraphs); i += docxParagraphsPerPage {
		end := min(i+docxParagraphsPerPage, len(paragraphs))
		res.Pages = append(res.Pages, Page{
			Number: i/docxParagraphsPerPage + 1,
			Text:   strings.Join(paragraphs[i:end], "\n"),
		})
	}
	// 页数与引用的页码保持一致
	res.TotalPages = max(1, len(res.Pages))
	return res, nil
}

// docxParagraphs 读取 <w:p> 内的 <w:t> 文本，每个段落一行
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs, nil
}

func extractText(data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte(" "))
	}
	text := string(data)
	words := len(strings.Fields(text))
	return &Result{
		Pages:      []Page{{Number: 1, Text: text}},
		TotalPages: max(1, words/textWordsPerPage),
	}, nil
}
