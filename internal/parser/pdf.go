// Package parser extracts page-segmented text from uploaded PDFs.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"propertyrag/internal/rag/schema"
	"propertyrag/pkg/logger"
)

// ParseError wraps any failure while reading an uploaded file.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// PDFParser reads PDF bytes into a ParsedDocument.
type PDFParser struct {
	log *logger.Logger
}

func NewPDF(log *logger.Logger) *PDFParser {
	return &PDFParser{log: log}
}

// Parse validates that content is a PDF and extracts one Page per PDF
// page. Pages whose text cannot be decoded are kept as empty pages so page
// numbering stays aligned with the source file.
func (p *PDFParser) Parse(content []byte, filename string) (*schema.ParsedDocument, error) {
	if len(content) == 0 {
		return nil, &ParseError{Filename: filename, Err: fmt.Errorf("empty file")}
	}
	if mt := mimetype.Detect(content); !mt.Is("application/pdf") {
		return nil, &ParseError{Filename: filename, Err: fmt.Errorf("unsupported content type %s", mt.String())}
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}

	pageCount := reader.NumPage()
	pages := make([]schema.Page, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			raw, err := page.GetPlainText(nil)
			if err != nil {
				p.log.WithPayload(map[string]interface{}{
					"filename": filename,
					"page":     i,
				}).Warn("Failed to extract page text, keeping page empty")
			} else {
				text = cleanText(raw)
			}
		}
		pages = append(pages, schema.Page{PageNumber: i, Text: text})
	}

	return &schema.ParsedDocument{
		Filename:  filename,
		Pages:     pages,
		PageCount: pageCount,
	}, nil
}

// cleanText normalizes extracted text: line endings become \n, runs of
// spaces and tabs collapse to one space, and runs of blank lines collapse
// to a single blank line.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRun.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = newlineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
