package docparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// Parser extracts plain text from uploaded documents. The extension
// decides the decoder; anything else is an UnsupportedFormatError.
type Parser struct{}

// NewParser creates a document parser.
func NewParser() *Parser {
	return &Parser{}
}

// ExtractText returns the plain text of the document. fileType is the
// lowercase extension without dot ("pdf", "docx", "txt").
func (p *Parser) ExtractText(fileBytes []byte, fileType string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(fileType, ".")) {
	case "pdf":
		return p.extractPDF(fileBytes)
	case "docx":
		return p.extractDOCX(fileBytes)
	case "txt":
		if !utf8.Valid(fileBytes) {
			return "", fmt.Errorf("text file is not valid UTF-8")
		}
		return string(fileBytes), nil
	default:
		return "", &pipeline.UnsupportedFormatError{Format: fileType}
	}
}

func (p *Parser) extractPDF(fileBytes []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, textReader); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return sb.String(), nil
}

// extractDOCX pulls paragraph text out of word/document.xml. A .docx is
// a zip archive; text lives in w:t elements, paragraphs end at w:p.
func (p *Parser) extractDOCX(fileBytes []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX archive: %w", err)
	}

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("DOCX archive has no word/document.xml")
	}

	rc, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	var sb strings.Builder
	decoder := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Local == "p" {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
