package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// extractDOCX handles .docx: structured text extraction that preserves
// paragraph order. DOCX has no third-party text-extraction library
// available, so this reads the zip/XML directly with stdlib
// archive/zip + encoding/xml.
func extractDOCX(raw domain.RawDocument) (domain.ExtractedDocument, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw.Bytes), int64(len(raw.Bytes)))
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("opening docx: %w: %w", err, domain.ErrExtractionFailed)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return domain.ExtractedDocument{}, fmt.Errorf("word/document.xml not found: %w", domain.ErrExtractionFailed)
	}

	rc, err := docFile.Open()
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("opening document.xml: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.ExtractedDocument{}, err
	}

	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("parsing document.xml: %w", err)
	}

	var b strings.Builder
	for _, para := range doc.Body.Paragraphs {
		text := extractParaText(para)
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}

	return finalize(raw.StorageKey, domain.ExtractionMethodDOCXText, b.String(), 0, nil), nil
}

type docxDocument struct {
	XMLName xml.Name  `xml:"document"`
	Body    docxBody  `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Value string `xml:",chardata"`
}

func extractParaText(p docxParagraph) string {
	var b strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Text {
			b.WriteString(t.Value)
		}
	}
	return b.String()
}
