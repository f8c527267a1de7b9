package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// maxDocumentXML bounds the decompressed size of word/document.xml.
const maxDocumentXML = 64 << 20

// WordDecoder extracts text from .docx files: non-empty body paragraphs
// followed by table rows with cells joined by " | ". Units are body
// paragraphs, empty ones included. Legacy .doc files fail to open and fall
// back to base64.
type WordDecoder struct{}

// Decode implements Decoder.
func (WordDecoder) Decode(data []byte) (string, int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("extract: opening docx: %w", err)
	}

	var body *zip.File

	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}

	if body == nil {
		return "", 0, fmt.Errorf("extract: docx has no word/document.xml")
	}

	rc, err := body.Open()
	if err != nil {
		return "", 0, fmt.Errorf("extract: reading docx body: %w", err)
	}
	defer rc.Close()

	var doc wDocument
	if err := xml.NewDecoder(io.LimitReader(rc, maxDocumentXML)).Decode(&doc); err != nil {
		return "", 0, fmt.Errorf("extract: parsing docx body: %w", err)
	}

	var parts []string

	for _, p := range doc.Body.Paragraphs {
		if strings.TrimSpace(p.text) != "" {
			parts = append(parts, p.text)
		}
	}

	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			cells := make([]string, len(row.Cells))
			for i, c := range row.Cells {
				cells[i] = c.text()
			}

			parts = append(parts, strings.Join(cells, " | "))
		}
	}

	return strings.Join(parts, "\n"), len(doc.Body.Paragraphs), nil
}

type wDocument struct {
	Body wBody `xml:"body"`
}

type wBody struct {
	Paragraphs []wParagraph `xml:"p"`
	Tables     []wTable     `xml:"tbl"`
}

type wTable struct {
	Rows []wRow `xml:"tr"`
}

type wRow struct {
	Cells []wCell `xml:"tc"`
}

type wCell struct {
	Paragraphs []wParagraph `xml:"p"`
}

func (c wCell) text() string {
	lines := make([]string, len(c.Paragraphs))
	for i, p := range c.Paragraphs {
		lines[i] = p.text
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// wParagraph collects the text runs of a w:p in document order, including
// runs nested in hyperlinks and field codes.
type wParagraph struct {
	text string
}

// UnmarshalXML implements xml.Unmarshaler.
func (p *wParagraph) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	var b strings.Builder

	depth := 1
	inText := false

	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++

			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			depth--

			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	p.text = b.String()

	return nil
}
