package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFDecoder extracts the plain text of every page. Units are pages.
type PDFDecoder struct{}

// Decode implements Decoder.
func (PDFDecoder) Decode(data []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("extract: opening pdf: %w", err)
	}

	pages := r.NumPage()

	var b strings.Builder

	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			b.WriteByte('\n')
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("extract: reading pdf page %d: %w", i, err)
		}

		b.WriteString(text)
		b.WriteByte('\n')
	}

	return strings.TrimSpace(b.String()), pages, nil
}
