// Package extract turns downloaded file bytes into something a language
// model can read: plain text for text, PDF, Excel, and Word files, and
// base64 for everything else or anything that fails to decode.
package extract

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// Kind says how Result content is carried.
type Kind string

// Result kinds.
const (
	KindText   Kind = "text"
	KindBinary Kind = "binary"
)

// Result is the outcome of one extraction. Exactly one of Text and Base64
// is set, matching Kind. Size is always the raw input length.
type Result struct {
	Name           string
	Kind           Kind
	Text           string
	Base64         string
	OriginalFormat Category // pdf, excel, or word when a decoder produced Text
	UnitCount      int      // pages, sheets, or paragraphs
	Size           int
}

// MarshalJSON implements json.Marshaler. The unit count is named after
// the original format: page_count, sheet_count, or paragraph_count.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"name":         r.Name,
		"content_type": r.Kind,
		"size":         r.Size,
	}

	if r.Kind == KindText {
		out["content"] = r.Text
	} else {
		out["content_base64"] = r.Base64
	}

	if key := unitKey(r.OriginalFormat); key != "" {
		out["original_type"] = r.OriginalFormat
		out[key] = r.UnitCount
	}

	return json.Marshal(out)
}

func unitKey(c Category) string {
	switch c {
	case CategoryPDF:
		return "page_count"
	case CategoryExcel:
		return "sheet_count"
	case CategoryWord:
		return "paragraph_count"
	default:
		return ""
	}
}

// Decoder extracts text from one document format, reporting the number of
// natural units (pages, sheets, paragraphs) it found.
type Decoder interface {
	Decode(data []byte) (text string, units int, err error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte) (string, int, error)

// Decode calls f.
func (f DecoderFunc) Decode(data []byte) (string, int, error) { return f(data) }

// Extractor dispatches by Category. It is safe for concurrent use.
type Extractor struct {
	logger   *slog.Logger
	decoders map[Category]Decoder
}

// New returns an Extractor with the standard PDF, Excel, and Word decoders.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		logger: logger,
		decoders: map[Category]Decoder{
			CategoryPDF:   PDFDecoder{},
			CategoryExcel: ExcelDecoder{MaxRows: DefaultExcelRows},
			CategoryWord:  WordDecoder{},
		},
	}
}

// WithDecoder returns a copy of e that uses d for cat.
func (e *Extractor) WithDecoder(cat Category, d Decoder) *Extractor {
	decoders := make(map[Category]Decoder, len(e.decoders)+1)
	for k, v := range e.decoders {
		decoders[k] = v
	}

	decoders[cat] = d

	return &Extractor{logger: e.logger, decoders: decoders}
}

// Extract never fails. Decoder errors and panics are logged and the bytes
// are returned as base64 instead.
func (e *Extractor) Extract(name string, data []byte) Result {
	cat := Classify(name)

	switch cat {
	case CategoryText:
		if utf8.Valid(data) {
			return Result{Name: name, Kind: KindText, Text: string(data), Size: len(data)}
		}

		e.logger.Debug("text file is not valid UTF-8, returning base64", slog.String("name", name))

	case CategoryPDF, CategoryExcel, CategoryWord:
		if d, ok := e.decoders[cat]; ok {
			text, units, err := safeDecode(d, data)
			if err == nil {
				return Result{
					Name:           name,
					Kind:           KindText,
					Text:           text,
					OriginalFormat: cat,
					UnitCount:      units,
					Size:           len(data),
				}
			}

			e.logger.Warn("document parse failed, returning base64",
				slog.String("name", name),
				slog.String("format", string(cat)),
				slog.String("error", err.Error()),
			)
		}

	case CategoryBinary:
	}

	return Binary(name, data)
}

// Binary wraps data as a base64 Result.
func Binary(name string, data []byte) Result {
	return Result{
		Name:   name,
		Kind:   KindBinary,
		Base64: base64.StdEncoding.EncodeToString(data),
		Size:   len(data),
	}
}

// safeDecode runs d, converting a panic in third-party parsing code into an
// error.
func safeDecode(d Decoder, data []byte) (text string, units int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract: decoder panic: %v", r)
		}
	}()

	return d.Decode(data)
}
