package document

import (
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/go-pdf/fpdf"
)

const (
	// glyphFamily is the registered name of the Unicode font that covers
	// Devanagari as well as Latin text.
	glyphFamily = "glyph"
	// fallbackFamily is a core PDF font; it only covers cp1252.
	fallbackFamily = "Helvetica"
	sampleText     = "Rx Paracetamol 500mg रोज़ दो बार"
)

// Font labels used for metrics and logs.
const (
	FontGlyph    = "glyph"
	FontFallback = "fallback"
)

// GlyphFont holds the raw TrueType bytes of the Unicode font. A nil
// *GlyphFont means the fallback font is used.
type GlyphFont struct {
	Path string
	data []byte
}

// LoadGlyphFont reads and test-embeds the font at path so a corrupt file is
// rejected here rather than in the middle of a render.
func LoadGlyphFont(path string) (*GlyphFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glyph font: %w", err)
	}
	return NewGlyphFont(path, data)
}

func NewGlyphFont(name string, data []byte) (font *GlyphFont, err error) {
	// The TrueType parser panics on truncated tables.
	defer func() {
		if r := recover(); r != nil {
			font, err = nil, fmt.Errorf("parse glyph font %s: %v", name, r)
		}
	}()

	// Registration alone accepts garbage; the font is only trusted once it
	// has drawn a line of text.
	probe := fpdf.New("P", "pt", "Letter", "")
	probe.AddUTF8FontFromBytes(glyphFamily, "", data)
	probe.AddPage()
	probe.SetFont(glyphFamily, "", bodySize)
	if probe.Err() {
		return nil, fmt.Errorf("parse glyph font %s: %w", name, probe.Error())
	}
	if probe.GetStringWidth(sampleText) <= 0 {
		return nil, fmt.Errorf("parse glyph font %s: no glyph metrics", name)
	}
	probe.Write(lineHeight, sampleText)
	if err := probe.Output(io.Discard); err != nil {
		return nil, fmt.Errorf("parse glyph font %s: %w", name, err)
	}
	return &GlyphFont{Path: name, data: data}, nil
}

// needsGlyphFont reports whether s has letters outside Latin script, which
// the fallback font cannot draw.
func needsGlyphFont(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.In(r, unicode.Latin) {
			return true
		}
	}
	return false
}

// nonLatinText reports whether any text in doc needs the glyph font.
func nonLatinText(doc *Document) bool {
	var texts []string
	if doc.Variant == VariantLetterhead {
		lh := doc.Letterhead
		texts = append(texts, lh.Left.Name, lh.Left.Credentials, lh.Right.Name, lh.Right.Credentials,
			lh.Institution, lh.Footer)
	}
	for _, b := range doc.Blocks {
		texts = append(texts, b.Title, b.Label, b.Text)
		for _, row := range b.Rows {
			texts = append(texts, row...)
		}
	}
	for _, s := range texts {
		if needsGlyphFont(s) {
			return true
		}
	}
	return false
}
