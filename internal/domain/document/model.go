// Package document lays out a stored prescription as a printable page.
//
// Composition and emission are separate steps. The Composer walks a fixed
// sequence of blocks and decides which ones a prescription gets; the Renderer
// turns the resulting Document into PDF bytes with fpdf.
package document

import "fmt"

// Variant selects the page layout. It comes from configuration, never from
// the request.
type Variant string

const (
	// VariantPreprinted leaves wide top and bottom margins for paper that
	// already carries the clinic letterhead, and draws no header, signature
	// or footer.
	VariantPreprinted Variant = "preprinted"
	// VariantLetterhead draws the bilingual header, signature and footer on
	// blank paper.
	VariantLetterhead Variant = "letterhead"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantPreprinted, VariantLetterhead:
		return v, nil
	}
	return "", fmt.Errorf("unknown document variant %q", s)
}

type BlockKind string

const (
	BlockHeader         BlockKind = "header"
	BlockPatient        BlockKind = "patient"
	BlockDiagnosis      BlockKind = "diagnosis"
	BlockInvestigations BlockKind = "investigations"
	BlockMedicines      BlockKind = "medicines"
	BlockNotes          BlockKind = "notes"
	BlockSignature      BlockKind = "signature"
)

// MissingDosage fills the dosage column of a line that has none.
const MissingDosage = "—"

// MedicineColumns is the header row of the Rx table.
var MedicineColumns = []string{"Medicine", "Dosage", "Frequency"}

// Block is one section of the page. Only the fields relevant to Kind are set.
type Block struct {
	Kind BlockKind
	// Title is a section heading drawn above the body.
	Title string
	// Label is a bold prefix drawn inline before Text.
	Label string
	Text  string
	// Rows holds the Rx table body, one []string per medicine line.
	Rows [][]string
}

// NameBlock is one side of the letterhead header.
type NameBlock struct {
	Name        string
	Credentials string
}

type Letterhead struct {
	Left        NameBlock
	Right       NameBlock
	Institution string
	Footer      string
}

// Document is the composed, not yet encoded, page content.
type Document struct {
	Variant    Variant
	Title      string
	Letterhead Letterhead
	Blocks     []Block
}

// Kinds lists the block kinds in page order.
func (d *Document) Kinds() []BlockKind {
	kinds := make([]BlockKind, len(d.Blocks))
	for i, b := range d.Blocks {
		kinds[i] = b.Kind
	}
	return kinds
}

// Has reports whether the document contains a block of kind k.
func (d *Document) Has(k BlockKind) bool {
	for _, b := range d.Blocks {
		if b.Kind == k {
			return true
		}
	}
	return false
}
