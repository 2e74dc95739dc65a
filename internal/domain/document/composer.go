package document

import (
	"strconv"
	"strings"

	"github.com/rxpad/rxpad/internal/domain/prescription"
)

type Composer struct {
	variant    Variant
	letterhead Letterhead
}

func NewComposer(variant Variant, letterhead Letterhead) *Composer {
	return &Composer{variant: variant, letterhead: letterhead}
}

func (c *Composer) Variant() Variant {
	return c.variant
}

// step builds one block; ok is false when the block does not apply.
type step func(c *Composer, p *prescription.Prescription) (b Block, ok bool)

// steps is the fixed page order. Every render walks it top to bottom.
var steps = []step{
	(*Composer).header,
	(*Composer).patient,
	(*Composer).diagnosis,
	(*Composer).investigations,
	(*Composer).medicines,
	(*Composer).notes,
	(*Composer).signature,
}

// Compose lays out p. Optional sections without content are left out of the
// document entirely.
func (c *Composer) Compose(p *prescription.Prescription) *Document {
	doc := &Document{
		Variant:    c.variant,
		Title:      "Prescription " + p.ID,
		Letterhead: c.letterhead,
	}
	for _, build := range steps {
		if b, ok := build(c, p); ok {
			doc.Blocks = append(doc.Blocks, b)
		}
	}
	return doc
}

func (c *Composer) header(*prescription.Prescription) (Block, bool) {
	if c.variant == VariantPreprinted {
		return Block{}, false
	}
	return Block{Kind: BlockHeader}, true
}

// PatientLine is "Patient Name: X | Age: N | Date: D"; the age segment only
// appears when an age was recorded.
func PatientLine(p *prescription.Prescription) string {
	parts := []string{"Patient Name: " + p.PatientName}
	if p.PatientAge != nil {
		parts = append(parts, "Age: "+strconv.Itoa(*p.PatientAge))
	}
	parts = append(parts, "Date: "+p.Date)
	return strings.Join(parts, " | ")
}

func (c *Composer) patient(p *prescription.Prescription) (Block, bool) {
	return Block{Kind: BlockPatient, Title: "Prescription", Text: PatientLine(p)}, true
}

func (c *Composer) diagnosis(p *prescription.Prescription) (Block, bool) {
	text := prescription.Text(p.Diagnosis)
	if text == "" {
		return Block{}, false
	}
	return Block{Kind: BlockDiagnosis, Label: "Diagnosis:", Text: text}, true
}

func (c *Composer) investigations(p *prescription.Prescription) (Block, bool) {
	text := prescription.Text(p.Investigations)
	if text == "" {
		return Block{}, false
	}
	return Block{Kind: BlockInvestigations, Label: "Investigations Advised:", Text: text}, true
}

func (c *Composer) medicines(p *prescription.Prescription) (Block, bool) {
	rows := make([][]string, 0, len(p.Medicines))
	for _, m := range p.Medicines {
		dosage := MissingDosage
		if m.HasDosage() {
			dosage = strings.TrimSpace(*m.Dosage)
		}
		rows = append(rows, []string{m.Name, dosage, m.Frequency})
	}
	return Block{Kind: BlockMedicines, Title: "Rx", Rows: rows}, true
}

func (c *Composer) notes(p *prescription.Prescription) (Block, bool) {
	text := prescription.Text(p.DoctorNotes)
	if text == "" {
		return Block{}, false
	}
	return Block{Kind: BlockNotes, Title: "Notes", Text: text}, true
}

func (c *Composer) signature(*prescription.Prescription) (Block, bool) {
	if c.variant == VariantPreprinted {
		return Block{}, false
	}
	return Block{
		Kind:  BlockSignature,
		Label: c.letterhead.Left.Name,
		Text:  c.letterhead.Left.Credentials,
	}, true
}
