package catalog

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical keys are built from user-typed form fields. Both separators are
// ASCII control characters, which a text input cannot produce, so no field
// value can forge a segment boundary or impersonate the absent-dosage marker.
const (
	// KeyDelimiter separates the segments of a canonical key (ASCII US).
	KeyDelimiter = "\x1f"

	// NoDosageSentinel stands in for a blank dosage segment (ASCII SUB).
	// An empty segment is never used, so "no dosage" cannot be confused with
	// a dosage that some other path stored as "".
	NoDosageSentinel = "\x1a"

	// UnknownAgeSentinel is the age segment of a patient key when no age was
	// recorded. Present ages are decimal digits, so it cannot collide.
	UnknownAgeSentinel = "unknown"
)

// fold trims surrounding whitespace and lower-cases s.
// cases.Caser is stateful, so a fresh one is used per call.
func fold(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

func joinKey(segments ...string) string {
	return strings.Join(segments, KeyDelimiter)
}

// MedicineKey returns the dedup key for a (name, dosage, frequency) tuple.
func MedicineKey(name, dosage, frequency string) string {
	d := fold(dosage)
	if d == "" {
		d = NoDosageSentinel
	}
	return joinKey(fold(name), d, fold(frequency))
}

// DiagnosisInvestigationKey returns the dedup key for a diagnosis paired with
// its investigations text.
func DiagnosisInvestigationKey(diagnosis, investigations string) string {
	return joinKey(fold(diagnosis), fold(investigations))
}

// PatientKey returns the dedup key for a patient name and optional age.
func PatientKey(name string, age *int) string {
	a := UnknownAgeSentinel
	if age != nil {
		a = strconv.Itoa(*age)
	}
	return joinKey(fold(name), a)
}

// InvestigationKey returns the dedup key for a single investigation text.
func InvestigationKey(text string) string {
	return fold(text)
}

// isBlank reports whether s is empty after trimming whitespace.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
