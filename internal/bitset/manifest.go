package bitset

import (
	"encoding/json"
	"io"
	"time"
)

// ConstraintType tags what kind of ECL constraint a manifest entry's
// precompiled bitset enforces.
type ConstraintType string

const (
	ConstraintDomain  ConstraintType = "domain"
	ConstraintRange   ConstraintType = "range"
	ConstraintGeneral ConstraintType = "general"
)

// ManifestEntry describes one compiled .eclb file, per spec.md §6.
type ManifestEntry struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	ConstraintType ConstraintType `json:"constraint_type"`
	ECLExpression  string         `json:"ecl_expression"`
	ConceptCount   int            `json:"concept_count"`
	FileSizeBytes  int64          `json:"file_size_bytes"`
	Filename       string         `json:"filename"`
}

// Manifest is the JSON index of a compiled bitset bundle.
type Manifest struct {
	SnomedRelease  string          `json:"snomed_release"`
	CompiledAt     time.Time       `json:"compiled_at"`
	CompilerVersion string         `json:"compiler_version"`
	TotalConcepts  int             `json:"total_concepts"`
	Bitsets        []ManifestEntry `json:"bitsets"`
}

// WriteManifest serializes m as indented JSON.
func WriteManifest(w io.Writer, m Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// ReadManifest deserializes a Manifest previously written by WriteManifest.
func ReadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	err := json.NewDecoder(r).Decode(&m)
	return m, err
}
