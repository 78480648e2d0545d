package bitset

import (
	"bytes"
	"testing"

	"github.com/snomedql/ecl/internal/ident"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	reg := NewRegistry([]ident.ConceptID{100, 200, 300})
	set := FromConceptIDs(reg, []ident.ConceptID{100, 300})

	var buf bytes.Buffer
	orig := File{Release: "2024-07-01", ECLText: "<<100", Set: set}
	if err := Save(&buf, orig); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(&buf, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Release != orig.Release || got.ECLText != orig.ECLText {
		t.Errorf("Load() header = %+v, want Release=%q ECLText=%q", got, orig.Release, orig.ECLText)
	}
	if !sameMembers(got.Set.ConceptIDs(), set.ConceptIDs()) {
		t.Errorf("Load() set = %v, want %v", got.Set.ConceptIDs(), set.ConceptIDs())
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	reg := NewRegistry([]ident.ConceptID{100})
	_, err := Load(bytes.NewReader([]byte("XXXXgarbage")), reg)
	if _, ok := err.(*InvalidFormat); !ok {
		t.Fatalf("err = %v (%T), want *InvalidFormat", err, err)
	}
}

func TestLoadDetectsTamperedECLText(t *testing.T) {
	reg := NewRegistry([]ident.ConceptID{100, 200})
	set := FromConceptIDs(reg, []ident.ConceptID{100})

	var buf bytes.Buffer
	if err := Save(&buf, File{Release: "r", ECLText: "<<100", Set: set}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw := buf.Bytes()

	// The ECL text starts after magic(4) + version(4) + releaseLen(4) +
	// release("r", 1 byte) + eclLen(4): flip one byte inside "<<100".
	eclStart := 4 + 4 + 4 + len("r") + 4
	tampered := append([]byte(nil), raw...)
	tampered[eclStart] = '>' // was '<'

	_, err := Load(bytes.NewReader(tampered), reg)
	if _, ok := err.(*HashMismatch); !ok {
		t.Fatalf("err = %v (%T), want *HashMismatch", err, err)
	}
}

func TestLoadRejectsTruncatedData(t *testing.T) {
	reg := NewRegistry([]ident.ConceptID{100})
	set := FromConceptIDs(reg, []ident.ConceptID{100})
	var buf bytes.Buffer
	if err := Save(&buf, File{Release: "r", ECLText: "100", Set: set}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-10]
	if _, err := Load(bytes.NewReader(truncated), reg); err == nil {
		t.Fatal("expected an error loading truncated .eclb data")
	}
}

func TestManifestWriteReadRoundTrip(t *testing.T) {
	m := Manifest{
		SnomedRelease:   "2024-07-01",
		CompilerVersion: "test",
		TotalConcepts:   3,
		Bitsets: []ManifestEntry{
			{ID: "a", Name: "finding", ConstraintType: ConstraintDomain, ECLExpression: "<<100", ConceptCount: 2, Filename: "a.eclb"},
		},
	}
	var buf bytes.Buffer
	if err := WriteManifest(&buf, m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	got, err := ReadManifest(&buf)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if got.SnomedRelease != m.SnomedRelease || len(got.Bitsets) != 1 {
		t.Fatalf("ReadManifest() = %+v", got)
	}
	if got.Bitsets[0].ECLExpression != "<<100" {
		t.Errorf("Bitsets[0].ECLExpression = %q, want %q", got.Bitsets[0].ECLExpression, "<<100")
	}
}
