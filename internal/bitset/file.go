// File implements the .eclb binary bitset format (spec.md §6): a small
// self-describing header (magic, version, release string, the ECL text
// that produced the bitmap and its SHA-256 hash, the concept count) in
// front of the serialized compressed bitmap itself.
package bitset

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	magic          = "ECLB"
	formatVersion1 = 1
)

// InvalidFormat is raised when a file fails to parse as a well-formed
// .eclb container (bad magic, unsupported version, truncated data).
type InvalidFormat struct {
	Reason string
}

func (e *InvalidFormat) Error() string { return "bitset: invalid format: " + e.Reason }

// HashMismatch is raised when the stored ECL text's SHA-256 no longer
// matches the header's recorded hash, or the concept count disagrees
// with the deserialized bitmap's population.
type HashMismatch struct {
	Expected string
	Actual   string
}

func (e *HashMismatch) Error() string {
	return fmt.Sprintf("bitset: hash mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// File is one .eclb container's header plus its Set.
type File struct {
	Release string
	ECLText string
	Set     *Set
}

// Save writes f to w in the §6 wire format.
func Save(w io.Writer, f File) error {
	bitmapBytes, err := f.Set.ToBytes()
	if err != nil {
		return err
	}
	hash := sha256.Sum256([]byte(f.ECLText))

	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	for _, v := range []uint32{
		formatVersion1,
		uint32(len(f.Release)),
	} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, f.Release); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(f.ECLText))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, f.ECLText); err != nil {
		return err
	}
	if _, err := w.Write(hash[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(f.Set.Len())); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(bitmapBytes))); err != nil {
		return err
	}
	_, err = w.Write(bitmapBytes)
	return err
}

// Load reads a .eclb container, validating magic, version, the ECL
// text's hash, and concept-count agreement with the bitmap's actual
// population, binding the resulting Set to reg.
func Load(r io.Reader, reg *Registry) (File, error) {
	var empty File

	magicBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, magicBuf); err != nil {
		return empty, &InvalidFormat{Reason: "truncated magic"}
	}
	if string(magicBuf) != magic {
		return empty, &InvalidFormat{Reason: "bad magic"}
	}

	var version, releaseLen uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return empty, &InvalidFormat{Reason: "truncated version"}
	}
	if version != formatVersion1 {
		return empty, &InvalidFormat{Reason: fmt.Sprintf("unsupported version %d", version)}
	}
	if err := binary.Read(r, binary.LittleEndian, &releaseLen); err != nil {
		return empty, &InvalidFormat{Reason: "truncated release length"}
	}
	releaseBuf := make([]byte, releaseLen)
	if _, err := io.ReadFull(r, releaseBuf); err != nil {
		return empty, &InvalidFormat{Reason: "truncated release"}
	}

	var eclLen uint32
	if err := binary.Read(r, binary.LittleEndian, &eclLen); err != nil {
		return empty, &InvalidFormat{Reason: "truncated ecl length"}
	}
	eclBuf := make([]byte, eclLen)
	if _, err := io.ReadFull(r, eclBuf); err != nil {
		return empty, &InvalidFormat{Reason: "truncated ecl text"}
	}

	storedHash := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, storedHash); err != nil {
		return empty, &InvalidFormat{Reason: "truncated hash"}
	}
	actualHash := sha256.Sum256(eclBuf)
	if !bytes.Equal(storedHash, actualHash[:]) {
		return empty, &HashMismatch{Expected: fmt.Sprintf("%x", storedHash), Actual: fmt.Sprintf("%x", actualHash)}
	}

	var conceptCount uint64
	if err := binary.Read(r, binary.LittleEndian, &conceptCount); err != nil {
		return empty, &InvalidFormat{Reason: "truncated concept count"}
	}

	var bitmapLen uint32
	if err := binary.Read(r, binary.LittleEndian, &bitmapLen); err != nil {
		return empty, &InvalidFormat{Reason: "truncated bitmap length"}
	}
	bitmapBuf := make([]byte, bitmapLen)
	if _, err := io.ReadFull(r, bitmapBuf); err != nil {
		return empty, &InvalidFormat{Reason: "truncated bitmap"}
	}

	set, err := FromBytes(reg, bitmapBuf)
	if err != nil {
		return empty, &InvalidFormat{Reason: "corrupt bitmap: " + err.Error()}
	}
	if uint64(set.Len()) != conceptCount {
		return empty, &HashMismatch{
			Expected: fmt.Sprintf("concept_count=%d", conceptCount),
			Actual:   fmt.Sprintf("population=%d", set.Len()),
		}
	}

	return File{Release: string(releaseBuf), ECLText: string(eclBuf), Set: set}, nil
}
