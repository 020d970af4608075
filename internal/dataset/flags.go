package dataset

import "strings"

// Flags is a tagged set of read toggles. Each bit is an explicit,
// enumerable flag; bulk operations work on the whole set.
type Flags uint8

const (
	// FirstFrame reads exactly one frame per file.
	FirstFrame Flags = 1 << iota
	// NoMetadata suppresses per-frame metadata and timestamps.
	NoMetadata
	// Quiet suppresses advisory diagnostics. Never changes outcomes.
	Quiet

	flagsEnd
)

// AllFlags is the set containing every defined flag.
const AllFlags = flagsEnd - 1

// Has reports whether every flag in mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Set returns f with every flag in mask set.
func (f Flags) Set(mask Flags) Flags { return f | mask }

// Clear returns f with every flag in mask cleared.
func (f Flags) Clear(mask Flags) Flags { return f &^ mask }

func (f Flags) String() string {
	var parts []string
	if f.Has(FirstFrame) {
		parts = append(parts, "first-frame")
	}
	if f.Has(NoMetadata) {
		parts = append(parts, "no-metadata")
	}
	if f.Has(Quiet) {
		parts = append(parts, "quiet")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
