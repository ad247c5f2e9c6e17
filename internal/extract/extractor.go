package extract

import (
	"bytes"
	"sort"
)

// Candidate is a single extracted class-name candidate string together with
// the byte offset at which it begins in the content it was extracted from.
type Candidate struct {
	Value    string
	Position int
}

// isCandidateByte reports whether b may appear inside a class-name
// candidate token. The set covers the punctuation utility-class syntax
// actually uses: variants ("hover:"), arbitrary values ("[color:red]"),
// opacity modifiers ("/50"), important markers ("!"), negative values
// ("-mt-4"), and nesting dots for fractional values ("w-1.5").
func isCandidateByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '-', '_', ':', '.', '/', '[', ']', '(', ')', '%', '!', '#', '\\', '@':
		return true
	}
	return false
}

// ExtractCandidates scans content for class-name candidate tokens. It
// returns candidates sorted by position with duplicates at distinct
// positions retained (the scan orchestrator is responsible for any
// set-level deduplication it wants on top).
//
// Extraction applies a one-byte-preserving workaround for the legacy
// "-[]" shorthand (used by "group-[]" before "in-[.group]" existed):
// "-[]" is temporarily rewritten to the same-length placeholder "XYZ"
// before scanning (all three bytes are candidate bytes, so this does not
// change where tokens start or end). Because the
// replacement is exactly as long as what it replaces, every extracted
// token's byte offset remains valid in the original content, and any
// token whose original bytes actually contained "-[]" is restored from
// the original slice rather than the placeholder text.
func ExtractCandidates(content []byte) []Candidate {
	original := content
	transformed := bytes.ReplaceAll(content, []byte("-[]"), []byte("XYZ"))

	var out []Candidate

	i := 0
	for i < len(transformed) {
		if !isCandidateByte(transformed[i]) {
			i++
			continue
		}
		start := i
		for i < len(transformed) && isCandidateByte(transformed[i]) {
			i++
		}
		end := i

		if end-start == 0 {
			continue
		}

		originalSlice := original[start:end]
		var value string
		if bytes.Contains(originalSlice, []byte("-[]")) {
			value = string(originalSlice)
		} else {
			value = string(transformed[start:end])
		}

		out = append(out, Candidate{Value: value, Position: start})
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Position < out[b].Position })
	return out
}

// ExtractUniqueSorted extracts candidates from content and returns just
// their values, deduplicated and sorted lexicographically -- the shape
// Scan() returns to callers that only need the final candidate set, not
// per-occurrence positions.
func ExtractUniqueSorted(content []byte) []string {
	candidates := ExtractCandidates(content)
	seen := make(map[string]struct{}, len(candidates))
	values := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.Value]; ok {
			continue
		}
		seen[c.Value] = struct{}{}
		values = append(values, c.Value)
	}
	sort.Strings(values)
	return values
}
