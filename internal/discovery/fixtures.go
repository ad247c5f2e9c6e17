package discovery

import (
	_ "embed"
	"strings"
)

// knownExtensionsFixture is the verbatim list of extensions the reference
// scanner treats as template/source-bearing by default, one bare extension
// per line, shipped as a fixture so the emitted glob patterns match
// observable upstream behavior byte-for-byte.
//
//go:embed fixtures/known_extensions.txt
var knownExtensionsFixture string

// KnownExtensions is the fixed set of file extensions (lowercase, without a
// leading dot) that the source walker and glob resolver treat as
// candidate-bearing by default.
var KnownExtensions = parseExtensionsFixture(knownExtensionsFixture)

func parseExtensionsFixture(raw string) []string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	exts := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			exts = append(exts, l)
		}
	}
	return exts
}

var knownExtensionSet = buildExtensionSet(KnownExtensions)

func buildExtensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = struct{}{}
	}
	return set
}

// IsKnownExtension reports whether ext (without a leading dot) is in the
// fixed known-extension set. Matching is case-insensitive.
func IsKnownExtension(ext string) bool {
	_, ok := knownExtensionSet[strings.ToLower(ext)]
	return ok
}
