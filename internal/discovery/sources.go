package discovery

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// SourceDirective is the raw, user-authored form of a declaration of where to
// find source files. Base must be an absolute path. Pattern is empty for a
// directive that simply says "discover everything reasonable under base";
// otherwise it uses gitignore-style glob syntax. Negated marks the directive
// as excluding rather than including.
type SourceDirective struct {
	Base    string
	Pattern string
	Negated bool
}

// ResolvedKind enumerates the four variants a SourceDirective collapses into
// at ingest time. The walker never sees the raw directive form again.
type ResolvedKind int

const (
	// Auto means "discover everything reasonable under base".
	Auto ResolvedKind = iota
	// Pattern means "in addition to Auto behavior, explicitly include files
	// matching Pattern under base, overriding default ignores".
	Pattern
	// IgnoredAuto means "exclude the entire subtree under base".
	IgnoredAuto
	// IgnoredPattern means "exclude files matching Pattern under base".
	IgnoredPattern
)

// ResolvedSource is one ingested, classified source directive.
type ResolvedSource struct {
	Kind    ResolvedKind
	Base    string
	Pattern string
}

// ResolveSources classifies each raw directive into exactly one ResolvedKind.
// It panics if a directive's pattern is not valid gitignore-style glob
// syntax: directives are developer-authored, so a malformed pattern is a
// construction-time bug, not a runtime condition to recover from.
func ResolveSources(directives []SourceDirective) []ResolvedSource {
	resolved := make([]ResolvedSource, 0, len(directives))

	for _, d := range directives {
		base := filepath.Clean(d.Base)

		if d.Pattern == "" {
			if d.Negated {
				resolved = append(resolved, ResolvedSource{Kind: IgnoredAuto, Base: base})
			} else {
				resolved = append(resolved, ResolvedSource{Kind: Auto, Base: base})
			}
			continue
		}

		pattern := d.Pattern
		if abs := filepath.Clean(filepath.Join(base, pattern)); filepath.IsAbs(pattern) {
			pattern = abs
		}

		// A pattern that is itself an absolute path equal to base (e.g. a
		// directive authored as `@source '/abs/path/to/base'`) names the
		// whole base, not a sub-pattern within it -- resolve it the same
		// as an empty-pattern directive rather than rejecting or treating
		// it as a one-entry gitignore line.
		if filepath.IsAbs(d.Pattern) && filepath.Clean(d.Pattern) == base {
			if d.Negated {
				resolved = append(resolved, ResolvedSource{Kind: IgnoredAuto, Base: base})
			} else {
				resolved = append(resolved, ResolvedSource{Kind: Auto, Base: base})
			}
			continue
		}

		if err := validatePattern(pattern); err != nil {
			panic(fmt.Sprintf("watchglob: malformed source directive pattern %q at base %q: %v", d.Pattern, d.Base, err))
		}

		if d.Negated {
			resolved = append(resolved, ResolvedSource{Kind: IgnoredPattern, Base: base, Pattern: pattern})
		} else {
			resolved = append(resolved, ResolvedSource{Kind: Pattern, Base: base, Pattern: pattern})
		}
	}

	return resolved
}

// validatePattern returns an error if pattern is not well-formed glob
// syntax (e.g. an unterminated character class). go-gitignore accepts such
// a line without reporting anything, so the check is made with doublestar,
// the same library matchesGlob uses for explicit paths.
func validatePattern(pattern string) error {
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return fmt.Errorf("invalid glob syntax")
	}
	return nil
}

// SourceMatcher is a layered matcher compiled from a set of ResolvedSource
// entries, keyed by base directory, following the ignore compiler algorithm:
// Auto/Pattern contribute their base to the root set; IgnoredAuto contributes
// a "**/*" exclusion; Pattern contributes a negated "!<pattern>" include
// line; IgnoredPattern contributes a plain exclude line. Each base's
// contributions are combined into a single gitignore-syntax matcher.
type SourceMatcher struct {
	// Roots is the deduplicated set of base directories contributed by Auto
	// and Pattern entries, in first-seen order.
	Roots []string

	matchers map[string]*gitignore.GitIgnore
	// explicit records, per base, the set of non-negated Pattern directives
	// so the walker can recognize "explicit content paths bypass gitignore"
	// even when a .gitignore would otherwise exclude the same path.
	explicit map[string][]string
	logger   *slog.Logger
}

// CompileSources builds a SourceMatcher from resolved directives. Panics
// are not expected here: ResolveSources already validated every pattern.
func CompileSources(entries []ResolvedSource) *SourceMatcher {
	lines := make(map[string][]string)
	explicit := make(map[string][]string)
	seenRoot := make(map[string]bool)
	roots := make([]string, 0, len(entries))

	for _, e := range entries {
		switch e.Kind {
		case Auto:
			if !seenRoot[e.Base] {
				seenRoot[e.Base] = true
				roots = append(roots, e.Base)
			}
		case Pattern:
			if !seenRoot[e.Base] {
				seenRoot[e.Base] = true
				roots = append(roots, e.Base)
			}
			lines[e.Base] = append(lines[e.Base], "!"+e.Pattern)
			explicit[e.Base] = append(explicit[e.Base], e.Pattern)
		case IgnoredAuto:
			lines[e.Base] = append(lines[e.Base], "**/*")
		case IgnoredPattern:
			lines[e.Base] = append(lines[e.Base], e.Pattern)
		}
	}

	matchers := make(map[string]*gitignore.GitIgnore, len(lines))
	for base, ls := range lines {
		matchers[base] = gitignore.CompileIgnoreLines(ls...)
	}

	return &SourceMatcher{
		Roots:    roots,
		matchers: matchers,
		explicit: explicit,
		logger:   slog.Default().With("component", "source-matcher"),
	}
}

// IsIgnored reports whether path (relative to base) is excluded by the
// source directives compiled for that base. A base with no contributed
// lines never excludes anything.
func (s *SourceMatcher) IsIgnored(base, relPath string) bool {
	m, ok := s.matchers[base]
	if !ok {
		return false
	}
	return m.MatchesPath(relPath)
}

// IsExplicit reports whether relPath (relative to base) was named by a
// non-negated Pattern directive at that base. Explicit content paths bypass
// every other ignore layer, including .gitignore.
func (s *SourceMatcher) IsExplicit(base, relPath string) bool {
	for _, pattern := range s.explicit[base] {
		if matchesGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// RequiresGit walks upward from the first root looking for a directory
// containing a .git marker. If found, callers should honor .gitignore files
// only within that repository; if not found, .gitignore files should be
// honored regardless so a project folder works before "git init".
func RequiresGit(firstRoot string) bool {
	dir := firstRoot
	for {
		if isGitRoot(dir) {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}
