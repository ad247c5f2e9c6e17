package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GlobEntry is a single emitted watch-glob pattern: Base is an absolute
// directory path, Pattern is one of the fixed shapes a GlobResolver
// produces ("*/*.{ext,...}" for shallow, "**/*.{ext,...}" for deep, or a
// literal relative path for a forced-static file).
type GlobEntry struct {
	Base    string
	Pattern string
}

// dirClass is the classification a directory receives during resolution.
type dirClass int

const (
	classUnclassified dirClass = iota
	classDeep
	classShallow
	classForcedStatic
	classIgnored
)

// Optimizer collapses or reorders a slice of GlobEntry before it's returned
// to a caller. The reference implementation calls an external pattern
// optimizer before returning from get_globs(); that optimizer's internals
// are out of scope here, but the call site is not. DefaultOptimizer is the
// only behavior the reference guarantees observably: no duplicate
// (base, pattern) pair appears twice.
type Optimizer func([]GlobEntry) []GlobEntry

// DefaultOptimizer deduplicates (base, pattern) pairs and sorts the result
// for deterministic output.
func DefaultOptimizer(entries []GlobEntry) []GlobEntry {
	seen := make(map[GlobEntry]bool, len(entries))
	out := make([]GlobEntry, 0, len(entries))
	for _, e := range entries {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Base != out[j].Base {
			return out[i].Base < out[j].Base
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

// GlobResolver classifies every directory under a base into deep-globable,
// shallow-globable, or forced-static, and emits the corresponding glob
// entries. See Resolve and demoteAncestors for the classification
// algorithm.
type GlobResolver struct {
	// Base is the root directory the resolver classifies. It is never
	// itself directly classified; callers represent it with a top-level
	// "*" entry.
	Base string

	// ForcedStaticRoots are directories that are always forced-static,
	// recursively, regardless of their content. Defaults to {Base}/public.
	ForcedStaticRoots []string

	// IsIgnored reports whether dir (an absolute path under Base) would be
	// excluded by the walker's ignore layers. The resolver treats such
	// directories as boundaries that trigger parent demotion rather than
	// descending into them.
	IsIgnored func(dir string) bool

	// foundExtensions exists for documentation/testing symmetry with the
	// reference implementation's dead found_extensions accumulator: the
	// reference computes it but never reads it back when building the
	// extension clause, so this field is likewise write-only here. See
	// TestGlobResolver_FoundExtensionsAreInert.
	foundExtensions []string
}

// NewGlobResolver builds a resolver for base with the default forced-static
// root ({base}/public) and an ignore predicate.
func NewGlobResolver(base string, isIgnored func(dir string) bool) *GlobResolver {
	return &GlobResolver{
		Base:              base,
		ForcedStaticRoots: []string{filepath.Join(base, "public")},
		IsIgnored:         isIgnored,
	}
}

// ResolverResult is the resolver's output: the shallow and deep glob
// entries (kept separate since the reference emits shallow before deep),
// and the individual files under any forced-static directory.
type ResolverResult struct {
	Shallow      []GlobEntry
	Deep         []GlobEntry
	ForcedStatic []string
}

// Resolve walks Base and classifies every directory it finds, producing the
// shallow/deep glob entries and the forced-static file list. Children are
// always visited directories-before-files, then lexicographically, so the
// result is deterministic across runs on the same filesystem state.
func (r *GlobResolver) Resolve() ResolverResult {
	class := make(map[string]dirClass)
	deep := make(map[string]bool)
	shallow := make(map[string]bool)
	var forcedFiles []string

	var walk func(dir string, forced bool)
	walk = func(dir string, forced bool) {
		entries := sortedReadDir(dir)

		if forced || r.isForcedStaticRoot(dir) {
			class[dir] = classForcedStatic
			for _, e := range entries {
				full := filepath.Join(dir, e.Name())
				if e.IsDir() {
					if e.Name() == ".git" {
						continue
					}
					walk(full, true)
				} else {
					forcedFiles = append(forcedFiles, full)
					r.noteExtension(full)
				}
			}
			return
		}

		if dir != r.Base && r.IsIgnored != nil && r.IsIgnored(dir) {
			class[dir] = classIgnored
			r.demoteAncestors(dir, class, deep, shallow)
			return
		}

		if dir == r.Base || !r.ancestorIsDeep(dir, class) {
			class[dir] = classDeep
			deep[dir] = true
		} else {
			class[dir] = classDeep
		}

		for _, e := range entries {
			if !e.IsDir() || e.Name() == ".git" {
				if !e.IsDir() {
					r.noteExtension(filepath.Join(dir, e.Name()))
				}
				continue
			}
			walk(filepath.Join(dir, e.Name()), false)
		}
	}

	walk(r.Base, false)

	extClause := r.extensionClause()

	var shallowEntries, deepEntries []GlobEntry
	for dir := range shallow {
		shallowEntries = append(shallowEntries, GlobEntry{Base: dir, Pattern: "*/*." + extClause})
	}
	for dir := range deep {
		if dir == r.Base {
			continue
		}
		deepEntries = append(deepEntries, GlobEntry{Base: dir, Pattern: "**/*." + extClause})
	}

	sort.Slice(shallowEntries, func(i, j int) bool { return shallowEntries[i].Base < shallowEntries[j].Base })
	sort.Slice(deepEntries, func(i, j int) bool { return deepEntries[i].Base < deepEntries[j].Base })
	sort.Strings(forcedFiles)

	return ResolverResult{Shallow: shallowEntries, Deep: deepEntries, ForcedStatic: forcedFiles}
}

// demoteAncestors implements parent demotion: walking upward from an
// ignored directory toward Base, every ancestor previously classified deep
// is demoted to shallow, and that ancestor's other direct subdirectories
// (excluding the ignored one, other ignored dirs, and forced-static dirs)
// are promoted back to deep so the ignored sibling's peers stay covered.
// Demotion stops at Base or at an ancestor already shallow.
func (r *GlobResolver) demoteAncestors(ignoredDir string, class map[string]dirClass, deep, shallow map[string]bool) {
	dir := filepath.Dir(ignoredDir)
	skip := ignoredDir

	for {
		if dir == r.Base || len(dir) < len(r.Base) {
			return
		}

		c := class[dir]
		if c == classShallow {
			return
		}
		if c != classDeep {
			// Ancestor not classified deep (e.g. itself already demoted by
			// a sibling's ignore, or not yet visited) -- nothing to do,
			// but keep walking upward in case a grandparent still is.
			skip = dir
			dir = filepath.Dir(dir)
			continue
		}

		class[dir] = classShallow
		delete(deep, dir)
		shallow[dir] = true

		for _, e := range sortedReadDir(dir) {
			if !e.IsDir() {
				continue
			}
			full := filepath.Join(dir, e.Name())
			if full == skip {
				continue
			}
			if class[full] == classIgnored || class[full] == classForcedStatic {
				continue
			}
			class[full] = classDeep
			deep[full] = true
		}

		skip = dir
		dir = filepath.Dir(dir)
	}
}

// ancestorIsDeep reports whether any ancestor of dir (up to Base) is
// already classified deep-globable, in which case dir doesn't need its own
// entry: it's already covered by the ancestor's recursive "**/*" pattern.
func (r *GlobResolver) ancestorIsDeep(dir string, class map[string]dirClass) bool {
	// Base itself is excluded deliberately: its deep classification is
	// never emitted as a glob entry (the orchestrator represents it with
	// a top-level "*" instead), so a child "covered" only by Base being
	// deep would in fact be covered by nothing.
	parent := filepath.Dir(dir)
	for len(parent) > len(r.Base) {
		if class[parent] == classDeep {
			return true
		}
		parent = filepath.Dir(parent)
	}
	return false
}

func (r *GlobResolver) isForcedStaticRoot(dir string) bool {
	for _, root := range r.ForcedStaticRoots {
		if dir == root {
			return true
		}
	}
	return false
}

// noteExtension records an observed extension. This mirrors the
// reference's found_extensions accumulator, which is likewise never
// consulted when building the extension clause -- see foundExtensions.
func (r *GlobResolver) noteExtension(path string) {
	ext := Extension(path)
	if ext == "" {
		return
	}
	r.foundExtensions = append(r.foundExtensions, ext)
}

// FoundExtensions returns the extensions observed during the last Resolve
// call. Exposed only for tests pinning the inert behavior described above;
// production callers never need it.
func (r *GlobResolver) FoundExtensions() []string {
	return r.foundExtensions
}

func (r *GlobResolver) extensionClause() string {
	return "{" + strings.Join(KnownExtensions, ",") + "}"
}

// sortedReadDir reads dir's entries and sorts them directories-first, then
// lexicographically, matching the reference's BFS traversal order so
// classification is deterministic. Unreadable directories yield no entries.
func sortedReadDir(dir string) []os.DirEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})
	return entries
}

// String implements fmt.Stringer for GlobEntry for readable log output.
func (g GlobEntry) String() string {
	return fmt.Sprintf("%s: %s", g.Base, g.Pattern)
}
