package discovery

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matchesGlob reports whether relPath matches pattern using gitignore-flavored
// doublestar semantics. Invalid patterns never match (ResolveSources already
// rejected malformed patterns at ingest time, so this should not occur in
// practice outside of defensive callers).
func matchesGlob(pattern, relPath string) bool {
	normalized := filepath.ToSlash(relPath)
	ok, err := doublestar.Match(pattern, normalized)
	if err != nil {
		return false
	}
	return ok
}

// isGitRoot reports whether dir contains a .git entry (file or directory;
// git worktrees and submodules use a .git file pointing elsewhere).
func isGitRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Extension returns the lowercased file extension of path without its
// leading dot. Extension-less files return "".
func Extension(path string) string {
	ext := filepath.Ext(path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MatchesAnyExtension reports whether path's extension (case-insensitively,
// without its leading dot) equals any entry in exts. exts entries may carry
// a leading dot; it is stripped before comparison. Used by PatternFilter's
// -f/--filter shorthand and by any other caller that needs to test a path
// against a user-supplied extension allowlist rather than the fixed
// KnownExtensions set.
func MatchesAnyExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return false
	}
	ext := Extension(path)
	for _, candidate := range exts {
		if ext == strings.ToLower(strings.TrimPrefix(candidate, ".")) {
			return true
		}
	}
	return false
}

// IsBinaryLike reports whether ext names a known compiled-artifact or
// binary extension, independent of the null-byte sniff in IsBinary. This
// lets the walker short-circuit on extension alone before touching the
// filesystem for files that are never candidate-bearing regardless of
// content (images, archives, fonts).
func IsBinaryLike(ext string) bool {
	switch strings.ToLower(ext) {
	case "png", "jpg", "jpeg", "gif", "webp", "ico", "bmp", "tiff",
		"woff", "woff2", "ttf", "otf", "eot",
		"zip", "tar", "gz", "bz2", "xz", "7z", "rar",
		"pdf", "mp3", "mp4", "mov", "avi", "webm",
		"exe", "dll", "so", "dylib", "class", "o", "obj", "a", "wasm":
		return true
	default:
		return false
	}
}
