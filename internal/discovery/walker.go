package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/watchglob/watchglob/internal/pipeline"
)

// WalkerConfig holds configuration for the source walker: the reconciled
// source directives, the layered ignore matchers, and the resource limits
// that bound the parallel content-loading phase.
type WalkerConfig struct {
	// Sources is the compiled set of source directives. Sources.Roots gives
	// the bases to traverse.
	Sources *SourceMatcher

	// GitignoreMatcher handles nested .gitignore pattern matching. Nil
	// disables .gitignore entirely (RequireGit false with no .gitignore
	// files found upstream, or the caller opted out).
	GitignoreMatcher Ignorer

	// ToolIgnoreMatcher handles .wglobignore pattern matching.
	ToolIgnoreMatcher Ignorer

	// DefaultIgnorer handles the built-in default ignore patterns.
	DefaultIgnorer Ignorer

	// PatternFilter applies CLI-supplied include/exclude/extension
	// filtering on top of the source/ignore layers.
	PatternFilter *PatternFilter

	// Mtimes, when non-nil, gates directory admission by effective mtime:
	// a directory whose effective mtime hasn't advanced since the last
	// recorded value is not revisited. Nil disables change filtering (a
	// full walk is always performed).
	Mtimes *MtimeStore

	// SkipLargeFiles is the file size threshold in bytes. Files exceeding
	// this size are skipped. A value of 0 disables the check.
	SkipLargeFiles int64

	// Concurrency is the maximum number of parallel file-reading workers.
	// Defaults to runtime.NumCPU() if <= 0.
	Concurrency int
}

// Walker is the source walker: it reconciles source directives with
// gitignore semantics and the default-ignore set, applies the mtime-based
// change filter, and reads admitted file content in parallel.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a new Walker instance.
func NewWalker() *Walker {
	return &Walker{
		logger: slog.Default().With("component", "walker"),
	}
}

// Walk traverses every root in cfg.Sources.Roots, applying all configured
// ignore layers and the change filter, and reads admitted file contents in
// parallel. It returns a DiscoveryResult with the discovered files sorted
// by path and the set of directories actually descended into (consumed by
// the glob resolver).
//
// If cfg.Sources has no roots at all, Walk returns an empty, non-error
// result: a walker disarmed by an all-ignored source set must behave this
// way rather than erroring.
func (w *Walker) Walk(ctx context.Context, cfg WalkerConfig) (*pipeline.DiscoveryResult, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.Sources == nil || len(cfg.Sources.Roots) == 0 {
		return &pipeline.DiscoveryResult{SkipReasons: map[string]int{}}, nil
	}

	composite := NewCompositeIgnorer(cfg.DefaultIgnorer, cfg.GitignoreMatcher, cfg.ToolIgnoreMatcher)

	symResolver := NewSymlinkResolver()

	// holdsExplicit reports whether dir (relative to root) contains a path
	// named by a non-negated Pattern directive at root; such a directory is
	// descended into even when an ignore layer matches it.
	holdsExplicit := func(root, dir string) bool {
		for _, p := range cfg.Sources.explicit[root] {
			if strings.HasPrefix(p, dir+"/") {
				return true
			}
		}
		return false
	}

	var (
		mu           sync.Mutex
		files        []*pipeline.FileDescriptor
		dirs         []string
		skipReasons  = make(map[string]int)
		totalFound   int
		visitedRoots = make(map[string]bool)
	)

	for _, root := range cfg.Sources.Roots {
		if visitedRoots[root] {
			continue
		}
		visitedRoots[root] = true

		info, err := os.Stat(root)
		if err != nil {
			w.logger.Debug("root stat error, skipping", "root", root, "error", err)
			continue
		}
		if !info.IsDir() {
			w.logger.Debug("root is not a directory, skipping", "root", root)
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if walkErr != nil {
				w.logger.Debug("walk error", "path", path, "error", walkErr)
				return nil
			}

			relPath, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			relPath = filepath.ToSlash(relPath)
			isDir := d.IsDir()

			if relPath == "." {
				mu.Lock()
				dirs = append(dirs, path)
				mu.Unlock()
				return nil
			}

			if isDir && d.Name() == ".git" {
				return fs.SkipDir
			}

			explicit := cfg.Sources.IsExplicit(root, relPath)

			if !explicit {
				if cfg.Sources.IsIgnored(root, relPath) {
					mu.Lock()
					if isDir {
						skipReasons["ignored_dir"]++
					} else {
						totalFound++
						skipReasons["ignored"]++
					}
					mu.Unlock()
					if isDir {
						return fs.SkipDir
					}
					return nil
				}
				if composite.IsIgnored(relPath, isDir) && !(isDir && holdsExplicit(root, relPath)) {
					mu.Lock()
					if isDir {
						skipReasons["ignored_dir"]++
					} else {
						totalFound++
						skipReasons["ignored"]++
					}
					mu.Unlock()
					if isDir {
						return fs.SkipDir
					}
					return nil
				}
			}

			if isDir {
				if cfg.Mtimes != nil {
					changed, effective, err := cfg.Mtimes.Changed(path)
					if err == nil {
						if !changed {
							mu.Lock()
							skipReasons["unchanged"]++
							mu.Unlock()
							return fs.SkipDir
						}
						cfg.Mtimes.Record(path, effective)
					}
				}
				mu.Lock()
				dirs = append(dirs, path)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			totalFound++
			mu.Unlock()

			isSymlink := d.Type()&os.ModeSymlink != 0
			absPath := path
			if isSymlink {
				realPath, isLoop, err := symResolver.Admit(path)
				if err != nil {
					mu.Lock()
					skipReasons["symlink_error"]++
					mu.Unlock()
					return nil
				}
				if isLoop {
					mu.Lock()
					skipReasons["symlink_loop"]++
					mu.Unlock()
					return nil
				}
				absPath = realPath
			}

			fileInfo, err := os.Stat(absPath)
			if err != nil {
				mu.Lock()
				skipReasons["stat_error"]++
				mu.Unlock()
				return nil
			}

			if cfg.SkipLargeFiles > 0 && fileInfo.Size() > cfg.SkipLargeFiles {
				mu.Lock()
				skipReasons["large_file"]++
				mu.Unlock()
				return nil
			}

			if !explicit {
				isCandidate, candErr := IsCandidateContent(absPath)
				if candErr == nil && !isCandidate {
					mu.Lock()
					skipReasons["binary"]++
					mu.Unlock()
					return nil
				}

				if cfg.PatternFilter != nil && cfg.PatternFilter.HasFilters() && !cfg.PatternFilter.Matches(relPath) {
					mu.Lock()
					skipReasons["pattern_filter"]++
					mu.Unlock()
					return nil
				}
			}

			fd := &pipeline.FileDescriptor{
				Path:      relPath,
				AbsPath:   absPath,
				Extension: Extension(absPath),
				Size:      fileInfo.Size(),
				IsSymlink: isSymlink,
			}
			mu.Lock()
			files = append(files, fd)
			mu.Unlock()

			return nil
		})
		if walkErr != nil && walkErr != context.Canceled {
			return nil, fmt.Errorf("walking root %s: %w", root, walkErr)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	sort.Strings(dirs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for _, fd := range files {
		fd := fd
		g.Go(func() error {
			content, err := readFile(gctx, fd.AbsPath)
			if err != nil {
				fd.Error = fmt.Errorf("reading %s: %w", fd.Path, err)
				w.logger.Debug("file read error", "path", fd.Path, "error", err)
				return nil
			}
			fd.Content = content
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading file contents: %w", err)
	}

	resultFiles := make([]pipeline.FileDescriptor, len(files))
	for i, fd := range files {
		resultFiles[i] = *fd
	}

	totalSkipped := 0
	for _, count := range skipReasons {
		totalSkipped += count
	}

	result := &pipeline.DiscoveryResult{
		Files:        resultFiles,
		Dirs:         dirs,
		TotalFound:   totalFound,
		TotalSkipped: totalSkipped,
		SkipReasons:  skipReasons,
	}

	w.logger.Info("discovery complete",
		"files", len(resultFiles),
		"dirs", len(dirs),
		"total_found", totalFound,
		"total_skipped", totalSkipped,
	)

	return result, nil
}

// readFile reads the entire content of a file, respecting context
// cancellation before the read begins.
func readFile(ctx context.Context, path string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return data, nil
}
