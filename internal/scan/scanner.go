package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/watchglob/watchglob/internal/discovery"
	"github.com/watchglob/watchglob/internal/extract"
	"github.com/watchglob/watchglob/internal/pipeline"
)

// state tracks where a Scanner is in its lifecycle, mirroring the
// reference orchestrator's internal bookkeeping: a fresh scanner has
// walked nothing; after Scan/GetFiles/GetGlobs it has walked the
// filesystem once; after that, ScanContent calls only ever merge new
// candidates into what's already been collected.
type state int

const (
	stateFresh state = iota
	stateWalked
)

// ChangedContent describes a single unit of content to extract candidates
// from: either a file on disk (Path set, Content/Extension derived from it)
// or an in-memory blob supplied directly by the caller (Content/Extension
// set, Path empty).
type ChangedContent struct {
	Path      string
	Content   []byte
	Extension string
}

// Scanner is the scan orchestrator: the facade tying the source walker,
// change detector, glob resolver, and pre-processor dispatch together. A
// single Scanner instance is built once per set of source directives and
// reused across incremental rescans; its candidate accumulator only ever
// grows within a process lifetime.
type Scanner struct {
	mu sync.Mutex

	sources              *discovery.SourceMatcher
	autoBases            []string
	walker               *discovery.Walker
	walkerCfg            discovery.WalkerConfig
	optimizer            discovery.Optimizer
	forcedStaticRootNames []string

	state      state
	files      []pipeline.FileDescriptor
	dirs       []string
	candidates map[string]struct{}
	seenHashes map[uint64]bool

	logger *slog.Logger
}

// Options configures NewScanner. All fields are optional; zero values fall
// back to sensible defaults (no CLI filters, no large-file cap, a fresh
// mtime store, runtime.NumCPU() concurrency).
type Options struct {
	GitignoreRoot    string // if non-empty, used instead of the first source root as the .gitignore matcher root
	ToolIgnoreRoot   string
	PatternFilter    *discovery.PatternFilter
	SkipLargeFiles   int64
	Concurrency      int
	Optimizer        discovery.Optimizer
	DisableGitignore bool
	// ForcedStaticRootNames overrides the glob resolver's default ["public"]
	// forced-static directory name list. Each Auto base gets its own
	// resolved absolute forced-static roots built from these names.
	ForcedStaticRootNames []string
}

// NewScanner ingests directives, runs the ignore compiler, and builds the
// walker configuration. If no non-ignored root remains, the returned
// Scanner is disarmed: every subsequent operation returns empty results
// without error, matching the reference's "no crash on an empty project"
// behavior.
//
// Panics if a directive's pattern is malformed (see discovery.ResolveSources):
// directives are developer-authored, so a bad pattern is a construction-time
// bug.
func NewScanner(directives []discovery.SourceDirective, opts Options) (*Scanner, error) {
	resolved := discovery.ResolveSources(directives)
	sources := discovery.CompileSources(resolved)

	var autoBases []string
	for _, r := range resolved {
		if r.Kind == discovery.Auto {
			autoBases = append(autoBases, r.Base)
		}
	}

	logger := slog.Default().With("component", "scanner")
	if shouldTrace() {
		logger = logger.With("trace", true)
	}

	var defaultIgnorer discovery.Ignorer = discovery.NewDefaultIgnoreMatcher()

	var gitignoreMatcher discovery.Ignorer
	if !opts.DisableGitignore && len(sources.Roots) > 0 {
		firstRoot := opts.GitignoreRoot
		if firstRoot == "" {
			firstRoot = sources.Roots[0]
		}
		// .gitignore files within the root are honored whether or not an
		// enclosing .git repository exists: inside a repo that's the
		// expected behavior, and outside one it means a fresh project
		// folder still works before "git init".
		gm, err := discovery.NewGitignoreMatcher(firstRoot)
		if err != nil {
			return nil, NewError("compiling .gitignore matcher", err)
		}
		gitignoreMatcher = gm
	}

	var toolIgnoreMatcher discovery.Ignorer
	if len(sources.Roots) > 0 {
		root := opts.ToolIgnoreRoot
		if root == "" {
			root = sources.Roots[0]
		}
		tm, err := discovery.NewToolIgnoreMatcher(root)
		if err != nil {
			return nil, NewError("compiling .wglobignore matcher", err)
		}
		toolIgnoreMatcher = tm
	}

	optimizer := opts.Optimizer
	if optimizer == nil {
		optimizer = discovery.DefaultOptimizer
	}

	s := &Scanner{
		sources:   sources,
		autoBases: autoBases,
		walker:    discovery.NewWalker(),
		walkerCfg: discovery.WalkerConfig{
			Sources:           sources,
			GitignoreMatcher:  gitignoreMatcher,
			ToolIgnoreMatcher: toolIgnoreMatcher,
			DefaultIgnorer:    defaultIgnorer,
			PatternFilter:     opts.PatternFilter,
			Mtimes:            discovery.NewMtimeStore(),
			SkipLargeFiles:    opts.SkipLargeFiles,
			Concurrency:       opts.Concurrency,
		},
		optimizer:             optimizer,
		forcedStaticRootNames: opts.ForcedStaticRootNames,
		candidates:            make(map[string]struct{}),
		seenHashes:            make(map[uint64]bool),
		logger:                logger,
	}

	return s, nil
}

// shouldTrace mirrors the reference's SHOULD_TRACE static: DEBUG="*" or
// DEBUG containing "tailwindcss:oxide" without a preceding "-" makes
// NewScanner tag the scanner's logger with trace=true. The log level is not
// changed.
func shouldTrace() bool {
	debug := os.Getenv("DEBUG")
	if debug == "" {
		return false
	}
	if debug == "*" {
		return true
	}
	idx := strings.Index(debug, "tailwindcss:oxide")
	if idx == -1 {
		return false
	}
	return idx == 0 || debug[idx-1] != '-'
}

// ensureWalked performs the filesystem walk exactly once per Scanner
// lifetime (subsequent calls are no-ops), recording the discovered files
// and directories for GetFiles/GetGlobs/Scan to consume.
func (s *Scanner) ensureWalked(ctx context.Context) error {
	if s.state == stateWalked {
		return nil
	}

	result, err := s.walker.Walk(ctx, s.walkerCfg)
	if err != nil {
		return NewError("walking source directives", err)
	}

	s.files = result.Files
	s.dirs = result.Dirs
	s.state = stateWalked
	return nil
}

// Scan walks the filesystem (if not already walked), extracts candidates
// from every admitted file, merges them into the accumulator, and returns
// the full sorted candidate set collected so far.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureWalked(ctx); err != nil {
		return nil, err
	}

	for _, fd := range s.files {
		if fd.Error != nil || fd.Content == nil {
			continue
		}
		hash := xxh3.Hash(fd.Content)
		if s.seenHashes[hash] {
			continue
		}
		s.seenHashes[hash] = true

		processed := extract.PreProcessInput(fd.Content, fd.Extension)
		for _, v := range extract.ExtractUniqueSorted(processed) {
			s.candidates[v] = struct{}{}
		}
	}

	return s.sortedCandidates(), nil
}

// ScanContent extracts candidates directly from supplied content (bypassing
// the filesystem walk entirely) and merges them into the accumulator,
// mirroring the reference's Content variant of ChangedContent. If cc.Path
// is set instead, the file is read from disk.
func (s *Scanner) ScanContent(cc ChangedContent) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content := cc.Content
	extension := cc.Extension
	if cc.Path != "" {
		data, err := os.ReadFile(cc.Path)
		if err != nil {
			return nil, NewError(fmt.Sprintf("reading %s", cc.Path), err)
		}
		content = data
		if extension == "" {
			extension = discovery.Extension(cc.Path)
		}
	}

	hash := xxh3.Hash(content)
	if !s.seenHashes[hash] {
		s.seenHashes[hash] = true
		processed := extract.PreProcessInput(content, extension)
		for _, v := range extract.ExtractUniqueSorted(processed) {
			s.candidates[v] = struct{}{}
		}
	}

	return s.sortedCandidates(), nil
}

// GetCandidatesWithPositions extracts candidates from cc without merging
// them into the accumulator, returning each candidate's value and its byte
// offset within the (possibly preprocessed) content. This is the one
// operation that exposes positions rather than just a deduplicated set.
func (s *Scanner) GetCandidatesWithPositions(cc ChangedContent) ([]extract.Candidate, error) {
	content := cc.Content
	extension := cc.Extension
	if cc.Path != "" {
		data, err := os.ReadFile(cc.Path)
		if err != nil {
			return nil, NewError(fmt.Sprintf("reading %s", cc.Path), err)
		}
		content = data
		if extension == "" {
			extension = discovery.Extension(cc.Path)
		}
	}

	processed := extract.PreProcessInput(content, extension)
	return extract.ExtractCandidates(processed), nil
}

// GetFiles forces a walk (if not already performed) and returns the
// absolute paths of every admitted file.
func (s *Scanner) GetFiles(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureWalked(ctx); err != nil {
		return nil, err
	}

	paths := make([]string, len(s.files))
	for i, fd := range s.files {
		paths[i] = fd.AbsPath
	}
	return paths, nil
}

// GetGlobs forces a walk, invokes the glob resolver for each Auto base,
// prepends a "*" entry at that base, and passes the combined list through
// the configured Optimizer before returning it.
func (s *Scanner) GetGlobs(ctx context.Context) ([]discovery.GlobEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureWalked(ctx); err != nil {
		return nil, err
	}

	visited := make(map[string]bool, len(s.dirs))
	for _, d := range s.dirs {
		visited[d] = true
	}

	var entries []discovery.GlobEntry
	for _, base := range s.autoBases {
		entries = append(entries, discovery.GlobEntry{Base: base, Pattern: "*"})

		resolver := discovery.NewGlobResolver(base, func(dir string) bool {
			if !visited[dir] {
				return true
			}
			relPath, err := filepath.Rel(base, dir)
			if err != nil {
				return false
			}
			relPath = filepath.ToSlash(relPath)
			return s.sources.IsIgnored(base, relPath+"/")
		})

		if len(s.forcedStaticRootNames) > 0 {
			roots := make([]string, len(s.forcedStaticRootNames))
			for i, name := range s.forcedStaticRootNames {
				roots[i] = filepath.Join(base, name)
			}
			resolver.ForcedStaticRoots = roots
		}

		result := resolver.Resolve()
		entries = append(entries, result.Shallow...)
		entries = append(entries, result.Deep...)
		for _, f := range result.ForcedStatic {
			rel, err := filepath.Rel(base, f)
			if err != nil {
				rel = f
			}
			entries = append(entries, discovery.GlobEntry{Base: base, Pattern: filepath.ToSlash(rel)})
		}
	}

	return s.optimizer(entries), nil
}

func (s *Scanner) sortedCandidates() []string {
	out := make([]string, 0, len(s.candidates))
	for c := range s.candidates {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
