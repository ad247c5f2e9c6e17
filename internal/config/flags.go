package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultSkipLargeFiles is the default file size threshold (1MB) above which
// files are skipped during discovery.
const DefaultSkipLargeFiles int64 = 1 * 1024 * 1024

// FlagValues collects all parsed global flag values from the CLI. This struct
// is populated by BindFlags and passed to the scan orchestrator.
type FlagValues struct {
	Dir            string
	Sources        []string // "pattern" or "!pattern" directive strings, relative to Dir
	Includes       []string // include glob patterns
	Excludes       []string // exclude glob patterns
	Filters        []string // file extensions (without leading dots)
	SkipLargeFiles int64    // bytes
	ConfigFile     string
	Verbose        bool
	Quiet          bool
}

// skipLargeFilesRaw holds the raw string value for --skip-large-files before
// parsing. This is a package-level variable because Cobra needs a string
// target for binding; it's parsed into FlagValues.SkipLargeFiles during
// validation.
var skipLargeFilesRaw string

// BindFlags registers all global persistent flags on the given Cobra command
// and returns a FlagValues pointer that will be populated when the command is
// executed. Callers should access the returned struct after flag parsing.
func BindFlags(cmd *cobra.Command) *FlagValues {
	fv := &FlagValues{}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&fv.Dir, "dir", "d", ".", "base directory to scan")
	pf.StringArrayVar(&fv.Sources, "source", nil, `source directive, gitignore-style pattern relative to --dir (repeatable, prefix with "!" to exclude, e.g. --source '!vendor/**')`)
	pf.StringArrayVar(&fv.Includes, "include", nil, "include glob pattern (repeatable)")
	pf.StringArrayVar(&fv.Excludes, "exclude", nil, "exclude glob pattern (repeatable)")
	pf.StringArrayVarP(&fv.Filters, "filter", "f", nil, "filter by file extension (repeatable, e.g. -f ts -f go)")
	pf.StringVar(&skipLargeFilesRaw, "skip-large-files", "1MB", "skip files larger than threshold (e.g. 500KB, 2MB)")
	pf.StringVarP(&fv.ConfigFile, "config", "c", "", "path to a watchglob.toml config file (defaults to <dir>/watchglob.toml if present)")
	pf.BoolVarP(&fv.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&fv.Quiet, "quiet", "q", false, "suppress all output except errors")

	return fv
}

// ValidateFlags checks the parsed flag values for correctness and mutual
// exclusion. It also applies environment variable fallbacks and normalizes
// values. Call this from PersistentPreRunE after Cobra has parsed the flags.
func ValidateFlags(fv *FlagValues, cmd *cobra.Command) error {
	applyEnvOverrides(fv, cmd)

	if fv.Verbose && fv.Quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	info, err := os.Stat(fv.Dir)
	if err != nil {
		return fmt.Errorf("--dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("--dir: %s is not a directory", fv.Dir)
	}

	size, err := ParseSize(skipLargeFilesRaw)
	if err != nil {
		return fmt.Errorf("--skip-large-files: %w", err)
	}
	fv.SkipLargeFiles = size

	for i, f := range fv.Filters {
		fv.Filters[i] = strings.TrimLeft(f, ".")
	}

	if fv.ConfigFile == "" {
		candidate := filepath.Join(fv.Dir, "watchglob.toml")
		if _, err := os.Stat(candidate); err == nil {
			fv.ConfigFile = candidate
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable fallbacks for flags that were
// not explicitly set on the command line. The prefix is WGLOB_.
func applyEnvOverrides(fv *FlagValues, cmd *cobra.Command) {
	envMap := map[string]func(string){
		"WGLOB_DIR":    func(v string) { fv.Dir = v },
		"WGLOB_CONFIG": func(v string) { fv.ConfigFile = v },
	}

	for env, setter := range envMap {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		flagName := strings.ToLower(strings.TrimPrefix(env, "WGLOB_"))
		if !cmd.Flags().Changed(flagName) {
			setter(v)
		}
	}

	if os.Getenv("WGLOB_VERBOSE") == "1" && !cmd.Flags().Changed("verbose") {
		fv.Verbose = true
	}
	if os.Getenv("WGLOB_QUIET") == "1" && !cmd.Flags().Changed("quiet") {
		fv.Quiet = true
	}
}

// ParseSize parses a human-readable size string into bytes. It supports KB, MB,
// and GB suffixes (case-insensitive). Plain numbers without a suffix are treated
// as bytes. KB = 1024, MB = 1048576, GB = 1073741824.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	upper := strings.ToUpper(s)

	var suffix string
	var multiplier int64

	switch {
	case strings.HasSuffix(upper, "GB"):
		suffix = "GB"
		multiplier = 1024 * 1024 * 1024
	case strings.HasSuffix(upper, "MB"):
		suffix = "MB"
		multiplier = 1024 * 1024
	case strings.HasSuffix(upper, "KB"):
		suffix = "KB"
		multiplier = 1024
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size: %q", s)
		}
		if n < 0 {
			return 0, fmt.Errorf("size must be non-negative: %q", s)
		}
		return n, nil
	}

	numStr := strings.TrimSpace(s[:len(s)-len(suffix)])
	n, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(numStr, 64)
		if ferr != nil {
			return 0, fmt.Errorf("invalid size: %q", s)
		}
		if f < 0 {
			return 0, fmt.Errorf("size must be non-negative: %q", s)
		}
		return int64(f * float64(multiplier)), nil
	}
	if n < 0 {
		return 0, fmt.Errorf("size must be non-negative: %q", s)
	}
	return n * multiplier, nil
}

// ToDirectives converts the parsed --dir/--source flags into the
// discovery.SourceDirective form the scan orchestrator consumes. Absent
// --source flags, a single Auto directive rooted at --dir is produced --
// "scan everything reasonable under this directory" is the default.
func (fv *FlagValues) ToDirectives() ([]SourceDirectiveFlag, error) {
	absDir, err := filepath.Abs(fv.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving --dir: %w", err)
	}

	if len(fv.Sources) == 0 {
		return []SourceDirectiveFlag{{Base: absDir}}, nil
	}

	directives := make([]SourceDirectiveFlag, 0, len(fv.Sources))
	for _, s := range fv.Sources {
		negated := strings.HasPrefix(s, "!")
		pattern := strings.TrimPrefix(s, "!")
		directives = append(directives, SourceDirectiveFlag{Base: absDir, Pattern: pattern, Negated: negated})
	}
	return directives, nil
}

// SourceDirectiveFlag mirrors discovery.SourceDirective without importing
// internal/discovery from internal/config, keeping the config package free
// of a dependency on the scan-domain packages it configures.
type SourceDirectiveFlag struct {
	Base    string
	Pattern string
	Negated bool
}
