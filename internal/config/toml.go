package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	gitignore "github.com/sabhiram/go-gitignore"
)

// ScanConfig is the parsed shape of an optional watchglob.toml file: the only
// overrides it exposes are to the hardcoded default-ignore and
// forced-static-root lists the ignore compiler and glob resolver otherwise
// use, matching the teacher's single-profile loader but without its
// multi-profile inheritance (watchglob has exactly one scan configuration
// per invocation, not a named-profile set).
type ScanConfig struct {
	DefaultIgnore     []string `toml:"default_ignore"`
	ForcedStaticRoots []string `toml:"forced_static_roots"`
}

// LoadScanConfig reads and validates a watchglob.toml file at path. An empty
// path returns a zero-value ScanConfig rather than an error: the config file
// is always optional.
func LoadScanConfig(path string) (*ScanConfig, error) {
	if path == "" {
		return &ScanConfig{}, nil
	}

	var cfg ScanConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if errs := validateScanConfig(&cfg); len(errs) > 0 {
		return nil, errs[0]
	}

	return &cfg, nil
}

// validateScanConfig checks that every pattern in the config compiles as a
// gitignore-style line, the same syntax the ignore compiler and glob resolver
// expect it to be used as.
func validateScanConfig(cfg *ScanConfig) []ValidationError {
	var errs []ValidationError

	for i, pattern := range cfg.DefaultIgnore {
		if err := checkPattern(pattern); err != nil {
			errs = append(errs, ValidationError{
				Severity: "error",
				Field:    fmt.Sprintf("default_ignore[%d]", i),
				Message:  err.Error(),
				Suggest:  "use gitignore-style glob syntax, e.g. \"vendor/\" or \"*.log\"",
			})
		}
	}

	for i, root := range cfg.ForcedStaticRoots {
		if root == "" {
			errs = append(errs, ValidationError{
				Severity: "error",
				Field:    fmt.Sprintf("forced_static_roots[%d]", i),
				Message:  "forced static root must not be empty",
			})
		}
	}

	return errs
}

func checkPattern(pattern string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pattern %q: %v", pattern, r)
		}
	}()
	gitignore.CompileIgnoreLines(pattern)
	return nil
}
