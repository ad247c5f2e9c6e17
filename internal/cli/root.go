// Package cli implements the Cobra command hierarchy for the watchglob CLI tool.
// The root command defined here is the entry point for all subcommands and
// handles cross-cutting concerns like logging initialization and error handling.
package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/watchglob/watchglob/internal/config"
	"github.com/watchglob/watchglob/internal/discovery"
	"github.com/watchglob/watchglob/internal/pipeline"
	"github.com/watchglob/watchglob/internal/scan"
)

// flagValues holds the parsed global flag values, populated by config.BindFlags
// during command initialization and validated in PersistentPreRunE.
var flagValues *config.FlagValues

var rootCmd = &cobra.Command{
	Use:   "wglob",
	Short: "Discover content sources and synthesize watch globs.",
	Long: `watchglob walks a project according to a set of source directives,
applies gitignore-aware and tool-specific ignore filtering, extracts
utility-class candidates from admitted files, and synthesizes the
shallow/deep glob set a file watcher should subscribe to.

It is the content-scanning core of a utility-CSS build pipeline: given
--dir and optional --source directives, it answers "which files count as
content" and "which globs would re-trigger a rescan if the filesystem
changed."`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateFlags(flagValues, cmd); err != nil {
			return err
		}

		level := config.ResolveLogLevel(flagValues.Verbose, flagValues.Quiet)
		format := config.ResolveLogFormat()
		config.SetupLogging(level, format)

		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
	// When no subcommand is given, run a full walk and print a summary.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSummary(cmd, args)
	},
}

func init() {
	flagValues = config.BindFlags(rootCmd)
}

// Execute runs the root command and returns an appropriate exit code.
// If the error is a *scan.ScanError, its Code is used.
// Generic errors return ExitError (1). Nil returns ExitSuccess (0).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return extractExitCode(err)
	}
	return int(pipeline.ExitSuccess)
}

// extractExitCode determines the process exit code from an error.
// If the error is a *scan.ScanError, its Code field is used.
// Otherwise, ExitError (1) is returned for any non-nil error.
func extractExitCode(err error) int {
	if err == nil {
		return int(pipeline.ExitSuccess)
	}
	var scanErr *scan.ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Code
	}
	return int(pipeline.ExitError)
}

// RootCmd returns the root cobra.Command for use in testing and subcommand registration.
func RootCmd() *cobra.Command {
	return rootCmd
}

// GlobalFlags returns the parsed global flag values. This is available after
// PersistentPreRunE has run. Subcommands use this to access shared configuration.
func GlobalFlags() *config.FlagValues {
	return flagValues
}

// newScanner builds a scan.Scanner from the parsed global flags, applying any
// watchglob.toml overrides found or named via --config.
func newScanner(fv *config.FlagValues) (*scan.Scanner, error) {
	directiveFlags, err := fv.ToDirectives()
	if err != nil {
		return nil, scan.NewError("resolving source directives", err)
	}

	directives := make([]discovery.SourceDirective, len(directiveFlags))
	for i, d := range directiveFlags {
		directives[i] = discovery.SourceDirective{Base: d.Base, Pattern: d.Pattern, Negated: d.Negated}
	}

	scanCfg, err := config.LoadScanConfig(fv.ConfigFile)
	if err != nil {
		return nil, scan.NewError("loading watchglob.toml", err)
	}
	if len(scanCfg.DefaultIgnore) > 0 {
		base := directives[0].Base
		for _, pattern := range scanCfg.DefaultIgnore {
			directives = append(directives, discovery.SourceDirective{
				Base:    base,
				Pattern: pattern,
				Negated: true,
			})
		}
	}

	var filter *discovery.PatternFilter
	if len(fv.Includes) > 0 || len(fv.Excludes) > 0 || len(fv.Filters) > 0 {
		filter = discovery.NewPatternFilter(discovery.PatternFilterOptions{
			Includes:   fv.Includes,
			Excludes:   fv.Excludes,
			Extensions: fv.Filters,
		})
	}

	s, err := scan.NewScanner(directives, scan.Options{
		PatternFilter:         filter,
		SkipLargeFiles:        fv.SkipLargeFiles,
		ForcedStaticRootNames: scanCfg.ForcedStaticRoots,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
