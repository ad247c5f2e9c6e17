package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var globsCmd = &cobra.Command{
	Use:   "globs",
	Short: "Synthesize the watch glob set for the configured sources",
	Long: `globs performs a full walk of the configured --dir and --source
directives and prints the shallow/deep/forced-static glob set a file
watcher should subscribe to, one "base pattern" pair per line.`,
	RunE: runGlobs,
}

func init() {
	rootCmd.AddCommand(globsCmd)
}

func runGlobs(cmd *cobra.Command, args []string) error {
	s, err := newScanner(flagValues)
	if err != nil {
		return err
	}

	globs, err := s.GetGlobs(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, g := range globs {
		fmt.Fprintf(out, "%s %s\n", g.Base, g.Pattern)
	}
	return nil
}
