package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List every file admitted by the configured sources",
	Long: `files performs a full walk of the configured --dir and --source
directives and prints the absolute path of every admitted file, one
per line, after gitignore-aware and tool-specific ignore filtering.`,
	RunE: runFiles,
}

func init() {
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	s, err := newScanner(flagValues)
	if err != nil {
		return err
	}

	files, err := s.GetFiles(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
	return nil
}
