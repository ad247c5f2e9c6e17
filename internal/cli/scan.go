package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Walk the configured sources and print extracted candidates",
	Long: `scan performs a full walk of the configured --dir and --source
directives, extracts utility-class candidates from every admitted file,
and prints the deduplicated, sorted candidate set -- one per line.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := newScanner(flagValues)
	if err != nil {
		return err
	}

	candidates, err := s.Scan(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range candidates {
		fmt.Fprintln(out, c)
	}
	return nil
}
