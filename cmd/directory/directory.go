package directory

import (
	"github.com/spf13/cobra"

	"github.com/cognivox/voicescreen-go/internal/analysis"
	"github.com/cognivox/voicescreen-go/internal/conf"
)

// Command builds the subcommand that screens every recording under a directory.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory [path]",
		Short: "Analyze all audio files in a directory",
		Long:  "Walk a directory and run the screening model against every supported audio file in it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.DirectoryAnalysis(cmd.Context(), settings)
		},
	}

	cmd.Flags().BoolVarP(&settings.Input.Recursive, "recursive", "r", false, "Recursively analyze subdirectories")
	cmd.Flags().StringVarP(&settings.Input.CSV, "csv", "o", "", "Path to write results as CSV instead of printing a table")

	return cmd
}
