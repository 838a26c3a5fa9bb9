package file

import (
	"github.com/spf13/cobra"

	"github.com/cognivox/voicescreen-go/internal/analysis"
	"github.com/cognivox/voicescreen-go/internal/conf"
)

// Command builds the subcommand that classifies a single recording.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "file [input.wav]",
		Short: "Analyze a single voice recording",
		Long:  "Run the dementia screening model against one audio file and print the result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.FileAnalysis(cmd.Context(), settings)
		},
	}
}
