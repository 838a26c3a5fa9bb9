// Package cmd assembles the voicescreen command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cognivox/voicescreen-go/cmd/directory"
	"github.com/cognivox/voicescreen-go/cmd/file"
	"github.com/cognivox/voicescreen-go/cmd/serve"
	"github.com/cognivox/voicescreen-go/internal/conf"
)

// RootCommand builds the voicescreen root command with every subcommand attached.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voicescreen",
		Short: "VoiceScreen-Go CLI",
		Long:  "Voice-based dementia screening: serve the HTTP API or analyze recordings from the command line.",
		// Errors are printed once by main, subcommand failures are not
		// usage errors
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		file.Command(settings),
		directory.Command(settings),
	)

	return rootCmd
}

// setupFlags registers the persistent flags shared by every subcommand.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Model.Path, "model", "m", viper.GetString("model.path"), "Path to the TFLite model file")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}
	return nil
}
