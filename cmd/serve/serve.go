// Package serve implements the serve command, the HTTP API mode of
// VoiceScreen-Go.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cognivox/voicescreen-go/internal/analysis"
	"github.com/cognivox/voicescreen-go/internal/api"
	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/logger"
	"github.com/cognivox/voicescreen-go/internal/observability"
	"github.com/cognivox/voicescreen-go/internal/tcn"
)

// Command creates the serve command for running the HTTP API server.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the voice screening HTTP API",
		Long:  "Start the HTTP server that classifies voice recordings for signs of dementia.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), settings)
		},
	}

	// Set up flags specific to the 'serve' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// runServer wires the analysis pipeline into the HTTP server and blocks
// until a termination signal arrives.
func runServer(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("main")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("error initializing metrics: %w", err)
	}

	registry := tcn.NewRegistry(settings)

	analyzer, err := analysis.New(settings, registry, metrics.TCN)
	if err != nil {
		return fmt.Errorf("error initializing analyzer: %w", err)
	}

	server, err := api.New(settings, analyzer, registry, api.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("error initializing server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm the model while the listener comes up. Requests that arrive
	// before the load completes wait on the shared outcome.
	registry.StartBackgroundLoad(ctx)

	server.Start()

	log.Info("VoiceScreen-Go started",
		logger.String("version", settings.Version),
		logger.String("model_path", settings.Model.Path))

	<-ctx.Done()
	log.Info("Shutdown signal received")

	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}

	return nil
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Host, "host", viper.GetString("webserver.host"), "Interface address to bind the server to")
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port to listen on")
	cmd.Flags().StringVar(&settings.WebServer.BodyLimit, "bodylimit", viper.GetString("webserver.bodylimit"), "Maximum request body size, e.g. \"100M\"")
	cmd.Flags().StringVar(&settings.Model.URL, "modelurl", viper.GetString("model.url"), "URL to download the model from when the file is missing")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Expose Prometheus metrics at /metrics")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
