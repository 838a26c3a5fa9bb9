package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cognivox/voicescreen-go/cmd"
	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/logger"
	"github.com/cognivox/voicescreen-go/internal/telemetry"
)

// Build-time variables, injected through -ldflags
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := conf.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	settings.Version = version
	settings.BuildDate = buildDate

	// Route all logging through the central logger before anything else runs
	cl, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}
	logger.SetGlobal(cl)
	defer func() {
		if err := cl.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
		}
	}()

	if err := initTelemetry(settings); err != nil {
		// Telemetry is opt-in and optional, the service runs without it
		logger.Global().Module("main").Warn("Telemetry initialization failed", logger.Error(err))
	}
	defer telemetry.Flush(3 * time.Second)

	return cmd.RootCommand(settings).Execute()
}

// initTelemetry loads the anonymous system ID and initializes the Sentry
// integration when the user has opted in.
func initTelemetry(settings *conf.Settings) error {
	configPaths, err := conf.GetDefaultConfigPaths()
	if err != nil {
		return err
	}

	systemID, err := telemetry.LoadOrCreateSystemID(configPaths[0])
	if err != nil {
		return err
	}
	settings.SystemID = systemID

	if err := telemetry.InitSentry(settings); err != nil {
		return err
	}
	telemetry.InitializeErrorIntegration()

	return nil
}
