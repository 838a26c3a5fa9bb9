// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "VoiceScreen-Go")

	viper.SetDefault("model.path", "models/tcn_dementia.tflite")
	viper.SetDefault("model.url", "")
	viper.SetDefault("model.threads", 0)
	viper.SetDefault("model.usexnnpack", true)

	viper.SetDefault("audio.ffmpegpath", "")
	viper.SetDefault("audio.decodetimeout", 60)

	viper.SetDefault("fetch.timeout", 30)
	viper.SetDefault("fetch.retries", 2)
	viper.SetDefault("fetch.maxbodysize", 104857600)

	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.host", "0.0.0.0")
	viper.SetDefault("webserver.port", "8000")
	viper.SetDefault("webserver.bodylimit", "100M")

	viper.SetDefault("logging.defaultlevel", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.fileoutput.enabled", false)
	viper.SetDefault("logging.fileoutput.path", "logs/voicescreen.log")
	viper.SetDefault("logging.fileoutput.level", "info")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")

	viper.SetDefault("telemetry.enabled", true)
}
