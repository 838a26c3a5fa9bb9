package logger

// LoggingConfig configures the central logger. Nil sections are filled by
// applyConfigDefaults, so an empty config still logs to the console.
type LoggingConfig struct {
	DefaultLevel string            `yaml:"defaultlevel" json:"default_level"` // level for modules without an override
	Timezone     string            `yaml:"timezone" json:"timezone"`          // "Local", "UTC", or an IANA name like "Europe/Helsinki"
	Console      *ConsoleOutput    `yaml:"console" json:"console"`
	FileOutput   *FileOutput       `yaml:"fileoutput" json:"file_output"`
	ModuleLevels map[string]string `yaml:"modulelevels" json:"module_levels"` // per-module level overrides
}

// ConsoleOutput configures the text handler writing to stdout. Console lines
// carry no timestamp; journald or the container runtime stamps them already.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Level   string `yaml:"level" json:"level"`
}

// FileOutput configures the JSON handler. File records keep RFC3339
// timestamps so log shippers can ingest them without parsing heuristics.
type FileOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Level   string `yaml:"level" json:"level"`
}

const (
	DefaultLogLevel       = "info"
	DefaultLogPath        = "logs/voicescreen.log"
	DefaultConsoleEnabled = true
	DefaultFileEnabled    = false
)

// applyConfigDefaults fills nil sections so a sparse YAML config behaves
// predictably: console logging on, file logging off until a path is set.
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg == nil {
		return
	}
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}
	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{Enabled: DefaultConsoleEnabled, Level: cfg.DefaultLevel}
	}
	if cfg.FileOutput == nil {
		cfg.FileOutput = &FileOutput{
			Enabled: DefaultFileEnabled,
			Path:    DefaultLogPath,
			Level:   cfg.DefaultLevel,
		}
	}
	if cfg.ModuleLevels == nil {
		cfg.ModuleLevels = make(map[string]string)
	}
}
