package conf

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/cognivox/voicescreen-go/internal/errors"
)

// GetDefaultConfigPaths returns the candidate config directories for the
// current OS. When one of them already holds a config.yaml, only that
// directory is returned so the existing file always wins over defaults.
func GetDefaultConfigPaths() ([]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-executable-path").
			Build()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	var paths []string
	if runtime.GOOS == "windows" {
		paths = []string{
			filepath.Dir(exePath),
			filepath.Join(homeDir, "AppData", "Roaming", "voicescreen-go"),
		}
	} else {
		paths = []string{
			filepath.Join(homeDir, ".config", "voicescreen-go"),
			"/etc/voicescreen-go",
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}
	return paths, nil
}

// ResolveFfmpegPath returns the configured ffmpeg path, falling back to a PATH
// lookup when the setting is empty. An empty return means ffmpeg is unavailable.
func (s *Settings) ResolveFfmpegPath() string {
	if s.Audio.FfmpegPath != "" {
		return s.Audio.FfmpegPath
	}
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ""
	}
	return path
}
