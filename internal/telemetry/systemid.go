package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognivox/voicescreen-go/internal/privacy"
)

// LoadOrCreateSystemID returns the installation's anonymous system ID,
// generating and persisting one under configDir on first use. The ID only
// groups telemetry events per installation; it carries no host information.
func LoadOrCreateSystemID(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	idFile := filepath.Join(configDir, ".system_id")

	// An existing valid ID wins. A corrupted file is silently replaced.
	if data, err := os.ReadFile(idFile); err == nil {
		id := strings.TrimSpace(string(data))
		if privacy.IsValidSystemID(id) {
			return id, nil
		}
	}

	id, err := privacy.GenerateSystemID()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(idFile, []byte(id), 0o644); err != nil {
		return "", fmt.Errorf("failed to save system ID: %w", err)
	}
	return id, nil
}
