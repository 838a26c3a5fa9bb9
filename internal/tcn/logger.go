package tcn

import (
	"sync"

	"github.com/cognivox/voicescreen-go/internal/logger"
)

// GetLogger returns the shared tcn module logger, created on first use.
var GetLogger = sync.OnceValue(func() logger.Logger {
	return logger.Global().Module("tcn")
})
