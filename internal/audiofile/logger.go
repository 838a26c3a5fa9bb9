package audiofile

import (
	"sync"

	"github.com/cognivox/voicescreen-go/internal/logger"
)

// GetLogger returns the shared audiofile module logger, created on first use.
var GetLogger = sync.OnceValue(func() logger.Logger {
	return logger.Global().Module("audiofile")
})
