package audiofile

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os/exec"
	"strconv"
	"sync"

	"github.com/cognivox/voicescreen-go/internal/errors"
)

// stderrBufferSize caps captured ffmpeg diagnostics at 4KB.
const stderrBufferSize = 4096

// boundedBuffer is a thread-safe bounded buffer that keeps the most recent
// writes, used to capture ffmpeg stderr without unbounded growth.
type boundedBuffer struct {
	buffer bytes.Buffer
	mu     sync.Mutex
	size   int
}

func newBoundedBuffer(size int) *boundedBuffer {
	return &boundedBuffer{size: size}
}

// Write implements the io.Writer interface
func (b *boundedBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffer.Len()+len(p) > b.size {
		// If the new data would exceed the buffer size, trim the existing data
		b.buffer.Reset()
		if len(p) > b.size {
			p = p[len(p)-b.size:]
		}
	}
	return b.buffer.Write(p)
}

// String returns the contents of the buffer as a string
func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

// decodeWithFFmpeg pipes data through an ffmpeg subprocess and reads back
// 16 kHz mono float32 PCM. The process is killed when the context deadline
// or the configured decode timeout expires.
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, data []byte, ext string) (*AudioSample, error) {
	if d.ffmpegPath == "" {
		return nil, errors.Newf("ffmpeg is required to decode %s files, install ffmpeg and make sure it is in system PATH", ext).
			Component("audiofile").
			Category(errors.CategoryAudioDecode).
			Context("operation", "decode-ffmpeg").
			Context("extension", ext).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error", // Set log level to error
		"-i", "pipe:0", // Read input from stdin
		"-vn", // Disable video
		"-ac", "1", // Downmix to mono
		"-ar", strconv.Itoa(TargetSampleRate), // Resample to 16kHz
		"-f", "f32le", // Output raw 32-bit float little-endian PCM
		"pipe:1", // Output to stdout
	)
	cmd.Stdin = bytes.NewReader(data)

	var stdout bytes.Buffer
	stderr := newBoundedBuffer(stderrBufferSize)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Newf("ffmpeg decode timed out after %s", d.timeout).
				Component("audiofile").
				Category(errors.CategoryTimeout).
				Context("operation", "decode-ffmpeg").
				Context("extension", ext).
				Build()
		}
		return nil, errors.New(err).
			Component("audiofile").
			Category(errors.CategoryAudioDecode).
			Context("operation", "decode-ffmpeg").
			Context("extension", ext).
			Context("exit_code", exitCode(err)).
			Context("stderr", stderr.String()).
			Build()
	}

	return &AudioSample{
		Samples:    parseF32LE(stdout.Bytes()),
		SampleRate: TargetSampleRate,
	}, nil
}

// exitCode returns the subprocess exit code, or -1 when unavailable.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// parseF32LE converts raw little-endian float32 PCM bytes into samples.
// A trailing partial sample is ignored.
func parseF32LE(raw []byte) []float32 {
	n := len(raw) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
