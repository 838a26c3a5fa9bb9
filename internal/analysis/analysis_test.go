package analysis

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognivox/voicescreen-go/internal/tcn"
)

func TestExtensionFromURL(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
	}{
		{"wav file", "https://example.com/audio/sample.wav", ".wav"},
		{"uppercase extension is lowered", "https://example.com/audio/SAMPLE.MP3", ".mp3"},
		{"query string is ignored", "https://example.com/audio/sample.flac?token=abc", ".flac"},
		{"no extension defaults to mp3", "https://example.com/stream", ".mp3"},
		{"bare host defaults to mp3", "https://example.com/", ".mp3"},
		{"empty url defaults to mp3", "", ".mp3"},
		{"unparseable url defaults to mp3", "://missing-scheme", ".mp3"},
		{"dot in directory does not count", "https://example.com/v1.2/stream", ".mp3"},
		{"ogg file", "https://example.com/a.b/clip.ogg", ".ogg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtensionFromURL(tc.url))
		})
	}
}

func TestValidateAudioFile(t *testing.T) {
	dir := t.TempDir()

	wavPath := filepath.Join(dir, "voice.wav")
	require.NoError(t, os.WriteFile(wavPath, []byte("RIFF fake content"), 0o644))
	emptyPath := filepath.Join(dir, "empty.wav")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o644))
	textPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("not audio"), 0o644))

	t.Run("valid file passes", func(t *testing.T) {
		assert.NoError(t, validateAudioFile(wavPath))
	})

	t.Run("missing file", func(t *testing.T) {
		err := validateAudioFile(filepath.Join(dir, "missing.wav"))
		assert.Error(t, err)
	})

	t.Run("directory is rejected", func(t *testing.T) {
		err := validateAudioFile(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "directory")
	})

	t.Run("empty file is rejected", func(t *testing.T) {
		err := validateAudioFile(emptyPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("unsupported extension is rejected", func(t *testing.T) {
		err := validateAudioFile(textPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unsupported")
	})
}

func TestWriteCSVReport(t *testing.T) {
	rows := []reportRow{
		{
			file: "/recordings/patient_a.wav",
			result: &Result{
				Prediction: &tcn.Result{
					Label:        tcn.LabelNormal,
					ProbNormal:   0.87319,
					ProbDementia: 0.12681,
					Confidence:   0.87319,
				},
				LengthSeconds: 12.3456,
				Frames:        1233,
				Coefficients:  13,
			},
		},
		{
			file: "/recordings/patient_b.mp3",
			result: &Result{
				Prediction: &tcn.Result{
					Label:        tcn.LabelDementia,
					ProbNormal:   0.31,
					ProbDementia: 0.69,
					Confidence:   0.69,
				},
				LengthSeconds: 8.5,
				Frames:        849,
				Coefficients:  13,
			},
		},
	}

	csvPath := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, writeCSVReport(csvPath, rows))

	file, err := os.Open(csvPath)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"file", "label", "prob_normal", "prob_dementia", "confidence", "length_seconds", "frames"}, records[0])
	assert.Equal(t, []string{"/recordings/patient_a.wav", "normal", "0.8732", "0.1268", "0.8732", "12.35", "1233"}, records[1])
	assert.Equal(t, []string{"/recordings/patient_b.mp3", "dementia_detected", "0.3100", "0.6900", "0.6900", "8.50", "849"}, records[2])
}

func TestTruncateFilename(t *testing.T) {
	assert.Equal(t, "short.wav", truncateFilename("/tmp/short.wav"))

	long := strings.Repeat("a", 40) + ".wav"
	truncated := truncateFilename(filepath.Join("/tmp", long))
	assert.Len(t, truncated, 30)
	assert.True(t, strings.HasSuffix(truncated, "..."))
}
