package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cognivox/voicescreen-go/internal/audiofile"
	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/observability/metrics"
	"github.com/cognivox/voicescreen-go/internal/tcn"
)

// FileAnalysis classifies a single audio file and prints the result.
func FileAnalysis(ctx context.Context, settings *conf.Settings) error {
	if err := validateAudioFile(settings.Input.Path); err != nil {
		return err
	}

	registry := tcn.NewRegistry(settings)
	analyzer, err := New(settings, registry, nil)
	if err != nil {
		return err
	}

	startTime := time.Now()
	result, err := analyzer.AnalyzeFile(ctx, settings.Input.Path, metrics.SourceFile)
	if err != nil {
		return fmt.Errorf("\033[31m❌ Error analyzing file %s: %w\033[0m", filepath.Base(settings.Input.Path), err)
	}

	printResult(settings.Input.Path, result, time.Since(startTime))
	return nil
}

// validateAudioFile rejects paths that cannot possibly be analyzed, before
// any decoding work starts.
func validateAudioFile(filePath string) error {
	base := filepath.Base(filePath)

	info, err := os.Stat(filePath)
	switch {
	case err != nil:
		return fmt.Errorf("\033[31m❌ Cannot access file %s: %w\033[0m", base, err)
	case info.IsDir():
		return fmt.Errorf("\033[31m❌ The path %s is a directory, not an audio file\033[0m", base)
	case info.Size() == 0:
		return fmt.Errorf("\033[31m❌ File %s is empty, nothing to analyze\033[0m", base)
	}

	if err := audiofile.ValidateExtension(strings.ToLower(filepath.Ext(filePath))); err != nil {
		return fmt.Errorf("\033[31m❌ Unsupported audio file %s: %w\033[0m", base, err)
	}
	return nil
}

// printResult renders the classification, green for a normal voice and red
// when the dementia probability wins.
func printResult(audioPath string, result *Result, elapsed time.Duration) {
	fmt.Printf("\033[37m📄 %s [%.1fs]\033[0m | \033[32m✅ Analysis completed in %s\033[0m\n",
		truncateFilename(audioPath), result.LengthSeconds, elapsed.Round(time.Millisecond))

	p := result.Prediction
	if p.Label == tcn.LabelDementia {
		fmt.Printf("\033[31m⚠️  Possible signs of dementia detected (%.2f%% probability)\033[0m\n", p.ProbDementia*100)
	} else {
		fmt.Printf("\033[32m✅ Voice within normal range (%.2f%% confidence)\033[0m\n", p.ProbNormal*100)
	}
	fmt.Printf("   normal: %.4f | dementia: %.4f | frames: %d\n", p.ProbNormal, p.ProbDementia, result.Frames)
}

// truncateFilename shortens long names so progress lines stay on one row.
func truncateFilename(path string) string {
	name := filepath.Base(path)
	if len(name) <= 30 {
		return name
	}
	return name[:27] + "..."
}
