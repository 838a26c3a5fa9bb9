package analysis

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cognivox/voicescreen-go/internal/audiofile"
	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/logger"
	"github.com/cognivox/voicescreen-go/internal/observability/metrics"
	"github.com/cognivox/voicescreen-go/internal/tcn"
)

// reportRow is one directory analysis result destined for the report.
type reportRow struct {
	file   string
	result *Result
}

// DirectoryAnalysis classifies every supported audio file under the input
// directory and writes the results to stdout or to a CSV file.
func DirectoryAnalysis(ctx context.Context, settings *conf.Settings) error {
	dirInfo, err := os.Stat(settings.Input.Path)
	if err != nil {
		return fmt.Errorf("\033[31m❌ Error accessing directory %s: %w\033[0m", settings.Input.Path, err)
	}
	if !dirInfo.IsDir() {
		return fmt.Errorf("\033[31m❌ The path %s is not a directory\033[0m", settings.Input.Path)
	}

	registry := tcn.NewRegistry(settings)
	analyzer, err := New(settings, registry, nil)
	if err != nil {
		return err
	}

	log := GetLogger()
	log.Info("Scanning directory", logger.String("path", settings.Input.Path),
		logger.Bool("recursive", settings.Input.Recursive))

	startTime := time.Now()
	root := settings.Input.Path
	var rows []reportRow
	failed := 0

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			// If recursion is not enabled and this is a subdirectory, skip it
			if !settings.Input.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if !audiofile.IsSupported(strings.ToLower(filepath.Ext(d.Name()))) {
			return nil
		}

		result, err := analyzer.AnalyzeFile(ctx, path, metrics.SourceDirectory)
		if err != nil {
			// A single bad recording should not abort the whole scan
			log.Warn("Error analyzing file", logger.String("path", path), logger.Error(err))
			failed++
			return nil
		}
		rows = append(rows, reportRow{file: path, result: result})
		return nil
	})
	if err != nil {
		return err
	}

	if settings.Input.CSV != "" {
		if err := writeCSVReport(settings.Input.CSV, rows); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", settings.Input.CSV)
	} else {
		printReport(rows)
	}

	fmt.Printf("Directory analysis completed, processed %d file(s), %d failed in %v\n",
		len(rows), failed, time.Since(startTime).Round(time.Millisecond))
	return nil
}

// writeCSVReport writes the directory results as CSV, one line per file.
func writeCSVReport(csvPath string, rows []reportRow) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"file", "label", "prob_normal", "prob_dementia", "confidence", "length_seconds", "frames"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range rows {
		if err := w.Write(csvRecord(&rows[i])); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func csvRecord(r *reportRow) []string {
	p := r.result.Prediction
	return []string{
		r.file,
		p.Label,
		fmt.Sprintf("%.4f", p.ProbNormal),
		fmt.Sprintf("%.4f", p.ProbDementia),
		fmt.Sprintf("%.4f", p.Confidence),
		fmt.Sprintf("%.2f", r.result.LengthSeconds),
		fmt.Sprintf("%d", r.result.Frames),
	}
}

// printReport renders the directory results as an aligned stdout table.
func printReport(rows []reportRow) {
	if len(rows) == 0 {
		fmt.Println("No supported audio files found")
		return
	}

	fmt.Printf("%-40s %-18s %12s %14s %12s %8s\n",
		"FILE", "RESULT", "NORMAL", "DEMENTIA", "CONFIDENCE", "LENGTH")
	for i := range rows {
		p := rows[i].result.Prediction
		fmt.Printf("%-40s %-18s %12.4f %14.4f %12.4f %7.1fs\n",
			truncateFilename(rows[i].file), p.Label,
			p.ProbNormal, p.ProbDementia, p.Confidence,
			rows[i].result.LengthSeconds)
	}
}
