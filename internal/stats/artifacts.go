package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"genom/internal/model"
)

// Artifact file names inside an exported run directory.
const (
	RunFile         = "run.json"
	HistoryFile     = "fitness_history.json"
	DiagnosticsFile = "generation_diagnostics.json"
	SummaryFile     = "summary.json"
	SeriesFile      = "fitness_series.csv"
	PopulationFile  = "population.bin"
)

type RunArtifacts struct {
	Run              model.RunSummary
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	Summary          SeriesSummary
	// Population is the encoded final population; it is skipped when nil.
	Population []byte
}

// WriteRunArtifacts writes the artifacts into baseDir/<run id> and returns
// that directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runID := strings.TrimSpace(artifacts.Run.ID)
	if runID == "" {
		return "", errors.New("run id is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, RunFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, HistoryFile), map[string]any{
		"best_by_generation": nonNil(artifacts.BestByGeneration),
		"final_best_fitness": artifacts.Run.BestFitness,
	}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, DiagnosticsFile), nonNil(artifacts.Diagnostics)); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, SummaryFile), artifacts.Summary); err != nil {
		return "", err
	}
	if err := WriteSeries(filepath.Join(runDir, SeriesFile), artifacts.BestByGeneration); err != nil {
		return "", err
	}
	if artifacts.Population != nil {
		if err := os.WriteFile(filepath.Join(runDir, PopulationFile), artifacts.Population, 0o644); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

// ReadRun reads the run summary of an exported run directory.
func ReadRun(runDir string) (model.RunSummary, bool, error) {
	data, err := os.ReadFile(filepath.Join(runDir, RunFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunSummary{}, false, nil
		}
		return model.RunSummary{}, false, err
	}
	var run model.RunSummary
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunSummary{}, false, err
	}
	return run, true, nil
}

// WriteSeries writes a generation,best_fitness CSV.
func WriteSeries(path string, bestByGeneration []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByGeneration {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(best, 'g', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadSeries reads a CSV written by WriteSeries.
func ReadSeries(path string) ([]float64, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, errors.New("fitness series header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, errors.New("fitness series row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, fmt.Errorf("fitness series row %d: %w", len(series)+1, err)
		}
		series = append(series, value)
	}
	return series, true, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
