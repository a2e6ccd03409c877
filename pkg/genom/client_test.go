package genom

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"

	"genom/internal/problem"
	"genom/internal/stats"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	client.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return client
}

func smallConfig(name string) problem.RunConfig {
	cfg := problem.DefaultRunConfig()
	cfg.Problem = name
	cfg.PopulationSize = 12
	cfg.Generations = 4
	cfg.Seed = 42
	cfg.Workers = 2
	cfg.MutationProbability = 0.5
	return cfg
}

func TestClientRunPersistsArtifacts(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{Config: smallConfig("onemax")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" || summary.SnapshotID == "" {
		t.Fatalf("expected run and snapshot ids: %+v", summary)
	}
	if len(summary.BestByGeneration) != 4 {
		t.Fatalf("unexpected generation history length: %d", len(summary.BestByGeneration))
	}
	if summary.Generation != 4 {
		t.Fatalf("expected generation 4, got %d", summary.Generation)
	}
	if summary.Alterer == "" || summary.SurvivorSelector == "" || summary.OffspringSelector == "" {
		t.Fatalf("expected operator names: %+v", summary)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("expected run %s in runs list: %+v", summary.RunID, runs)
	}
	if runs[0].Problem != "onemax" || runs[0].Optimize != "maximum" || runs[0].Population != 12 {
		t.Fatalf("unexpected run item: %+v", runs[0])
	}

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if diff := cmp.Diff(summary.BestByGeneration, history); diff != "" {
		t.Fatalf("fitness history mismatch (-want +got):\n%s", diff)
	}

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{Latest: true, Limit: 2})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	if len(diagnostics) != 2 {
		t.Fatalf("expected limited diagnostics, got %d", len(diagnostics))
	}
	if diagnostics[0].Generation != 1 || diagnostics[0].BestFitness != history[0] {
		t.Fatalf("unexpected first diagnostics entry: %+v", diagnostics[0])
	}

	shown, err := client.ShowSnapshot(ctx, SnapshotRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("show snapshot: %v", err)
	}
	if shown.SnapshotID != summary.SnapshotID || shown.Size != 12 || shown.Generation != 4 {
		t.Fatalf("unexpected snapshot summary: %+v", shown)
	}
	if !shown.HasBest || shown.BestFitness != summary.FinalBestFitness || shown.Best != summary.Best {
		t.Fatalf("snapshot best differs from run best: %+v vs %+v", shown, summary)
	}
	if shown.Bytes == 0 {
		t.Fatal("expected encoded population bytes")
	}
}

func TestClientResumesFromSnapshot(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first, err := client.Run(ctx, RunRequest{Config: smallConfig("sphere")})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	cfg := smallConfig("sphere")
	cfg.PopulationSize = 0
	cfg.Generations = 3
	second, err := client.Run(ctx, RunRequest{Config: cfg, ResumeFrom: first.SnapshotID})
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if second.Generation != first.Generation+3 {
		t.Fatalf("expected generation %d, got %d", first.Generation+3, second.Generation)
	}
	if second.FinalBestFitness > first.FinalBestFitness {
		t.Fatalf("resumed best %v regressed from %v", second.FinalBestFitness, first.FinalBestFitness)
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != second.RunID || runs[1].RunID != first.RunID {
		t.Fatalf("expected newest run first: %+v", runs)
	}
	if runs[0].Population != 12 {
		t.Fatalf("expected resumed population size 12, got %d", runs[0].Population)
	}

	latest, err := client.ShowSnapshot(ctx, SnapshotRequest{Latest: true})
	if err != nil {
		t.Fatalf("show latest snapshot: %v", err)
	}
	if latest.SnapshotID != second.SnapshotID {
		t.Fatalf("expected latest snapshot %s, got %s", second.SnapshotID, latest.SnapshotID)
	}
}

func TestClientRejectsForeignSnapshot(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first, err := client.Run(ctx, RunRequest{Config: smallConfig("onemax")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := client.Run(ctx, RunRequest{Config: smallConfig("sphere"), ResumeFrom: first.SnapshotID}); err == nil {
		t.Fatal("expected problem mismatch error")
	}
	if _, err := client.Run(ctx, RunRequest{Config: smallConfig("onemax"), ResumeFrom: "missing"}); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected snapshot not found, got %v", err)
	}
}

func TestClientRequestValidation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if _, err := client.Run(ctx, RunRequest{Config: smallConfig("nope")}); !errors.Is(err, problem.ErrUnknownProblem) {
		t.Fatalf("expected unknown problem, got %v", err)
	}
	bad := smallConfig("onemax")
	bad.OffspringFraction = 2
	if _, err := client.Run(ctx, RunRequest{Config: bad}); !errors.Is(err, problem.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true}); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("expected no runs, got %v", err)
	}
	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected run id and latest conflict")
	}
	if _, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: "x", Limit: -1}); err == nil {
		t.Fatal("expected negative limit error")
	}
	if _, err := client.Diagnostics(ctx, DiagnosticsRequest{}); err == nil {
		t.Fatal("expected missing run id error")
	}
	if _, err := client.ShowSnapshot(ctx, SnapshotRequest{SnapshotID: "missing"}); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected snapshot not found, got %v", err)
	}
	if _, err := client.ShowSnapshot(ctx, SnapshotRequest{RunID: "missing"}); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected run not found, got %v", err)
	}
	if _, err := New(Options{StoreKind: "postgres"}); err == nil {
		t.Fatal("expected unsupported store error")
	}
}

func TestClientProblems(t *testing.T) {
	client := newTestClient(t)
	var names []string
	for _, item := range client.Problems() {
		if item.Description == "" || item.Optimize == "" {
			t.Fatalf("incomplete problem item: %+v", item)
		}
		names = append(names, item.Name)
	}
	if diff := cmp.Diff(problem.Names(), names); diff != "" {
		t.Fatalf("problem names mismatch (-want +got):\n%s", diff)
	}
}

func TestClientLogsRunProgress(t *testing.T) {
	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	client, err := New(Options{StoreKind: "memory", Logger: logger})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	summary, err := client.Run(context.Background(), RunRequest{Config: smallConfig("word")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected start and finish log lines, got %q", lines)
	}
	if !strings.Contains(lines[0], "starting run") || !strings.Contains(lines[1], summary.RunID) {
		t.Fatalf("unexpected log lines: %q", lines)
	}
}

func TestClientExportWritesArtifacts(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{Config: smallConfig("ring-tour")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	outDir := t.TempDir()
	exported, err := client.Export(ctx, ExportRequest{Latest: true, OutDir: outDir})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.RunID != summary.RunID || exported.Directory != filepath.Join(outDir, summary.RunID) {
		t.Fatalf("unexpected export summary: %+v", exported)
	}
	if exported.Summary.Generations != 4 || exported.Summary.FinalBest != summary.FinalBestFitness {
		t.Fatalf("unexpected series summary: %+v", exported.Summary)
	}
	if exported.Summary.Improvement < 0 {
		t.Fatalf("elitist minimization regressed: %+v", exported.Summary)
	}

	run, ok, err := stats.ReadRun(exported.Directory)
	if err != nil || !ok {
		t.Fatalf("read exported run: ok=%t err=%v", ok, err)
	}
	if run.ID != summary.RunID || run.SnapshotID != summary.SnapshotID {
		t.Fatalf("unexpected exported run: %+v", run)
	}
	series, ok, err := stats.ReadSeries(filepath.Join(exported.Directory, stats.SeriesFile))
	if err != nil || !ok {
		t.Fatalf("read exported series: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(summary.BestByGeneration, series); diff != "" {
		t.Fatalf("series mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, stats.PopulationFile)); err != nil {
		t.Fatalf("expected exported population: %v", err)
	}

	if _, err := client.Export(ctx, ExportRequest{RunID: "missing", OutDir: outDir}); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected run not found, got %v", err)
	}
}
