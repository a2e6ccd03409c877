// Package genom is the public entry point for running and inspecting
// evolution runs.
package genom

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"genom/internal/gene"
	"genom/internal/model"
	"genom/internal/problem"
	"genom/internal/stats"
	"genom/internal/storage"
)

const (
	defaultDBPath     = storage.DefaultSQLitePath
	defaultExportsDir = "exports"
)

var (
	ErrNoRuns           = errors.New("no runs available")
	ErrRunNotFound      = errors.New("run not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

type Options struct {
	StoreKind string
	DBPath    string
	// Logger receives run progress. The zero value discards it.
	Logger logr.Logger
}

type Client struct {
	store       storage.Store
	log         logr.Logger
	initialized bool
	now         func() time.Time
}

type RunRequest struct {
	Config problem.RunConfig
	// ResumeFrom names a snapshot whose population seeds the run.
	ResumeFrom string
}

type RunSummary struct {
	RunID             string
	SnapshotID        string
	Problem           string
	BestByGeneration  []float64
	FinalBestFitness  float64
	Best              string
	Generation        int64
	Evaluations       int
	SurvivorSelector  string
	OffspringSelector string
	Alterer           string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID             string
	CreatedAt         time.Time
	Problem           string
	Optimize          string
	Seed              int64
	Population        int
	Generations       int
	BestFitness       float64
	Best              string
	SnapshotID        string
	SurvivorSelector  string
	OffspringSelector string
	Alterer           string
}

type SnapshotRequest struct {
	SnapshotID string
	RunID      string
	Latest     bool
}

type SnapshotSummary struct {
	SnapshotID  string
	RunID       string
	Problem     string
	CreatedAt   time.Time
	Bytes       int
	Size        int
	Generation  int64
	Evaluated   int
	Invalid     int
	BestFitness float64
	HasBest     bool
	Best        string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
	Summary   stats.SeriesSummary
}

type ProblemItem struct {
	Name        string
	Description string
	Optimize    string
}

func New(opts Options) (*Client, error) {
	if opts.DBPath == "" {
		opts.DBPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	return NewWithStore(store, opts.Logger), nil
}

// NewWithStore returns a client over an existing store.
func NewWithStore(store storage.Store, log logr.Logger) *Client {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Client{store: store, log: log, now: time.Now}
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Problems lists the runnable problems by name.
func (c *Client) Problems() []ProblemItem {
	names := problem.Names()
	out := make([]ProblemItem, 0, len(names))
	for _, name := range names {
		p, err := problem.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, ProblemItem{Name: p.Name(), Description: p.Description(), Optimize: p.Optimize().String()})
	}
	return out
}

// Run evolves a population and persists its final snapshot, summary,
// fitness history and per-generation diagnostics.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	cfg := req.Config
	p, err := problem.Lookup(cfg.Problem)
	if err != nil {
		return RunSummary{}, err
	}

	var resume []byte
	if req.ResumeFrom != "" {
		snapshot, ok, err := c.store.GetSnapshot(ctx, req.ResumeFrom)
		if err != nil {
			return RunSummary{}, err
		}
		if !ok {
			return RunSummary{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, req.ResumeFrom)
		}
		if snapshot.Problem != p.Name() {
			return RunSummary{}, fmt.Errorf("snapshot %s holds a %s population, not %s", snapshot.ID, snapshot.Problem, p.Name())
		}
		resume = snapshot.Population
	}

	runID := uuid.NewString()
	log := c.log.WithValues("run", runID, "problem", p.Name())
	log.V(1).Info("starting run", "population", cfg.PopulationSize, "generations", cfg.Generations, "seed", cfg.Seed, "resume", req.ResumeFrom)

	outcome, err := p.Run(ctx, cfg, resume)
	if err != nil {
		log.Error(err, "run failed")
		return RunSummary{}, err
	}
	if resume != nil {
		summary, err := p.Summarize(resume)
		if err != nil {
			return RunSummary{}, err
		}
		cfg.PopulationSize = summary.Size
	}

	createdAt := c.now().UTC()
	snapshot := model.Snapshot{
		VersionedRecord: storage.CurrentVersion(),
		ID:              uuid.NewString(),
		RunID:           runID,
		Problem:         p.Name(),
		Generation:      outcome.Generation,
		Size:            cfg.PopulationSize,
		CreatedAt:       createdAt,
		Population:      outcome.Population,
	}
	if err := c.store.SaveSnapshot(ctx, snapshot); err != nil {
		return RunSummary{}, fmt.Errorf("save snapshot: %w", err)
	}
	run := model.RunSummary{
		VersionedRecord:   storage.CurrentVersion(),
		ID:                runID,
		Problem:           p.Name(),
		Optimize:          p.Optimize().String(),
		SurvivorSelector:  outcome.SurvivorSelector,
		OffspringSelector: outcome.OffspringSelector,
		Alterer:           outcome.Alterer,
		PopulationSize:    cfg.PopulationSize,
		Generations:       cfg.Generations,
		Seed:              cfg.Seed,
		BestFitness:       outcome.BestFitness,
		Best:              outcome.Best,
		SnapshotID:        snapshot.ID,
		CreatedAt:         createdAt,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, outcome.History); err != nil {
		return RunSummary{}, fmt.Errorf("save fitness history: %w", err)
	}
	diagnostics := make([]model.GenerationDiagnostics, 0, len(outcome.Diagnostics))
	for _, d := range outcome.Diagnostics {
		diagnostics = append(diagnostics, model.GenerationDiagnostics(d))
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, diagnostics); err != nil {
		return RunSummary{}, fmt.Errorf("save diagnostics: %w", err)
	}
	log.V(1).Info("run finished", "generation", outcome.Generation, "bestFitness", outcome.BestFitness, "evaluations", outcome.Evaluations, "snapshot", snapshot.ID)

	return RunSummary{
		RunID:             runID,
		SnapshotID:        snapshot.ID,
		Problem:           p.Name(),
		BestByGeneration:  append([]float64(nil), outcome.History...),
		FinalBestFitness:  outcome.BestFitness,
		Best:              outcome.Best,
		Generation:        outcome.Generation,
		Evaluations:       outcome.Evaluations,
		SurvivorSelector:  outcome.SurvivorSelector,
		OffspringSelector: outcome.OffspringSelector,
		Alterer:           outcome.Alterer,
	}, nil
}

// Runs returns the most recent runs first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	slices.Reverse(runs)
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunItem{
			RunID:             run.ID,
			CreatedAt:         run.CreatedAt,
			Problem:           run.Problem,
			Optimize:          run.Optimize,
			Seed:              run.Seed,
			Population:        run.PopulationSize,
			Generations:       run.Generations,
			BestFitness:       run.BestFitness,
			Best:              run.Best,
			SnapshotID:        run.SnapshotID,
			SurvivorSelector:  run.SurvivorSelector,
			OffspringSelector: run.OffspringSelector,
			Alterer:           run.Alterer,
		})
	}
	return out, nil
}

// ShowSnapshot decodes a stored population and summarizes it.
func (c *Client) ShowSnapshot(ctx context.Context, req SnapshotRequest) (SnapshotSummary, error) {
	if err := c.Init(ctx); err != nil {
		return SnapshotSummary{}, err
	}
	snapshotID := req.SnapshotID
	if snapshotID == "" {
		runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, "snapshot")
		if err != nil {
			return SnapshotSummary{}, err
		}
		run, ok, err := c.store.GetRun(ctx, runID)
		if err != nil {
			return SnapshotSummary{}, err
		}
		if !ok {
			return SnapshotSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		snapshotID = run.SnapshotID
	} else if req.RunID != "" || req.Latest {
		return SnapshotSummary{}, errors.New("use either snapshot id or run selection")
	}

	snapshot, ok, err := c.store.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return SnapshotSummary{}, err
	}
	if !ok {
		return SnapshotSummary{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}
	p, err := problem.Lookup(snapshot.Problem)
	if err != nil {
		return SnapshotSummary{}, err
	}
	summary, err := p.Summarize(snapshot.Population)
	if err != nil {
		return SnapshotSummary{}, err
	}
	return SnapshotSummary{
		SnapshotID:  snapshot.ID,
		RunID:       snapshot.RunID,
		Problem:     snapshot.Problem,
		CreatedAt:   snapshot.CreatedAt,
		Bytes:       len(snapshot.Population),
		Size:        summary.Size,
		Generation:  summary.Generation,
		Evaluated:   summary.Evaluated,
		Invalid:     summary.Invalid,
		BestFitness: summary.BestFitness,
		HasBest:     summary.HasBest,
		Best:        summary.Best,
	}, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, "fitness history")
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

// Export writes the stored artifacts of a run, including its final
// population, into OutDir/<run id>.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = defaultExportsDir
	}
	if err := c.Init(ctx); err != nil {
		return ExportSummary{}, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	history, _, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	diagnostics, _, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	var population []byte
	if run.SnapshotID != "" {
		snapshot, ok, err := c.store.GetSnapshot(ctx, run.SnapshotID)
		if err != nil {
			return ExportSummary{}, err
		}
		if ok {
			population = snapshot.Population
		}
	}
	opt, err := gene.ParseOptimize(run.Optimize)
	if err != nil {
		return ExportSummary{}, err
	}

	summary := stats.SummarizeSeries(history, opt)
	dir, err := stats.WriteRunArtifacts(req.OutDir, stats.RunArtifacts{
		Run:              run,
		BestByGeneration: history,
		Diagnostics:      diagnostics,
		Summary:          summary,
		Population:       population,
	})
	if err != nil {
		return ExportSummary{}, err
	}
	c.log.V(1).Info("exported run", "run", runID, "dir", dir)
	return ExportSummary{RunID: runID, Directory: filepath.Clean(dir), Summary: summary}, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return "", err
		}
		if len(runs) == 0 {
			return "", ErrNoRuns
		}
		return runs[len(runs)-1].ID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	return runID, nil
}
