package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"genom/internal/evo"
	"genom/internal/storage"
	genomapi "genom/pkg/genom"
)

func main() {
	defer klog.Flush()
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		klog.ErrorS(err, "genomctl failed")
		klog.Flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:], stdout)
	case "runs":
		return runRuns(ctx, args[1:], stdout)
	case "show":
		return runShow(ctx, args[1:], stdout)
	case "fitness":
		return runFitness(ctx, args[1:], stdout)
	case "diagnostics":
		return runDiagnostics(ctx, args[1:], stdout)
	case "export":
		return runExport(ctx, args[1:], stdout)
	case "problems":
		return runProblems(stdout)
	case "selectors":
		return runSelectors(stdout)
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// storeFlags are shared by every command that opens a store.
type storeFlags struct {
	kind   string
	dbPath string
}

func newFlagSet(name string) (*pflag.FlagSet, *storeFlags) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	sf := &storeFlags{}
	fs.StringVar(&sf.kind, "store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	fs.StringVar(&sf.dbPath, "db-path", storage.DefaultSQLitePath, "sqlite database path")

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	if v := klogFlags.Lookup("v"); v != nil {
		fs.AddGoFlag(v)
	}
	return fs, sf
}

func (sf *storeFlags) client() (*genomapi.Client, error) {
	return genomapi.New(genomapi.Options{
		StoreKind: sf.kind,
		DBPath:    sf.dbPath,
		Logger:    klog.Background(),
	})
}

func runRun(ctx context.Context, args []string, stdout io.Writer) error {
	fs, sf := newFlagSet("run")
	rf := bindRunFlags(fs)
	configPath := fs.String("config", "", "YAML or JSON run config; flags override its values")
	resume := fs.String("resume", "", "snapshot id whose population seeds the run")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := rf.resolve(*configPath)
	if err != nil {
		return err
	}
	if !fs.Changed("store") && cfg.Store != "" {
		sf.kind = cfg.Store
	}
	if !fs.Changed("db-path") && cfg.DBPath != "" {
		sf.dbPath = cfg.DBPath
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	klog.V(1).InfoS("run requested", "problem", cfg.Problem, "store", sf.kind, "resume", *resume)
	summary, err := client.Run(ctx, genomapi.RunRequest{Config: cfg, ResumeFrom: *resume})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(stdout, summary)
	}

	fmt.Fprintf(stdout, "run_id=%s snapshot_id=%s problem=%s\n", summary.RunID, summary.SnapshotID, summary.Problem)
	fmt.Fprintf(stdout, "survivors=%s offspring=%s alterer=%s\n", summary.SurvivorSelector, summary.OffspringSelector, summary.Alterer)
	fmt.Fprintf(stdout, "generation=%d evaluations=%s best_fitness=%s\n",
		summary.Generation, humanize.Comma(int64(summary.Evaluations)), formatFitness(summary.FinalBestFitness))
	if summary.Best != "" {
		fmt.Fprintf(stdout, "best=%s\n", summary.Best)
	}
	return nil
}

func runRuns(ctx context.Context, args []string, stdout io.Writer) error {
	fs, sf := newFlagSet("runs")
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, genomapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(stdout, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs")
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tPROBLEM\tPOPULATION\tGENERATIONS\tBEST FITNESS\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunID, r.Problem, humanize.Comma(int64(r.Population)), humanize.Comma(int64(r.Generations)),
			formatFitness(r.BestFitness), humanize.Time(r.CreatedAt))
	}
	return tw.Flush()
}

func runShow(ctx context.Context, args []string, stdout io.Writer) error {
	fs, sf := newFlagSet("show")
	snapshotID := fs.String("snapshot-id", "", "snapshot id")
	runID := fs.String("run-id", "", "show the final snapshot of a run")
	latest := fs.Bool("latest", false, "show the final snapshot of the most recent run")
	jsonOut := fs.Bool("json", false, "emit the snapshot summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *snapshotID == "" && *runID == "" && !*latest {
		return errors.New("show requires --snapshot-id, --run-id or --latest")
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.ShowSnapshot(ctx, genomapi.SnapshotRequest{
		SnapshotID: *snapshotID,
		RunID:      *runID,
		Latest:     *latest,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(stdout, summary)
	}

	fmt.Fprintf(stdout, "snapshot_id=%s run_id=%s problem=%s\n", summary.SnapshotID, summary.RunID, summary.Problem)
	fmt.Fprintf(stdout, "size=%d generation=%d evaluated=%d invalid=%d encoded=%s\n",
		summary.Size, summary.Generation, summary.Evaluated, summary.Invalid, humanize.Bytes(uint64(summary.Bytes)))
	if summary.HasBest {
		fmt.Fprintf(stdout, "best_fitness=%s best=%s\n", formatFitness(summary.BestFitness), summary.Best)
	}
	return nil
}

func runFitness(ctx context.Context, args []string, stdout io.Writer) error {
	fs, sf := newFlagSet("fitness")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("fitness requires --run-id or --latest")
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, genomapi.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(stdout, history)
	}
	if len(history) == 0 {
		fmt.Fprintln(stdout, "no fitness history")
		return nil
	}
	for i, best := range history {
		fmt.Fprintf(stdout, "generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string, stdout io.Writer) error {
	fs, sf := newFlagSet("diagnostics")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("diagnostics requires --run-id or --latest")
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, genomapi.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(stdout, diagnostics)
	}
	if len(diagnostics) == 0 {
		fmt.Fprintln(stdout, "no diagnostics")
		return nil
	}
	for _, d := range diagnostics {
		fmt.Fprintf(stdout, "generation=%d best=%.6f mean=%.6f worst=%.6f alterations=%d invalid=%d killed=%d evaluations=%d diversity=%d\n",
			d.Generation, d.BestFitness, d.MeanFitness, d.WorstFitness, d.Alterations, d.Invalid, d.Killed, d.Evaluations, d.Diversity)
	}
	return nil
}

func runExport(ctx context.Context, args []string, stdout io.Writer) error {
	fs, sf := newFlagSet("export")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "exports", "directory receiving <run id>/ artifacts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, genomapi.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported run_id=%s dir=%s improvement=%s\n",
		exported.RunID, exported.Directory, formatFitness(exported.Summary.Improvement))
	return nil
}

func runProblems(stdout io.Writer) error {
	client, err := genomapi.New(genomapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, p := range client.Problems() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Optimize, p.Description)
	}
	return tw.Flush()
}

func runSelectors(stdout io.Writer) error {
	for _, name := range evo.SelectorNames() {
		usage, _ := evo.SelectorUsage(name)
		fmt.Fprintln(stdout, usage)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFitness(f float64) string {
	return humanize.FormatFloat("#,###.######", f)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: genomctl <%s> [flags]", msg, strings.Join([]string{
		"run", "runs", "show", "fitness", "diagnostics", "export", "problems", "selectors",
	}, "|"))
}
