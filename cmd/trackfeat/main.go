// Command trackfeat computes per-track features for a spot graph.
//
// Usage:
//
//	trackfeat [options] <tracks.json|tracks.db>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/vanderheijden86/trackfeat/internal/datasource"
	"github.com/vanderheijden86/trackfeat/pkg/config"
	"github.com/vanderheijden86/trackfeat/pkg/debug"
	"github.com/vanderheijden86/trackfeat/pkg/export"
	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/features/track"
	"github.com/vanderheijden86/trackfeat/pkg/metrics"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
	"github.com/vanderheijden86/trackfeat/pkg/version"
	"github.com/vanderheijden86/trackfeat/pkg/watcher"
)

// exitFailures is returned when the run completed but some tracks failed.
const exitFailures = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath    string
	threads       int
	analyzers     string
	jsonOut       string
	sqliteOut     string
	metricsFile   string
	compare       string
	watch         bool
	timings       bool
	listAnalyzers bool
	showVersion   bool
	cpuProfile    string
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, map[string]bool, error) {
	fs := flag.NewFlagSet("trackfeat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: trackfeat [options] <tracks.json|tracks.db>")
		fmt.Fprintln(stderr, "\nComputes per-track features (length, confinement, duration, speed, branching).")
		fs.PrintDefaults()
	}

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "Config file (default: XDG config dir)")
	fs.IntVar(&o.threads, "threads", 0, "Worker goroutines per analyzer (0 = one per CPU)")
	fs.StringVar(&o.analyzers, "analyzers", "", "Comma-separated analyzer keys (default: all)")
	fs.StringVar(&o.jsonOut, "json", "", "Write features as JSON to file ('-' for stdout)")
	fs.StringVar(&o.sqliteOut, "sqlite", "", "Write features to a SQLite database")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics to file")
	fs.StringVar(&o.compare, "compare", "", "Compare the input against another source and exit")
	fs.BoolVar(&o.watch, "watch", false, "Recompute whenever the input changes")
	fs.BoolVar(&o.timings, "timings", false, "Print stage and analyzer timings after each run")
	fs.BoolVar(&o.listAnalyzers, "list-analyzers", false, "List analyzers and their features")
	fs.BoolVar(&o.showVersion, "version", false, "Show version")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, fs.Args(), set, nil
}

// resolveConfig layers flags set on the command line over the config file.
func resolveConfig(o *options, set map[string]bool) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}

	if set["threads"] {
		cfg.NumThreads = o.threads
	}
	if set["analyzers"] {
		cfg.Analyzers = config.SplitList(o.analyzers)
	}
	if set["json"] {
		cfg.Output.JSON = o.jsonOut
	}
	if set["sqlite"] {
		cfg.Output.SQLite = o.sqliteOut
	}
	if set["metrics-file"] {
		cfg.Output.MetricsFile = o.metricsFile
	}
	debug.Dump("config", cfg)
	return cfg, cfg.Validate()
}

func selectAnalyzers(keys []string) ([]features.TrackAnalyzer, error) {
	if len(keys) == 0 {
		return track.Default(), nil
	}
	return track.ByKey(keys...)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, rest, set, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if o.showVersion {
		fmt.Fprintf(stdout, "trackfeat %s\n", version.Version)
		return 0
	}

	if o.cpuProfile != "" {
		f, err := os.Create(o.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := resolveConfig(o, set)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	analyzers, err := selectAnalyzers(cfg.Analyzers)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if o.listAnalyzers {
		printAnalyzers(stdout, analyzers)
		return 0
	}

	if len(rest) != 1 {
		fmt.Fprintln(stderr, "Usage: trackfeat [options] <tracks.json|tracks.db>")
		return 1
	}
	input := rest[0]

	if o.compare != "" {
		return runCompare(input, o.compare, stdout, stderr)
	}

	logger := log.New(stderr, "trackfeat: ", 0)
	calc := features.NewCalculator(analyzers...)
	calc.SetNumThreads(cfg.NumThreads)
	calc.SetLogger(logger)

	s := &session{input: input, cfg: cfg, calc: calc, timings: o.timings, stdout: stdout, stderr: stderr}
	code := s.run(ctx)
	if !o.watch {
		return code
	}

	w, err := watcher.New(input, func() { s.run(ctx) },
		watcher.WithDebounceDuration(cfg.Watch.Debounce),
		watcher.WithPollInterval(cfg.Watch.PollInterval),
		watcher.WithForcePoll(cfg.Watch.ForcePoll),
		watcher.WithOnError(func(err error) { logger.Printf("watch: %v", err) }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error watching %s: %v\n", input, err)
		return 1
	}
	fmt.Fprintf(stdout, "Watching %s (Ctrl-C to stop)\n", w.Path())
	if err := w.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Error watching %s: %v\n", input, err)
		return 1
	}
	return 0
}

// session holds what survives between runs in watch mode.
type session struct {
	input          string
	cfg            config.Config
	calc           *features.Calculator
	timings        bool
	stdout, stderr io.Writer

	lastHash   string
	lastCode   int
	lastSource datasource.DataSource
	lastLoad   time.Time
}

// mtimeSlack is how old a file's mtime must be, relative to the previous
// load, before an identical stat is trusted without re-hashing. Filesystem
// timestamps are coarse, so two writes within one tick share an mtime.
const mtimeSlack = 2 * time.Second

// run loads the input, computes every analyzer and writes the exports.
// An input whose content did not change since the previous run is skipped.
func (s *session) run(ctx context.Context) int {
	if s.statUnchanged() {
		fmt.Fprintf(s.stderr, "%s unchanged, skipping\n", s.lastSource.Path)
		return s.lastCode
	}

	start := time.Now()
	m, src, err := datasource.LoadPath(s.input)
	if err != nil {
		fmt.Fprintf(s.stderr, "Error loading %s: %v\n", s.input, err)
		return 1
	}
	hash := m.Hash()
	if s.lastHash != "" && hash == s.lastHash {
		s.lastSource, s.lastLoad = src, start
		fmt.Fprintf(s.stderr, "%s unchanged, skipping\n", src.Path)
		return s.lastCode
	}
	code := s.compute(ctx, m, src)
	if code != 1 {
		s.lastHash, s.lastCode = hash, code
		s.lastSource, s.lastLoad = src, start
	}
	return code
}

// statUnchanged reports whether the input still has the size and mtime it
// had when last loaded, and that mtime is old enough to be trusted.
func (s *session) statUnchanged() bool {
	if s.lastHash == "" {
		return false
	}
	changed, err := s.lastSource.Changed()
	if err != nil || changed {
		return false
	}
	return s.lastLoad.Sub(s.lastSource.ModTime) > mtimeSlack
}

func (s *session) compute(ctx context.Context, m *trackmodel.Model, src datasource.DataSource) int {
	cfg, calc, stdout, stderr := s.cfg, s.calc, s.stdout, s.stderr

	store := features.NewStore()
	batch := calc.Compute(ctx, m.TrackIDs(), m, store)

	summary := stdout
	if cfg.Output.JSON == "-" {
		summary = stderr
	}
	fmt.Fprintf(summary, "%s: %d spots, %d edges, %d tracks\n", src.Path, m.NSpots(), m.NEdges(), m.NTracks())
	printSummary(summary, batch)
	if s.timings {
		printTimings(summary, metrics.AllTimingStats())
	}

	var err error
	switch cfg.Output.JSON {
	case "":
	case "-":
		err = export.WriteJSON(stdout, store, m, batch)
	default:
		err = export.WriteJSONFile(cfg.Output.JSON, store, m, batch)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error writing JSON: %v\n", err)
		return 1
	}
	if cfg.Output.SQLite != "" {
		if err := export.NewSQLiteExporter(store, m, batch).Export(cfg.Output.SQLite); err != nil {
			fmt.Fprintf(stderr, "Error writing SQLite: %v\n", err)
			return 1
		}
	}
	if cfg.Output.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			fmt.Fprintf(stderr, "Error writing metrics: %v\n", err)
			return 1
		}
	}

	if ctx.Err() != nil {
		return 1
	}
	if batch.Err() != nil {
		return exitFailures
	}
	return 0
}

func printSummary(w io.Writer, batch *features.BatchReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ANALYZER\tTRACKS\tCOMPUTED\tFAILED\tSKIPPED\tELAPSED")
	for _, r := range batch.Reports {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Analyzer, r.Tracks, r.Computed, len(r.Failures), len(r.Skipped), r.Elapsed.Round(time.Microsecond))
	}
	tw.Flush()
	fmt.Fprintf(w, "Total: %s, %d tracks with failures\n", batch.Elapsed.Round(time.Microsecond), len(batch.FailedTracks()))
}

// printTimings lists cumulative timings for every stage that ran.
func printTimings(w io.Writer, stats []metrics.TimingStats) {
	if !metrics.Enabled() {
		fmt.Fprintln(w, "Timings disabled (TRACKFEAT_METRICS=0)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tCOUNT\tTOTAL\tAVG\tMIN\tMAX")
	for _, st := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%.3fms\t%.3fms\t%.3fms\t%.3fms\n",
			st.Name, st.Count, st.TotalMs, st.AvgMs, st.MinMs, st.MaxMs)
	}
	tw.Flush()
}

func printAnalyzers(w io.Writer, analyzers []features.TrackAnalyzer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, a := range analyzers {
		fmt.Fprintf(tw, "%s\t%s\n", a.Key(), a.InfoText())
		names := a.FeatureNames()
		shorts := a.FeatureShortNames()
		dims := a.FeatureDimensions()
		ints := a.IsIntFeature()
		for _, f := range a.Features() {
			kind := "float"
			if ints[f] {
				kind = "int"
			}
			fmt.Fprintf(tw, "  %s\t%s (%s)\t%s\t%s\n", f, names[f], shorts[f], strings.ToLower(dims[f].String()), kind)
		}
	}
	tw.Flush()
}

func runCompare(a, b string, stdout, stderr io.Writer) int {
	srcA, err := datasource.Detect(a)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	srcB, err := datasource.Detect(b)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	diff, err := datasource.CompareSources(srcA, srcB, datasource.DefaultDiffOptions())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, diff.Summary())
	if diff.HasInconsistencies() {
		return exitFailures
	}
	fmt.Fprintln(stdout)
	return 0
}
