package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"depara/internal/config"
	"depara/internal/crawl"
	"depara/internal/diagnostic"
	"depara/internal/engine"
	"depara/internal/match"
	"depara/internal/sheet"
)

const defaultOutput = "dexpara_resultado.xlsx"

type matchOptions struct {
	configPath string
	logLevel   string
	in         string
	de         string
	rastreio   string
	out        string
	weights    string
	threshold  float64
	top        int
	workers    int
	crawl      bool
	show       bool
}

func parseMatchFlags(args []string, stderr io.Writer) (matchOptions, map[string]bool, error) {
	var opts matchOptions

	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&opts.in, "in", "", "Workbook (.xlsx) with DE and RASTREIO sheets")
	fs.StringVar(&opts.de, "de", "", "CSV/TSV file with the DE list (instead of --in)")
	fs.StringVar(&opts.rastreio, "rastreio", "", "CSV/TSV file with the RASTREIO list (instead of --in)")
	fs.StringVar(&opts.out, "out", defaultOutput, "Report file: .xlsx, or .csv for two CSV files")
	fs.StringVar(&opts.weights, "weights", "", `Field weights "slug,title,description,h1", e.g. "0.4,0.25,0.2,0.15"`)
	fs.Float64Var(&opts.threshold, "threshold", match.DefaultThreshold, "Minimum score of an acceptable match, in [0,1]")
	fs.IntVar(&opts.top, "top", match.DefaultTopN, "Ranked candidates kept per DE URL")
	fs.IntVar(&opts.workers, "workers", 0, "Parallel workers (0 = number of CPUs)")
	fs.BoolVar(&opts.crawl, "crawl", false, "Fetch pages to fill missing title, description and H1")
	fs.BoolVar(&opts.show, "show", false, "Print the ranked candidates of every DE URL")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), "Usage: depara match (--in FILE | --de FILE --rastreio FILE) [options]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, nil, err
		}

		return opts, nil, errUsage
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	opts.in = strings.TrimSpace(opts.in)
	opts.de = strings.TrimSpace(opts.de)
	opts.rastreio = strings.TrimSpace(opts.rastreio)

	switch {
	case opts.in != "" && (opts.de != "" || opts.rastreio != ""):
		fs.Usage()

		return opts, nil, fmt.Errorf("%w: --in cannot be combined with --de/--rastreio", errUsage)
	case opts.in == "" && (opts.de == "" || opts.rastreio == ""):
		fs.Usage()

		return opts, nil, fmt.Errorf("%w: either --in or both --de and --rastreio are required", errUsage)
	}

	return opts, set, nil
}

// applyMatchFlags layers explicitly set flags over the file configuration.
func applyMatchFlags(cfg *config.Config, opts matchOptions, set map[string]bool) {
	if set["weights"] {
		cfg.Weights = opts.weights
	}

	if set["threshold"] {
		cfg.Threshold = opts.threshold
	}

	if set["top"] && opts.top > 0 {
		cfg.TopN = opts.top
	}

	if set["workers"] {
		cfg.Workers = opts.workers
	}

	if set["crawl"] {
		cfg.Crawl.Enabled = opts.crawl
	}

	if set["log-level"] && opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
}

func runMatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, set, err := parseMatchFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return err
	}

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}

	applyMatchFlags(&cfg, opts, set)

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	wb, err := loadInput(opts, cfg)
	if err != nil {
		return err
	}

	var diags diagnostic.Diagnostics

	engineOpts := engine.OptionsFromConfig(cfg, &diags)
	if cfg.Crawl.Enabled {
		engineOpts.Enricher = crawl.New(cfg.Crawl, logger)
	}

	diags.Log(logger)

	run, err := engine.New(engineOpts, logger).RunWorkbook(ctx, wb)
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}

	files, err := sheet.WriteReportFile(opts.out, run.Report(cfg.NoMatchLabel), cfg.Sheets)
	if err != nil {
		return err
	}

	logger.Info("report written", zap.String("run_id", run.ID), zap.Strings("files", files))

	if opts.show {
		printResults(stdout, run, cfg.NoMatchLabel)
	}

	printSummary(stdout, run.Summary, files)

	return nil
}

func loadInput(opts matchOptions, cfg config.Config) (sheet.Workbook, error) {
	if opts.in != "" {
		return sheet.ReadWorkbookFile(opts.in, cfg.Sheets)
	}

	src, err := sheet.ReadCSVFile(opts.de)
	if err != nil {
		return sheet.Workbook{}, err
	}

	cand, err := sheet.ReadCSVFile(opts.rastreio)
	if err != nil {
		return sheet.Workbook{}, err
	}

	return sheet.Workbook{Source: src, Candidates: cand}, nil
}

func printResults(w io.Writer, run *engine.Run, noMatchLabel string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for i, res := range run.Results {
		sel := run.Selections[i]

		status := "below threshold"
		if sel.AboveThreshold {
			status = "match"
		}

		if !sel.HasMatch() {
			status = noMatchLabel
		}

		fmt.Fprintf(tw, "DE %s\t%s\t%s\n", res.Source.URL, sheet.FormatPercent(sel.Score()), status)
		fmt.Fprintln(tw, "  #\tPARA\tSCORE\tSLUG\tTITLE\tDESC\tH1")

		for rank, c := range res.Candidates {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				rank+1,
				c.URL,
				sheet.FormatPercent(c.Score),
				sheet.FormatPercent(c.Details.Slug),
				sheet.FormatPercent(c.Details.Title),
				sheet.FormatPercent(c.Details.Description),
				sheet.FormatPercent(c.Details.H1),
			)
		}

		fmt.Fprintln(tw)
	}

	_ = tw.Flush()
}

func printSummary(w io.Writer, s match.RunSummary, files []string) {
	fmt.Fprintf(w, "DE URLs:           %d\n", s.Total)
	fmt.Fprintf(w, "Above threshold:   %d (%s)\n", s.AboveThresholdCount, sheet.FormatPercent(s.AboveThresholdRate))
	fmt.Fprintf(w, "With a candidate:  %d (%s)\n", s.AnyMatchCount, sheet.FormatPercent(s.AnyMatchRate))
	fmt.Fprintf(w, "Average score:     %s\n", sheet.FormatPercent(s.AverageScore))
	fmt.Fprintf(w, "Report:            %s\n", strings.Join(files, ", "))
}
