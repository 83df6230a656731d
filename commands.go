package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/HamletTheHamster/goat-explorer/internal/charts"
	"github.com/HamletTheHamster/goat-explorer/internal/config"
	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/logging"
	"github.com/HamletTheHamster/goat-explorer/internal/retry"
	"github.com/HamletTheHamster/goat-explorer/internal/store"
	"github.com/HamletTheHamster/goat-explorer/internal/termui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	dataPath   string
	reference  string
	filters    []string
	slide      bool
	note       string
	outDir     string

	cfg    *config.Config
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "goatx",
		Short:        "Explore the GOAT shoe-ranking dataset",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stderr = cmd.ErrOrStderr()
			return a.init()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "goatx.yaml", "config file (YAML); missing means defaults")
	pf.StringVar(&a.dataPath, "data", "", "dataset CSV (overrides config)")
	pf.StringVar(&a.reference, "reference", "", "reference date for daysfrommarch, YYYY-MM-DD")
	pf.StringArrayVar(&a.filters, "filter", nil, "keep rows where column=value (repeatable)")
	pf.BoolVar(&a.slide, "slide", false, "format figures for slide presentation")
	pf.StringVar(&a.note, "note", "", "note to append to the output folder name")
	pf.StringVar(&a.outDir, "out-dir", "", "chart output directory (overrides config)")

	root.AddCommand(
		a.serveCmd(),
		a.histCmd(),
		a.compareCmd(),
		a.kpiCmd(),
		a.regressCmd(),
		a.snapshotCmd(),
		a.configCmd(),
	)
	return root
}

// init loads the config, applies flag overrides and reconfigures logging.
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataPath != "" {
		cfg.Data.Path = a.dataPath
	}
	if a.reference != "" {
		cfg.Data.ReferenceDate = a.reference
	}
	if a.outDir != "" {
		cfg.Charts.OutDir = a.outDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Logging.Env != "" || cfg.Logging.Level != "" {
		logging.Setup(cfg.Logging.Env, cfg.Logging.Level)
	}
	a.cfg = cfg
	return nil
}

func (a *app) datasetOptions() dataset.Options {
	opts, err := a.cfg.DatasetOptions()
	if err != nil {
		// Validate already parsed the reference date
		log.Fatal().Err(err).Msg("Invalid dataset options")
	}
	return opts
}

// frame loads, cleans and filters the dataset. A missing or empty dataset is
// reported the way the dashboard reports it.
func (a *app) frame() (*dataset.Frame, error) {
	f, err := dataset.Load(a.cfg.Data.Path, a.datasetOptions())
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			a.noData(err)
		}
		return nil, err
	}
	if f.IsEmpty() {
		a.noData(nil)
		return nil, fmt.Errorf("no data loaded, please check your CSV file: %w", dataset.ErrEmpty)
	}

	eqs, err := parseFilters(a.filters)
	if err != nil {
		return nil, err
	}
	if len(eqs) == 0 {
		return f, nil
	}
	f, err = f.Filter(eqs...)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("rows", f.Len()).Strs("filters", a.filters).Msg("Filtered dataset")
	return f, nil
}

func (a *app) noData(err error) {
	if a.stderr == nil {
		return
	}
	if _, werr := fmt.Fprint(a.stderr, termui.DefaultStyles().NoData(err)); werr != nil {
		log.Debug().Err(werr).Msg("Failed to write warning")
	}
}

func parseFilters(raw []string) ([]dataset.Equality, error) {
	var out []dataset.Equality
	for _, r := range raw {
		col, value, ok := strings.Cut(r, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("filter %q is not column=value", r)
		}
		out = append(out, dataset.Equality{Column: dataset.Canonical(col), Value: value})
	}
	return out, nil
}

func (a *app) chartOptions() charts.Options {
	opts := charts.DefaultOptions()
	opts.Bins = a.cfg.Charts.Bins
	opts.Style.Slide = a.slide
	return opts
}

func (a *app) chartSize() charts.Size {
	return charts.SizeInches(a.cfg.Charts.WidthIn, a.cfg.Charts.HeightIn)
}

// openStore connects to the configured snapshot database.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, a.cfg.Store.Driver, a.cfg.Store.DSN, retry.DefaultPolicy())
}

// explorable lists the configured explorable columns present in f.
func (a *app) explorable(f *dataset.Frame) []string {
	var out []string
	for _, col := range a.cfg.Data.Explorable {
		if c := dataset.Canonical(col); f.Has(c) {
			out = append(out, c)
		}
	}
	return out
}
