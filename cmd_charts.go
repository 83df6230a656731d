package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/HamletTheHamster/goat-explorer/internal/charts"
	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/trend"
	"github.com/spf13/cobra"
)

func (a *app) histCmd() *cobra.Command {
	var bins int

	cmd := &cobra.Command{
		Use:   "hist [column...]",
		Short: "Save a histogram per column (every explorable column by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bins > charts.MaxBins {
				return fmt.Errorf("%w, got %d", charts.ErrTooManyBins, bins)
			}
			f, err := a.frame()
			if err != nil {
				return err
			}
			cols := args
			if len(cols) == 0 {
				cols = a.explorable(f)
			}
			opts := a.chartOptions()
			if bins > 0 {
				opts.Bins = bins
			}

			now := time.Now()
			dir := logpath(a.cfg.Charts.OutDir, a.note, now)
			logFile := logHeader(os.Args[1:], f.Source(), f.Len(), a.filters, now)
			for _, col := range cols {
				p, err := charts.Histogram(f, dataset.Canonical(col), opts)
				if err != nil {
					return fmt.Errorf("histogram of %s: %w", col, err)
				}
				written, err := charts.Save(p, dir, "hist-"+fileName(col), a.chartSize())
				if err != nil {
					return err
				}
				logFile = append(logFile, fmt.Sprintf("Histogram of %s: %s\n", col, strings.Join(written, ", ")))
			}
			return writeLog(dir, logFile)
		},
	}
	cmd.Flags().IntVar(&bins, "bins", 0, "histogram bins (overrides config)")
	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	var violin bool
	var model string

	cmd := &cobra.Command{
		Use:   "compare <x> <y>",
		Short: "Save a comparison chart of two columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.frame()
			if err != nil {
				return err
			}
			opts := a.chartOptions()
			opts.Violin = violin
			if model != "" {
				if opts.Trend, err = trend.ParseModel(model); err != nil {
					return err
				}
			}

			x, y := dataset.Canonical(args[0]), dataset.Canonical(args[1])
			p, kind, err := charts.Compare(f, x, y, opts)
			if err != nil {
				return err
			}

			now := time.Now()
			dir := logpath(a.cfg.Charts.OutDir, a.note, now)
			written, err := charts.Save(p, dir, fmt.Sprintf("%s-%s-vs-%s", kind, fileName(y), fileName(x)), a.chartSize())
			if err != nil {
				return err
			}
			logFile := logHeader(os.Args[1:], f.Source(), f.Len(), a.filters, now)
			logFile = append(logFile, fmt.Sprintf("%s vs %s (%s): %s\n", y, x, kind, strings.Join(written, ", ")))
			return writeLog(dir, logFile)
		},
	}
	cmd.Flags().BoolVar(&violin, "violin", false, "violins instead of boxes for category/number pairs")
	cmd.Flags().StringVar(&model, "trend", "", "trend line for number pairs: linear, exp, lorentzian")
	return cmd
}

// fileName makes a column name safe for a file name.
func fileName(col string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '.':
			return '_'
		}
		return r
	}, col)
}
