package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/HamletTheHamster/goat-explorer/internal/charts"
	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"github.com/HamletTheHamster/goat-explorer/internal/termui"
	"github.com/spf13/cobra"
)

func (a *app) kpiCmd() *cobra.Command {
	var top int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Summarise the top-N best-ranked shoes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.frame()
			if err != nil {
				return err
			}
			if top == 0 {
				top = a.cfg.Charts.TopN
			}
			kpi, err := stats.Summarize(f, top)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(kpi)
			}
			_, err = fmt.Fprint(out, termui.DefaultStyles().KPICards(kpi))
			return err
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "number of best-ranked shoes (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of cards")
	return cmd
}

func (a *app) regressCmd() *cobra.Command {
	var response, style, plotVar string
	var categorical, numeric []string
	var width int
	var plain bool

	cmd := &cobra.Command{
		Use:   "regress",
		Short: "Fit OLS of rank on one-hot encoded categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.frame()
			if err != nil {
				return err
			}
			cats := canonicalAll(categorical)
			if len(cats)+len(numeric) == 0 {
				for _, col := range a.explorable(f) {
					if kind, err := f.Kind(col); err == nil && kind == dataset.Categorical {
						cats = append(cats, col)
					}
				}
			}

			design, err := stats.NewDesign(f, dataset.Canonical(response), cats, canonicalAll(numeric))
			if err != nil {
				return err
			}
			reg, err := stats.FitOLS(design)
			if err != nil {
				return err
			}

			text := reg.Summary()
			if !plain {
				if text, err = termui.Markdown(termui.RegressionMarkdown(reg), style, width); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprint(cmd.OutOrStdout(), text); err != nil {
				return fmt.Errorf("failed to write regression summary: %w", err)
			}

			if plotVar == "" {
				return nil
			}
			p, err := charts.Coefficients(reg, dataset.Canonical(plotVar), a.chartOptions())
			if err != nil {
				return err
			}
			now := time.Now()
			dir := logpath(a.cfg.Charts.OutDir, a.note, now)
			written, err := charts.Save(p, dir, "coefficients-"+fileName(plotVar), a.chartSize())
			if err != nil {
				return err
			}
			logFile := logHeader(os.Args[1:], f.Source(), f.Len(), a.filters, now)
			logFile = append(logFile, reg.Summary())
			logFile = append(logFile, fmt.Sprintf("\nCoefficients for %s: %s\n", plotVar, strings.Join(written, ", ")))
			return writeLog(dir, logFile)
		},
	}
	cmd.Flags().StringVar(&response, "response", dataset.Rank, "response column")
	cmd.Flags().StringSliceVar(&categorical, "categorical", nil, "categorical predictors (default: explorable categories)")
	cmd.Flags().StringSliceVar(&numeric, "numeric", nil, "numeric predictors")
	cmd.Flags().StringVar(&plotVar, "plot", "", "save a coefficient chart for this predictor")
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light, notty")
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the plain-text table")
	return cmd
}

func canonicalAll(cols []string) []string {
	var out []string
	for _, c := range cols {
		out = append(out, dataset.Canonical(c))
	}
	return out
}
