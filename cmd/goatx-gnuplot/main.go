// Command goatx-gnuplot exports a numeric scatter of the GOAT dataset through
// gnuplot. It is a separate binary because the gnuplot bindings abort at
// startup on hosts without gnuplot installed.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HamletTheHamster/goat-explorer/internal/config"
	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/gnuplot"
	"github.com/HamletTheHamster/goat-explorer/internal/logging"
	"github.com/HamletTheHamster/goat-explorer/internal/trend"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Getenv("ENV"), os.Getenv("LOGLEVEL"))

	if err := newCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var configPath, dataPath, model, out string
	var filters []string

	cmd := &cobra.Command{
		Use:          "goatx-gnuplot <x> <y>",
		Short:        "Export a numeric scatter through gnuplot",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if dataPath != "" {
				cfg.Data.Path = dataPath
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			opts, err := cfg.DatasetOptions()
			if err != nil {
				return err
			}
			f, err := dataset.Load(cfg.Data.Path, opts)
			if err != nil {
				return err
			}
			for _, raw := range filters {
				col, value, ok := strings.Cut(raw, "=")
				if !ok || col == "" {
					return fmt.Errorf("filter %q is not column=value", raw)
				}
				if f, err = f.Filter(dataset.Equality{Column: dataset.Canonical(col), Value: value}); err != nil {
					return err
				}
			}

			var m trend.Model
			if model != "" {
				if m, err = trend.ParseModel(model); err != nil {
					return err
				}
			}
			x, y := dataset.Canonical(args[0]), dataset.Canonical(args[1])
			if out == "" {
				out = filepath.Join(cfg.Charts.OutDir, "gnuplot-"+y+"-vs-"+x+".png")
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := gnuplot.Scatter(f, x, y, m, out); err != nil {
				return err
			}
			log.Info().Str("path", out).Msg("Saved gnuplot chart")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "goatx.yaml", "config file (YAML); missing means defaults")
	cmd.Flags().StringVar(&dataPath, "data", "", "dataset CSV (overrides config)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "keep rows where column=value (repeatable)")
	cmd.Flags().StringVar(&model, "trend", "", "trend line: linear, exp, lorentzian")
	cmd.Flags().StringVar(&out, "out", "", "output PNG path")
	return cmd
}
