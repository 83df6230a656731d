package stats

import (
	"errors"
	"fmt"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KPI holds the card values for the n best-ranked shoes. Aggregates over a
// column with no values are zero.
type KPI struct {
	N         int     `json:"n"`
	MaxPrice  float64 `json:"max_price"`
	MeanPrice float64 `json:"mean_price"`
	MeanRank  float64 `json:"mean_rank"`
	TopColor  string  `json:"top_color"`
	TopShoe   string  `json:"top_shoe"`
	TopLink   string  `json:"top_link"`
}

// Summarize computes the KPI over exactly the first n rows by ascending rank.
// n beyond the dataset is clamped.
func Summarize(f *dataset.Frame, n int) (KPI, error) {
	top, err := f.Top(n)
	if err != nil {
		return KPI{}, err
	}

	kpi := KPI{N: top.Len()}
	if top.Has(dataset.Price) {
		prices, err := top.Floats(dataset.Price)
		if err != nil {
			return KPI{}, err
		}
		if len(prices) > 0 {
			kpi.MaxPrice = floats.Max(prices)
			kpi.MeanPrice = stat.Mean(prices, nil)
		}
	}

	ranks, err := top.Floats(dataset.Rank)
	if err != nil {
		return KPI{}, err
	}
	if len(ranks) > 0 {
		kpi.MeanRank = stat.Mean(ranks, nil)
	}

	if top.Has(dataset.MainColor) {
		kpi.TopColor, err = Mode(top, dataset.MainColor)
		if err != nil && !errors.Is(err, ErrTooFew) {
			return KPI{}, err
		}
	}

	best := top.Shoes()[0]
	kpi.TopShoe, kpi.TopLink = best.Name, best.ProductLink
	return kpi, nil
}

// Mode returns the most frequent value of col. Ties go to the smallest value.
func Mode(f *dataset.Frame, col string) (string, error) {
	counts, err := f.ValueCounts(col)
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "", fmt.Errorf("mode of %s: %w", col, ErrTooFew)
	}
	return counts[0].Value, nil
}
