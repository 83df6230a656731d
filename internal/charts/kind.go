package charts

import "github.com/HamletTheHamster/goat-explorer/internal/dataset"

// Kind is the chart type drawn for a column or a pair of columns.
type Kind string

const (
	HistogramChart Kind = "histogram"
	CountChart     Kind = "count"
	ScatterChart   Kind = "scatter"
	BoxChart       Kind = "box"
	ViolinChart    Kind = "violin"
	CrosstabChart  Kind = "crosstab"
)

// SingleKind picks the one-column chart: a histogram for numbers, a count
// bar chart for categories.
func SingleKind(k dataset.Kind) Kind {
	if k == dataset.Numeric {
		return HistogramChart
	}
	return CountChart
}

// PairKind picks the two-column chart. A categorical and a numeric column in
// either order give a box plot, or a violin plot when violin is set.
func PairKind(x, y dataset.Kind, violin bool) Kind {
	switch {
	case x == dataset.Numeric && y == dataset.Numeric:
		return ScatterChart
	case x == dataset.Categorical && y == dataset.Categorical:
		return CrosstabChart
	case violin:
		return ViolinChart
	default:
		return BoxChart
	}
}
