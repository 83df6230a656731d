//go:build gnuplot

package gnuplot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/trend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shoes = `shoe,rank,price,ReleaseDate,MainColor,Designer
Dunk Low,2,110,2021-03-10,White,A
Air Jordan 1,1,180,2025-03-01,Red,A
Yeezy 350,6,220,2015-06-27,Grey,B
Gel Lyte,10,120,2019-01-01,Red,C
`

func frame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.Read(strings.NewReader(shoes), dataset.DefaultOptions())
	require.NoError(t, err)
	return f
}

func TestPoints_NeedsNumericColumns(t *testing.T) {
	_, _, err := Points(frame(t), dataset.MainColor, dataset.Price)
	assert.ErrorContains(t, err, "numeric")

	xs, ys, err := Points(frame(t), dataset.Rank, dataset.Price)
	require.NoError(t, err)
	assert.Len(t, xs, 4)
	assert.Len(t, ys, 4)
}

func TestScatter_WritesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scatter.png")
	require.NoError(t, Scatter(frame(t), dataset.Rank, dataset.Price, trend.Linear, out))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
