package dataset

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Kind(t *testing.T) {
	f := loadFixture(t)
	tests := map[string]Kind{
		Rank:          Numeric,
		Price:         Numeric,
		DaysFromMarch: Numeric,
		Designer:      Categorical,
		MainColor:     Categorical,
		ReleaseDate:   Categorical,
		SKU:           Categorical,
	}
	for col, want := range tests {
		got, err := f.Kind(col)
		require.NoError(t, err, col)
		assert.Equal(t, want, got, col)
	}

	_, err := f.Kind("Colour")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.Equal(t, "numeric", Numeric.String())
	assert.Equal(t, "categorical", Categorical.String())
}

func TestFrame_ValueCounts(t *testing.T) {
	f := loadFixture(t)
	counts, err := f.ValueCounts(MainColor)
	require.NoError(t, err)
	assert.Equal(t, []Count{{"White", 2}, {"Grey", 1}, {"Red", 1}}, counts)

	// empty technology cells are missing, not a level
	counts, err = f.ValueCounts(Technology)
	require.NoError(t, err)
	assert.Equal(t, []Count{{"Air", 2}, {"Boost", 1}}, counts)
}

func TestFrame_Levels(t *testing.T) {
	f := loadFixture(t)
	levels, err := f.Levels(Designer)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kanye West", "Peter Moore", "Tinker Hatfield"}, levels)
}

func TestFrame_Pairs(t *testing.T) {
	f := loadFixture(t)
	xs, ys, err := f.Pairs(Rank, Price)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 2, 6}, xs)
	assert.Equal(t, []float64{180, 220, 110, 140}, ys)
}

func TestFrame_Groups(t *testing.T) {
	f := loadFixture(t)
	levels, groups, err := f.Groups(Designer, Price)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kanye West", "Peter Moore", "Tinker Hatfield"}, levels)
	assert.Equal(t, []float64{180, 110}, groups["Peter Moore"])
	assert.Equal(t, []float64{220}, groups["Kanye West"])
}

func TestFrame_Filter(t *testing.T) {
	f := loadFixture(t)

	tests := []struct {
		name    string
		filters []Equality
		want    int
	}{
		{"all", []Equality{{Designer, ""}}, 4},
		{"designer", []Equality{{Designer, "Peter Moore"}}, 2},
		{"designer and colour", []Equality{{Designer, "Peter Moore"}, {MainColor, "White"}}, 1},
		{"numeric", []Equality{{Rank, "3"}}, 1},
		{"numeric text", []Equality{{Rank, "three"}}, 0},
		{"no match", []Equality{{MainColor, "Purple"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := f.Filter(tt.filters...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Len())
		})
	}

	_, err := f.Filter(Equality{"Colour", "Red"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestFrame_Top(t *testing.T) {
	f := loadFixture(t)

	top, err := f.Top(2)
	require.NoError(t, err)
	names, err := top.Strings(Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"Air Jordan 1", "Dunk Low"}, names)

	top, err = f.Top(50)
	require.NoError(t, err)
	assert.Equal(t, 4, top.Len())

	_, err = f.Top(0)
	assert.Error(t, err)

	_, err = Empty("x").Top(3)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestFrame_Shoes(t *testing.T) {
	f := loadFixture(t)
	shoes := f.Shoes()
	require.Len(t, shoes, 4)

	first := shoes[0]
	assert.Equal(t, "Air Jordan 1", first.Name)
	assert.Equal(t, "555088-101", first.SKU)
	assert.Equal(t, 1.0, first.Rank)
	assert.Equal(t, 180.0, first.Price)
	assert.Equal(t, -30, first.DaysFromMarch)
	assert.Equal(t, "Red", first.MainColor)
	assert.Equal(t, "https://www.goat.com/sneakers/air-jordan-1", first.ProductLink)
	assert.Empty(t, shoes[2].Technology)

	rebuilt, err := FromShoes(shoes, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, shoes, rebuilt.Shoes())
}

func TestFrame_ShoesMissingColumns(t *testing.T) {
	f, err := FromRecords([][]string{
		{"rank", "price", "ReleaseDate"},
		{"1", "100", "2025-03-30"},
	}, DefaultOptions())
	require.NoError(t, err)

	shoes := f.Shoes()
	require.Len(t, shoes, 1)
	assert.Empty(t, shoes[0].Name)
	assert.Equal(t, -1, shoes[0].DaysFromMarch)
	assert.False(t, math.IsNaN(shoes[0].Price))
}

func TestFrame_Empty(t *testing.T) {
	f := Empty("cleaned_dataset.csv")
	assert.True(t, f.IsEmpty())
	assert.Nil(t, f.Shoes())
	assert.ErrorIs(t, f.WriteCSV(&bytes.Buffer{}), ErrEmpty)

	var nilFrame *Frame
	assert.Equal(t, 0, nilFrame.Len())
}

func TestFrame_WriteCSV(t *testing.T) {
	f := loadFixture(t)
	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))

	reloaded, err := Read(&buf, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, f.Len(), reloaded.Len())
	assert.Equal(t, f.Columns(), reloaded.Columns())
}

func TestElemString(t *testing.T) {
	f, err := FromRecords([][]string{
		{"rank", "price", "ReleaseDate"},
		{"7", "99.5", "2025-03-30"},
	}, DefaultOptions())
	require.NoError(t, err)

	ranks, err := f.Strings(Rank)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, ranks)

	prices, err := f.Strings(Price)
	require.NoError(t, err)
	assert.Equal(t, []string{"99.5"}, prices)
}
