package dataset

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "testdata/goat.csv"

func loadFixture(t *testing.T) *Frame {
	t.Helper()
	f, err := Load(fixture, DefaultOptions())
	require.NoError(t, err)
	return f
}

func TestLoad_CleansRows(t *testing.T) {
	f := loadFixture(t)

	// missing price and an unparsable date are dropped
	assert.Equal(t, 4, f.Len())
	assert.Equal(t, fixture, f.Source())

	names, err := f.Strings(Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"Air Jordan 1", "Yeezy Boost 350", "Dunk Low", "Air Max 1"}, names)
}

func TestLoad_NormalisesAliases(t *testing.T) {
	f := loadFixture(t)
	for _, col := range []string{Name, ReleaseDate, MainColor, ProductLink, DaysFromMarch} {
		assert.True(t, f.Has(col), col)
	}
	assert.False(t, f.Has("Release.Date"))
	assert.False(t, f.Has("Main.Color"))
}

func TestLoad_DaysFromMarch(t *testing.T) {
	f := loadFixture(t)
	days, err := f.Floats(DaysFromMarch)
	require.NoError(t, err)
	assert.Equal(t, []float64{-30, -3565, -1482, 2}, days)
}

func TestLoad_CustomReference(t *testing.T) {
	opts := DefaultOptions()
	opts.Reference = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	f, err := Load(fixture, opts)
	require.NoError(t, err)

	days, err := f.Floats(DaysFromMarch)
	require.NoError(t, err)
	assert.Equal(t, 0.0, days[0])
	assert.Equal(t, 32.0, days[3])
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.csv")
	f, err := Load(path, DefaultOptions())
	require.ErrorIs(t, err, ErrNotFound)
	require.NotNil(t, f)
	assert.True(t, f.IsEmpty())
	assert.Equal(t, path, f.Source())
	assert.Nil(t, f.Columns())
}

func TestRead_HeaderOnly(t *testing.T) {
	f, err := Read(strings.NewReader("rank,price,ReleaseDate\n"), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty input", ""},
		{"ragged row", "rank,price,ReleaseDate\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.csv), DefaultOptions())
			assert.Error(t, err)
		})
	}
}

func TestRead_MissingRequiredColumn(t *testing.T) {
	_, err := Read(strings.NewReader("rank,ReleaseDate\n1,2024-01-01\n"), DefaultOptions())
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRead_NoRequiredColumnsKeepsRows(t *testing.T) {
	opts := DefaultOptions()
	opts.Required = nil
	f, err := Read(strings.NewReader("rank,price,ReleaseDate\n1,,garbage\n2,10,2025-03-30\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())

	days, err := f.Floats(DaysFromMarch)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1}, days)
}

func TestRead_NumericColumnsForced(t *testing.T) {
	f, err := Read(strings.NewReader("rank,price,ReleaseDate\n1,n/a,2025-03-30\n2,15.5,2025-03-29\n"), Options{})
	require.NoError(t, err)

	kind, err := f.Kind(Price)
	require.NoError(t, err)
	assert.Equal(t, Numeric, kind)

	prices, err := f.Floats(Price)
	require.NoError(t, err)
	assert.Equal(t, []float64{15.5}, prices)
}

func TestReadZip(t *testing.T) {
	data, err := os.ReadFile(fixture)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("README.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("not data"))
	require.NoError(t, err)
	w, err = zw.Create("export/goat.csv")
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	f, err := ReadZip(buf.Bytes(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())
	assert.Equal(t, "export/goat.csv", f.Source())
}

func TestReadZip_NoCSV(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("notes.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ReadZip(buf.Bytes(), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestParseDate(t *testing.T) {
	want := time.Date(2021, time.March, 10, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2021-03-10", "2021/03/10", "03/10/2021", "3/10/2021", "Mar 10, 2021", " 2021-03-10 "} {
		got, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, want, got, s)
	}
	for _, s := range []string{"", "soon", "2021-13-45"} {
		_, ok := ParseDate(s)
		assert.False(t, ok, s)
	}
}

func TestDaysBetween_Floors(t *testing.T) {
	ref := DefaultReference
	assert.Equal(t, 0, DaysBetween(ref.Add(23*time.Hour), ref))
	assert.Equal(t, -1, DaysBetween(ref.Add(-time.Hour), ref))
	assert.Equal(t, 1, DaysBetween(ref.Add(24*time.Hour), ref))
	assert.Equal(t, -1, DaysBetween(ref.Add(-24*time.Hour-time.Second), ref.Add(-time.Second)))
}

func TestDaysBetween_DistantDates(t *testing.T) {
	ref := DefaultReference
	assert.Equal(t, -118793, DaysBetween(time.Date(1700, time.January, 1, 0, 0, 0, 0, time.UTC), ref))
	assert.Equal(t, -126929, DaysBetween(time.Date(1677, time.September, 22, 0, 0, 0, 0, time.UTC), ref))
	assert.Equal(t, 86473, DaysBetween(time.Date(2262, time.January, 1, 0, 0, 0, 0, time.UTC), ref))

	opts := DefaultOptions()
	opts.Required = nil
	f, err := Read(strings.NewReader("rank,price,ReleaseDate\n1,10,1700-01-01\n2,20,2262-01-01\n"), opts)
	require.NoError(t, err)
	days, err := f.Floats(DaysFromMarch)
	require.NoError(t, err)
	assert.Equal(t, []float64{-118793, 86473}, days)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, ReleaseDate, Canonical("Release.Date"))
	assert.Equal(t, MainColor, Canonical(" main.color "))
	assert.Equal(t, Name, Canonical("name"))
	assert.Equal(t, "Designer", Canonical("Designer"))
}

func TestNormalizeHeader_KeepsTakenCanonical(t *testing.T) {
	header := []string{"ReleaseDate", "Release.Date", "Main.Color"}
	normalizeHeader(header)
	assert.Equal(t, []string{"ReleaseDate", "Release.Date", "MainColor"}, header)
}
