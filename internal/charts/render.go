package charts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Formats are the file types Save writes.
var Formats = []string{"png", "svg", "pdf"}

// Size is a chart's canvas size.
type Size struct {
	Width, Height vg.Length
}

// SizeInches converts a configured size.
func SizeInches(w, h float64) Size {
	return Size{Width: vg.Length(w) * vg.Inch, Height: vg.Length(h) * vg.Inch}
}

// Encode renders p in one format ("png", "svg", "pdf", ...).
func Encode(p *plot.Plot, size Size, format string) ([]byte, error) {
	wt, err := p.WriterTo(size.Width, size.Height, format)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Save writes p as dir/name.png, .svg and .pdf, creating dir if needed, and
// returns the paths written.
func Save(
	p *plot.Plot,
	dir, name string,
	size Size,
) (
	[]string,
	error,
) {

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	var written []string
	for _, ext := range Formats {
		file := path + "." + ext
		if err := p.Save(size.Width, size.Height, file); err != nil {
			return written, fmt.Errorf("failed to save %s: %w", file, err)
		}
		written = append(written, file)
	}

	log.Info().Str("path", path).Strs("formats", Formats).Msg("Saved chart")
	return written, nil
}
