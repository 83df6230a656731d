// Package charts renders the dashboard's plots with gonum/plot.
package charts

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Style controls sizing. Slide enlarges every font for projection.
type Style struct {
	Slide bool
}

func prepPlot(
	title, xlabel, ylabel string,
	style Style,
) (
	*plot.Plot,
) {

	p := plot.New()
	p.BackgroundColor = color.White
	p.Title.Text = title
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"

	p.X.Label.Text = xlabel
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.LineStyle.Width = vg.Points(1.5)
	p.X.Tick.LineStyle.Width = vg.Points(1.5)
	p.X.Tick.Label.Font.Variant = "Sans"

	p.Y.Label.Text = ylabel
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.LineStyle.Width = vg.Points(1.5)
	p.Y.Tick.LineStyle.Width = vg.Points(1.5)
	p.Y.Tick.Label.Font.Variant = "Sans"

	p.Legend.TextStyle.Font.Variant = "Sans"
	p.Legend.Top = true
	p.Legend.Padding = vg.Points(4)
	p.Legend.ThumbnailWidth = vg.Points(20)

	if style.Slide {
		p.Title.TextStyle.Font.Size = 32
		p.Title.Padding = font.Length(24)
		p.X.Label.TextStyle.Font.Size = 24
		p.X.Label.Padding = font.Length(12)
		p.X.Tick.Label.Font.Size = 20
		p.Y.Label.TextStyle.Font.Size = 24
		p.Y.Label.Padding = font.Length(12)
		p.Y.Tick.Label.Font.Size = 20
		p.Legend.TextStyle.Font.Size = 20
	} else {
		p.Title.TextStyle.Font.Size = 16
		p.Title.Padding = font.Length(10)
		p.X.Label.TextStyle.Font.Size = 12
		p.X.Label.Padding = font.Length(6)
		p.X.Tick.Label.Font.Size = 10
		p.Y.Label.TextStyle.Font.Size = 12
		p.Y.Label.Padding = font.Length(6)
		p.Y.Tick.Label.Font.Size = 10
		p.Legend.TextStyle.Font.Size = 10
	}

	return p
}

// rotateXLabels tilts category labels 45° so long names do not collide.
func rotateXLabels(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

// enclose draws the top and right borders. It must run after every data
// plotter has been added so the axis ranges are final, and only on
// continuous axes.
func enclose(p *plot.Plot) error {
	top, err := plotter.NewLine(plotter.XYs{
		{X: p.X.Min, Y: p.Y.Max},
		{X: p.X.Max, Y: p.Y.Max},
	})
	if err != nil {
		return err
	}
	right, err := plotter.NewLine(plotter.XYs{
		{X: p.X.Max, Y: p.Y.Min},
		{X: p.X.Max, Y: p.Y.Max},
	})
	if err != nil {
		return err
	}
	top.LineStyle.Width = p.X.LineStyle.Width
	right.LineStyle.Width = p.Y.LineStyle.Width
	p.Add(top, right)
	return nil
}
