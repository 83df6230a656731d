package charts

import "image/color"

var light = []color.RGBA{
	{R: 31, G: 211, B: 172, A: 255},
	{R: 255, G: 122, B: 180, A: 255},
	{R: 122, G: 156, B: 255, A: 255},
	{R: 255, G: 193, B: 122, A: 255},
	{R: 188, G: 117, B: 255, A: 255},
	{R: 234, G: 156, B: 172, A: 255},
	{R: 1, G: 56, B: 84, A: 255},
	{R: 46, G: 140, B: 60, A: 255},
	{R: 140, G: 46, B: 49, A: 255},
	{R: 122, G: 41, B: 104, A: 255},
	{R: 41, G: 122, B: 100, A: 255},
	{R: 122, G: 90, B: 41, A: 255},
	{R: 91, G: 22, B: 22, A: 255},
	{R: 22, G: 44, B: 91, A: 255},
	{R: 59, G: 17, B: 66, A: 255},
	{R: 27, G: 150, B: 146, A: 255},
	{R: 255, G: 102, B: 102, A: 255},
}

var dark = []color.RGBA{
	{R: 27, G: 170, B: 139, A: 255},
	{R: 201, G: 104, B: 146, A: 255},
	{R: 99, G: 124, B: 198, A: 255},
	{R: 183, G: 139, B: 89, A: 255},
	{R: 188, G: 117, B: 255, A: 255},
	{R: 234, G: 156, B: 172, A: 255},
	{R: 1, G: 56, B: 84, A: 255},
	{R: 46, G: 140, B: 60, A: 255},
	{R: 140, G: 46, B: 49, A: 255},
	{R: 122, G: 41, B: 104, A: 255},
	{R: 41, G: 122, B: 100, A: 255},
	{R: 122, G: 90, B: 41, A: 255},
	{R: 91, G: 22, B: 22, A: 255},
	{R: 22, G: 44, B: 91, A: 255},
	{R: 59, G: 17, B: 66, A: 255},
	{R: 18, G: 102, B: 99, A: 255},
	{R: 255, G: 102, B: 102, A: 255},
}

// palette returns the brush'th series colour. Fills use the light shade and
// outlines and lines the dark one. Brushes wrap around.
func palette(
	brush int,
	shade bool,
) (
	color.RGBA,
) {

	if brush < 0 {
		brush = -brush
	}
	if shade {
		return dark[brush%len(dark)]
	}
	return light[brush%len(light)]
}
