package vm

import "math"

// Color is a hue/saturation/brightness triple. Hue is in degrees [0,360);
// saturation and brightness are percentages [0,100].
type Color struct {
	Hue        float64
	Saturation float64
	Brightness float64
}

// RGB is a color with 0..255 channels.
type RGB struct {
	R, G, B float64
}

// HSBToRGB converts c to RGB. Hue is wrapped into [0,360) first.
func HSBToRGB(c Color) RGB {
	h := math.Mod(c.Hue, 360)
	if h < 0 {
		h += 360
	}
	s := clampFloat(c.Saturation/100, 0, 1)
	v := clampFloat(c.Brightness/100, 0, 1)

	chroma := v * s
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - chroma

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = chroma, x, 0
	case h < 120:
		r, g, b = x, chroma, 0
	case h < 180:
		r, g, b = 0, chroma, x
	case h < 240:
		r, g, b = 0, x, chroma
	case h < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}
	return RGB{R: (r + m) * 255, G: (g + m) * 255, B: (b + m) * 255}
}

// RGBToHSB converts c to hue/saturation/brightness. Grays report hue 0.
func RGBToHSB(c RGB) Color {
	r, g, b := c.R/255, c.G/255, c.B/255
	maxc := math.Max(r, math.Max(g, b))
	minc := math.Min(r, math.Min(g, b))
	delta := maxc - minc

	var h float64
	if delta != 0 {
		switch maxc {
		case r:
			h = 60 * math.Mod((g-b)/delta, 6)
		case g:
			h = 60 * ((b-r)/delta + 2)
		default:
			h = 60 * ((r-g)/delta + 4)
		}
	}
	if h < 0 {
		h += 360
	}

	var s float64
	if maxc != 0 {
		s = delta / maxc
	}
	return Color{Hue: h, Saturation: s * 100, Brightness: maxc * 100}
}

func clampFloat(f, lo, hi float64) float64 {
	switch {
	case f < lo:
		return lo
	case f > hi:
		return hi
	}
	return f
}
