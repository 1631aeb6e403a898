package color

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// XY is a CIE 1931 chromaticity coordinate.
type XY struct {
	X float64
	Y float64
}

// Planckian locus approximation (Kim et al.) is valid in this range.
const (
	locusMinKelvin = 1667
	locusMaxKelvin = 25000
)

// KelvinToXY places a color temperature on the Planckian locus.
func KelvinToXY(kelvin float64) XY {
	t := clamp(kelvin, locusMinKelvin, locusMaxKelvin)
	t2 := t * t
	t3 := t2 * t

	var x float64
	if t <= 4000 {
		x = -0.2661239e9/t3 - 0.2343589e6/t2 + 0.8776956e3/t + 0.179910
	} else {
		x = -3.0258469e9/t3 + 2.1070379e6/t2 + 0.2226347e3/t + 0.240390
	}

	x2 := x * x
	x3 := x2 * x

	var y float64
	switch {
	case t <= 2222:
		y = -1.1063814*x3 - 1.34811020*x2 + 2.18555832*x - 0.20219683
	case t <= 4000:
		y = -0.9549476*x3 - 1.37418593*x2 + 2.09137015*x - 0.16748867
	default:
		y = 3.0817580*x3 - 5.87338670*x2 + 3.75112997*x - 0.37001483
	}

	return XY{X: x, Y: y}
}

// XYToKelvin returns the correlated color temperature of a chromaticity
// using McCamy's approximation. It is accurate to a few Kelvin between
// 2000 K and 10000 K. Returns 0 where the formula is undefined.
func XYToKelvin(c XY) float64 {
	d := 0.1858 - c.Y
	if d == 0 {
		return 0
	}
	n := (c.X - 0.3320) / d
	cct := 437*n*n*n + 3601*n*n + 6861*n + 5517
	if math.IsNaN(cct) || math.IsInf(cct, 0) {
		return 0
	}
	return cct
}

// XYToHS converts a chromaticity at full brightness to hue/saturation.
func XYToHS(c XY) HS {
	if c.Y <= 0 {
		return HS{}
	}

	// Y is fixed at 1; hue and saturation do not depend on it.
	bigX := c.X / c.Y
	bigZ := (1 - c.X - c.Y) / c.Y

	// Wide RGB D65
	r := bigX*1.656492 - 0.354851 - bigZ*0.255038
	g := -bigX*0.707196 + 1.655397 + bigZ*0.036152
	b := bigX*0.051713 - 0.121364 + bigZ*1.011530

	rgb := colorful.LinearRgb(math.Max(r, 0), math.Max(g, 0), math.Max(b, 0))
	h, s, _ := rgb.Hsv()

	return HS{Hue: round3(h), Saturation: round3(s * 100)}
}

// HSToXY converts hue/saturation at full brightness to a chromaticity.
func HSToXY(hs HS) XY {
	h := math.Mod(hs.Hue, 360)
	if h < 0 {
		h += 360
	}
	s := clamp(hs.Saturation, 0, 100) / 100

	r, g, b := colorful.Hsv(h, s, 1).LinearRgb()

	bigX := r*0.664511 + g*0.154324 + b*0.162028
	bigY := r*0.283881 + g*0.668433 + b*0.047685
	bigZ := r*0.000088 + g*0.072310 + b*0.986039

	sum := bigX + bigY + bigZ
	if sum == 0 {
		return XY{}
	}
	return XY{X: bigX / sum, Y: bigY / sum}
}
