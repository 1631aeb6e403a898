// Package color converts between color temperature and hue/saturation.
//
// Both directions go through CIE 1931 chromaticity (x, y): temperatures are
// placed on the Planckian locus and read back with McCamy's approximation,
// while hue/saturation is mapped through the wide gamut RGB space Home
// Assistant uses for Hue bulbs.
package color

import "math"

const (
	// MinKelvin and MaxKelvin bound the range a virtual light advertises.
	MinKelvin = 2700
	MaxKelvin = 6500

	miredsPerKelvin = 1_000_000
)

// HS is a hue/saturation pair. Hue is in degrees [0, 360), saturation in
// percent [0, 100].
type HS struct {
	Hue        float64
	Saturation float64
}

// Slice returns the pair in the [h, s] form Home Assistant uses for hs_color.
func (c HS) Slice() []float64 {
	return []float64{c.Hue, c.Saturation}
}

// KelvinToHS converts a color temperature to the hue/saturation of the
// matching point on the Planckian locus.
func KelvinToHS(kelvin float64) HS {
	return XYToHS(KelvinToXY(kelvin))
}

// HSToKelvin returns the correlated color temperature of a hue/saturation
// color. Colors far from the locus still yield a number, it is just not a
// meaningful one.
func HSToKelvin(hs HS) float64 {
	return XYToKelvin(HSToXY(hs))
}

// MiredsToKelvin converts a reciprocal megakelvin value to Kelvin.
// Non-positive input yields 0.
func MiredsToKelvin(mireds float64) float64 {
	if mireds <= 0 {
		return 0
	}
	return miredsPerKelvin / mireds
}

// KelvinToMireds converts Kelvin to mireds. Non-positive input yields 0.
func KelvinToMireds(kelvin float64) float64 {
	if kelvin <= 0 {
		return 0
	}
	return miredsPerKelvin / kelvin
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
