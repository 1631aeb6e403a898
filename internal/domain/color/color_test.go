package color

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKelvinToHS_Reference(t *testing.T) {
	hs := KelvinToHS(4000)
	assert.InDelta(t, 42.551, hs.Hue, 0.01)
	assert.InDelta(t, 26.061, hs.Saturation, 0.01)

	warm := KelvinToHS(2700)
	assert.InDelta(t, 38.594, warm.Hue, 0.01)
	assert.InDelta(t, 53.328, warm.Saturation, 0.01)

	// Cooler than the white point the locus turns blue.
	cool := KelvinToHS(6500)
	assert.InDelta(t, 210.935, cool.Hue, 0.05)
	assert.InDelta(t, 4.207, cool.Saturation, 0.01)
}

func TestKelvinToHS_Clamped(t *testing.T) {
	assert.Equal(t, KelvinToHS(locusMinKelvin), KelvinToHS(500))
	assert.Equal(t, KelvinToHS(locusMaxKelvin), KelvinToHS(90000))
}

func TestKelvinToHS_SaturationFallsTowardsWhite(t *testing.T) {
	prev := KelvinToHS(2000).Saturation
	for k := 2500.0; k <= 5500; k += 500 {
		s := KelvinToHS(k).Saturation
		assert.Less(t, s, prev, "saturation at %vK", k)
		prev = s
	}
}

func TestKelvinRoundTrip(t *testing.T) {
	for k := 2000.0; k <= MaxKelvin; k += 100 {
		got := HSToKelvin(KelvinToHS(k))
		assert.InDelta(t, k, got, 25, "round trip of %vK", k)
	}
}

func TestHSRoundTrip(t *testing.T) {
	for k := 2000.0; k <= MaxKelvin; k += 250 {
		hs := KelvinToHS(k)
		back := KelvinToHS(HSToKelvin(hs))
		assert.InDelta(t, hs.Hue, back.Hue, 1, "hue at %vK", k)
		assert.InDelta(t, hs.Saturation, back.Saturation, 1, "saturation at %vK", k)
	}
}

func TestHSToKelvin(t *testing.T) {
	tests := []struct {
		name string
		hs   HS
		want float64
	}{
		{"white", HS{0, 0}, 5976},
		{"warm orange", HS{30, 50}, 2391},
		{"hue wraps", HS{390, 50}, 2391},
		{"negative hue wraps", HS{-330, 50}, 2391},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HSToKelvin(tt.hs), 1)
		})
	}
}

func TestHSToKelvin_NeverNaN(t *testing.T) {
	for h := 0.0; h < 360; h += 15 {
		for s := 0.0; s <= 100; s += 10 {
			k := HSToKelvin(HS{h, s})
			assert.False(t, math.IsNaN(k), "h=%v s=%v", h, s)
			assert.False(t, math.IsInf(k, 0), "h=%v s=%v", h, s)
		}
	}
}

func TestXYToKelvin_Undefined(t *testing.T) {
	assert.Equal(t, 0.0, XYToKelvin(XY{X: 0.3, Y: 0.1858}))
}

func TestXYToHS_Degenerate(t *testing.T) {
	assert.Equal(t, HS{}, XYToHS(XY{X: 0.3, Y: 0}))
}

func TestMireds(t *testing.T) {
	assert.Equal(t, 4000.0, MiredsToKelvin(250))
	assert.Equal(t, 250.0, KelvinToMireds(4000))
	assert.Equal(t, 0.0, MiredsToKelvin(0))
	assert.Equal(t, 0.0, KelvinToMireds(-1))
	assert.Equal(t, KelvinToHS(4000), KelvinToHS(MiredsToKelvin(250)))
}

func TestHSSlice(t *testing.T) {
	assert.Equal(t, []float64{12.5, 80}, HS{12.5, 80}.Slice())
}
