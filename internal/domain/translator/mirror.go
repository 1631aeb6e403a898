package translator

import (
	"hs-as-ct/internal/domain/color"
	"hs-as-ct/internal/domain/model"
)

// Mirror computes the virtual light's attributes from the real light's
// state. A nil state means the real light is unknown to Home Assistant: the
// power state becomes unknown and everything else is kept from prev.
func Mirror(prev model.LightAttributes, state *model.EntityState) model.LightAttributes {
	next := prev
	if state == nil {
		next.IsOn = nil
		return next
	}

	if state.State == model.StateUnknown {
		next.IsOn = nil
	} else {
		on := state.State == model.StateOn
		next.IsOn = &on
	}

	next.Available = state.State != model.StateUnavailable

	attrs := state.Attributes
	next.Brightness = intAttr(attrs, model.AttrBrightness)

	next.ColorTempKelvin = nil
	if hs, ok := hsAttr(attrs, model.AttrHSColor); ok {
		if k := int(color.HSToKelvin(hs)); k > 0 {
			next.ColorTempKelvin = &k
		}
	}

	next.Effect = stringAttr(attrs, model.AttrEffect)
	next.EffectList = stringsAttr(attrs, model.AttrEffectList)
	next.SupportedFeatures = intAttr(attrs, model.AttrSupportedFeatures)

	return next
}
