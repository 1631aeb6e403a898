package translator

import (
	"hs-as-ct/internal/domain/color"
	"hs-as-ct/internal/domain/model"
)

// Fields of a turn_on request forwarded to the real light as they are.
var forwardedAttributes = []string{
	model.AttrBrightness,
	model.AttrEffect,
	model.AttrFlash,
	model.AttrTransition,
}

// TurnOn rewrites a turn_on request for the virtual light into a turn_on
// call for the real light. Color temperature, given in Kelvin or mireds, is
// replaced by the equivalent hs_color; unknown fields are dropped.
func TurnOn(entityID string, request map[string]interface{}) model.Command {
	data := make(map[string]interface{}, len(forwardedAttributes)+2)
	for _, key := range forwardedAttributes {
		if v, ok := request[key]; ok {
			data[key] = v
		}
	}
	data[model.AttrEntityID] = entityID

	if kelvin, ok := TargetKelvin(request); ok {
		data[model.AttrHSColor] = color.KelvinToHS(kelvin).Slice()
	}

	return model.Command{
		Domain:  model.DomainLight,
		Service: model.ServiceTurnOn,
		Data:    data,
	}
}

// TurnOff forwards a turn_off request, keeping only the transition.
// The returned command is blocking.
func TurnOff(entityID string, request map[string]interface{}) model.Command {
	data := map[string]interface{}{model.AttrEntityID: entityID}
	if v, ok := request[model.AttrTransition]; ok {
		data[model.AttrTransition] = v
	}

	return model.Command{
		Domain:   model.DomainLight,
		Service:  model.ServiceTurnOff,
		Data:     data,
		Blocking: true,
	}
}

// TargetKelvin resolves the requested color temperature. color_temp_kelvin
// wins over color_temp (mireds). Missing, non-numeric and non-positive
// values are ignored.
func TargetKelvin(request map[string]interface{}) (float64, bool) {
	if k, ok := number(request[model.AttrColorTempKelvin]); ok && k > 0 {
		return k, true
	}
	if m, ok := number(request[model.AttrColorTemp]); ok && m > 0 {
		return color.MiredsToKelvin(m), true
	}
	return 0, false
}
