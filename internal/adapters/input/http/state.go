package http

import (
	"fmt"

	"hs-as-ct/internal/domain/model"
)

// stateChange is a Hue state update translated into a light request.
type stateChange struct {
	off     bool
	request map[string]interface{}
	applied map[string]interface{} // Hue attribute -> value, echoed back
}

// parseStateUpdate maps a PUT /lights/<id>/state body onto a turn_on or
// turn_off request. ct stays in mireds; transitiontime is converted from
// deciseconds to seconds. Unsupported attributes are ignored.
func parseStateUpdate(update map[string]interface{}, current *model.VirtualLight) (stateChange, error) {
	change := stateChange{
		request: make(map[string]interface{}),
		applied: make(map[string]interface{}),
	}

	if v, ok := update["on"]; ok {
		on, ok := v.(bool)
		if !ok {
			return change, invalidValue("on", v)
		}
		change.off = !on
		change.applied["on"] = on
	}

	if v, ok := update["transitiontime"]; ok {
		ds, ok := v.(float64)
		if !ok || ds < 0 {
			return change, invalidValue("transitiontime", v)
		}
		change.request[model.AttrTransition] = ds / 10
		change.applied["transitiontime"] = ds
	}

	if change.off {
		return change, nil
	}

	a := current.Attributes

	if v, ok := update["bri"]; ok {
		bri, ok := v.(float64)
		if !ok || bri < 0 || bri > 255 {
			return change, invalidValue("bri", v)
		}
		b := clampInt(int(bri), minBri, maxBri)
		change.request[model.AttrBrightness] = hueToHABri(b)
		change.applied["bri"] = b
	} else if v, ok := update["bri_inc"]; ok {
		inc, ok := v.(float64)
		if !ok {
			return change, invalidValue("bri_inc", v)
		}
		b := maxBri
		if a.Brightness != nil {
			b = haToHueBri(*a.Brightness)
		}
		b = clampInt(b+int(inc), minBri, maxBri)
		change.request[model.AttrBrightness] = hueToHABri(b)
		change.applied["bri"] = b
	}

	if v, ok := update["ct"]; ok {
		ct, ok := v.(float64)
		if !ok || ct <= 0 {
			return change, invalidValue("ct", v)
		}
		c := clampInt(int(ct), minCt, maxCt)
		change.request[model.AttrColorTemp] = c
		change.applied["ct"] = c
	} else if v, ok := update["ct_inc"]; ok {
		inc, ok := v.(float64)
		if !ok {
			return change, invalidValue("ct_inc", v)
		}
		c := maxCt
		if a.ColorTempKelvin != nil {
			c = kelvinToCt(float64(*a.ColorTempKelvin))
		}
		c = clampInt(c+int(inc), minCt, maxCt)
		change.request[model.AttrColorTemp] = c
		change.applied["ct"] = c
	}

	if v, ok := update["effect"]; ok {
		effect, ok := v.(string)
		if !ok {
			return change, invalidValue("effect", v)
		}
		if effect != "none" {
			change.request[model.AttrEffect] = effect
		}
		change.applied["effect"] = effect
	}

	if v, ok := update["alert"]; ok {
		alert, ok := v.(string)
		if !ok {
			return change, invalidValue("alert", v)
		}
		switch alert {
		case "select":
			change.request[model.AttrFlash] = "short"
		case "lselect":
			change.request[model.AttrFlash] = "long"
		}
		change.applied["alert"] = alert
	}

	return change, nil
}

func invalidValue(attr string, v interface{}) error {
	return fmt.Errorf("invalid value, %v, for parameter, %s", v, attr)
}
