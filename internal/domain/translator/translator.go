// Package translator converts between a color temperature only virtual light
// and the hue/saturation light behind it.
//
// TurnOn and TurnOff rewrite requests addressed to the virtual light into
// service calls for the real light. Mirror derives the virtual light's
// attributes from the real light's state. All three are pure.
package translator

import (
	"encoding/json"
	"math"

	"hs-as-ct/internal/domain/color"
)

func number(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func intAttr(attrs map[string]interface{}, key string) *int {
	f, ok := number(attrs[key])
	if !ok {
		return nil
	}
	v := int(f)
	return &v
}

func stringAttr(attrs map[string]interface{}, key string) *string {
	s, ok := attrs[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func stringsAttr(attrs map[string]interface{}, key string) []string {
	switch list := attrs[key].(type) {
	case []string:
		return append([]string(nil), list...)
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func hsAttr(attrs map[string]interface{}, key string) (color.HS, bool) {
	var pair []interface{}
	switch v := attrs[key].(type) {
	case []interface{}:
		pair = v
	case []float64:
		pair = []interface{}{}
		for _, f := range v {
			pair = append(pair, f)
		}
	default:
		return color.HS{}, false
	}
	if len(pair) != 2 {
		return color.HS{}, false
	}
	h, ok := number(pair[0])
	if !ok {
		return color.HS{}, false
	}
	s, ok := number(pair[1])
	if !ok {
		return color.HS{}, false
	}
	return color.HS{Hue: h, Saturation: s}, true
}
