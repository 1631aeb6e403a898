package model

import (
	"hs-as-ct/internal/domain/color"
)

// Home Assistant state values
const (
	StateOn          = "on"
	StateOff         = "off"
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"
)

// Home Assistant attribute and service data keys
const (
	AttrEntityID            = "entity_id"
	AttrFriendlyName        = "friendly_name"
	AttrIcon                = "icon"
	AttrBrightness          = "brightness"
	AttrColorMode           = "color_mode"
	AttrColorTemp           = "color_temp"
	AttrColorTempKelvin     = "color_temp_kelvin"
	AttrEffect              = "effect"
	AttrEffectList          = "effect_list"
	AttrFlash               = "flash"
	AttrHSColor             = "hs_color"
	AttrMinColorTempKelvin  = "min_color_temp_kelvin"
	AttrMaxColorTempKelvin  = "max_color_temp_kelvin"
	AttrMinMireds           = "min_mireds"
	AttrMaxMireds           = "max_mireds"
	AttrSupportedColorModes = "supported_color_modes"
	AttrSupportedFeatures   = "supported_features"
	AttrTransition          = "transition"
)

const (
	ColorModeColorTemp = "color_temp"
	DefaultIcon        = "mdi:lightbulb"
)

// EntityState is a state object as stored by Home Assistant.
type EntityState struct {
	EntityID   string                 `json:"entity_id"`
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// LightAttributes is the mirrored, externally visible state of a virtual light.
// Pointer fields are nil when the value is unknown or not reported.
type LightAttributes struct {
	IsOn              *bool
	Available         bool
	Brightness        *int
	ColorTempKelvin   *int
	Effect            *string
	EffectList        []string
	SupportedFeatures *int
}

// VirtualLight is a color temperature only light backed by a hue/saturation light.
type VirtualLight struct {
	ID         string // Stable bridge identifier, e.g. "1"
	Name       string
	UniqueID   string
	ObjectID   string // Used to build published entity ids and topics
	EntityID   string // Real light
	Attributes LightAttributes
}

// NewVirtualLight creates a light from its configuration. It starts
// unavailable with an unknown power state until the first mirror.
func NewVirtualLight(cfg *LightConfig) *VirtualLight {
	return &VirtualLight{
		ID:       cfg.ID,
		Name:     cfg.Name,
		UniqueID: cfg.UniqueID,
		ObjectID: cfg.ObjectID,
		EntityID: cfg.EntityID,
	}
}

// PublishedEntityID is the entity id the light is published under.
func (l *VirtualLight) PublishedEntityID() string {
	return "light." + l.ObjectID
}

// State renders the Home Assistant state string.
func (l *VirtualLight) State() string {
	a := l.Attributes
	switch {
	case !a.Available:
		return StateUnavailable
	case a.IsOn == nil:
		return StateUnknown
	case *a.IsOn:
		return StateOn
	default:
		return StateOff
	}
}

// HAAttributes renders the attribute map Home Assistant expects for a
// color_temp light.
func (l *VirtualLight) HAAttributes() map[string]interface{} {
	a := l.Attributes
	attrs := map[string]interface{}{
		AttrFriendlyName:        l.Name,
		AttrIcon:                DefaultIcon,
		AttrSupportedColorModes: []string{ColorModeColorTemp},
		AttrMinColorTempKelvin:  color.MinKelvin,
		AttrMaxColorTempKelvin:  color.MaxKelvin,
		AttrMinMireds:           int(color.KelvinToMireds(color.MaxKelvin)),
		AttrMaxMireds:           int(color.KelvinToMireds(color.MinKelvin)),
		"_" + AttrEntityID:      l.EntityID,
	}
	if a.IsOn != nil && *a.IsOn {
		attrs[AttrColorMode] = ColorModeColorTemp
	}
	if a.Brightness != nil {
		attrs[AttrBrightness] = *a.Brightness
	}
	if a.ColorTempKelvin != nil {
		attrs[AttrColorTempKelvin] = *a.ColorTempKelvin
		attrs[AttrColorTemp] = int(color.KelvinToMireds(float64(*a.ColorTempKelvin)))
	}
	if a.Effect != nil {
		attrs[AttrEffect] = *a.Effect
	}
	if a.EffectList != nil {
		attrs[AttrEffectList] = a.EffectList
	}
	if a.SupportedFeatures != nil {
		attrs[AttrSupportedFeatures] = *a.SupportedFeatures
	}
	return attrs
}
