package model

import (
	"strconv"
	"strings"
)

const DefaultName = "HS as CT Light"

type LightConfig struct {
	ID       string `yaml:"id" json:"id"`                                   // Stable bridge identifier, e.g. "1"
	Name     string `yaml:"name" json:"name"`                               // Display name
	UniqueID string `yaml:"unique_id,omitempty" json:"unique_id,omitempty"` // Optional registry id
	EntityID string `yaml:"entity_id" json:"entity_id"`                     // Real hue/saturation light
	ObjectID string `yaml:"object_id,omitempty" json:"object_id,omitempty"` // Published as light.<object_id>
}

type Config struct {
	HassURL   string         `yaml:"hass_url" json:"hass_url"`
	HassToken string         `yaml:"hass_token" json:"hass_token"`
	LocalIP   string         `yaml:"local_ip,omitempty" json:"local_ip,omitempty"`
	Lights    []*LightConfig `yaml:"lights" json:"lights"` // Ordered slice
}

// Normalize fills in defaults: names, sequential ids for lights that have
// none and object ids derived from the name. A derived object id that is
// already taken gets a numeric suffix (desk, desk_2, ...). Lights without an
// entity id are dropped.
func (c *Config) Normalize() {
	lights := make([]*LightConfig, 0, len(c.Lights))
	used := make(map[string]bool)
	objects := make(map[string]bool)
	for _, l := range c.Lights {
		if l == nil || l.EntityID == "" {
			continue
		}
		if l.ID != "" {
			used[l.ID] = true
		}
		if l.ObjectID != "" {
			objects[l.ObjectID] = true
		}
		lights = append(lights, l)
	}

	next := 1
	for _, l := range lights {
		if l.Name == "" {
			l.Name = DefaultName
		}
		if l.ObjectID == "" {
			base := Slugify(l.Name)
			l.ObjectID = base
			for n := 2; objects[l.ObjectID]; n++ {
				l.ObjectID = base + "_" + strconv.Itoa(n)
			}
			objects[l.ObjectID] = true
		}
		if l.ID == "" {
			for used[strconv.Itoa(next)] {
				next++
			}
			l.ID = strconv.Itoa(next)
			used[l.ID] = true
		}
	}
	c.Lights = lights
}

// Slugify turns a display name into an entity object id.
func Slugify(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
