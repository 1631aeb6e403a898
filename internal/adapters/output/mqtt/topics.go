package mqtt

import "strings"

// Topics builds the topic names for virtual lights.
type Topics struct {
	DiscoveryPrefix string // Home Assistant discovery prefix, usually "homeassistant"
	Prefix          string // Root of state and command topics
}

func (t Topics) Config(objectID string) string {
	return t.DiscoveryPrefix + "/light/" + objectID + "/config"
}

func (t Topics) State(objectID string) string {
	return t.Prefix + "/" + objectID + "/state"
}

func (t Topics) Availability(objectID string) string {
	return t.Prefix + "/" + objectID + "/availability"
}

func (t Topics) Command(objectID string) string {
	return t.Prefix + "/" + objectID + "/set"
}

// CommandFilter matches the command topic of every light.
func (t Topics) CommandFilter() string {
	return t.Prefix + "/+/set"
}

// Status is the bridge's own availability topic, carrying its will.
func (t Topics) Status() string {
	return t.Prefix + "/status"
}

// ObjectID extracts the object id from a command topic.
func (t Topics) ObjectID(commandTopic string) (string, bool) {
	rest, ok := strings.CutPrefix(commandTopic, t.Prefix+"/")
	if !ok {
		return "", false
	}
	objectID, ok := strings.CutSuffix(rest, "/set")
	if !ok || objectID == "" || strings.Contains(objectID, "/") {
		return "", false
	}
	return objectID, true
}
