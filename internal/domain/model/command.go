package model

const (
	DomainLight    = "light"
	ServiceTurnOn  = "turn_on"
	ServiceTurnOff = "turn_off"
)

// Command is a service call to forward to Home Assistant.
type Command struct {
	Domain  string
	Service string
	Data    map[string]interface{}
	// Blocking commands must be awaited by the caller; others are fire-and-forget.
	Blocking bool
}

// Target returns the entity id the command is addressed to.
func (c Command) Target() string {
	id, _ := c.Data[AttrEntityID].(string)
	return id
}
