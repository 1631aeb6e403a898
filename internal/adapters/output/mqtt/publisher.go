package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"hs-as-ct/internal/domain/color"
	"hs-as-ct/internal/domain/model"
)

const qos = 1

type availability struct {
	Topic string `json:"topic"`
}

type device struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
}

// discovery is the JSON schema light config understood by Home Assistant.
type discovery struct {
	Name                string         `json:"name"`
	UniqueID            string         `json:"unique_id"`
	ObjectID            string         `json:"object_id"`
	Icon                string         `json:"icon"`
	Schema              string         `json:"schema"`
	StateTopic          string         `json:"state_topic"`
	CommandTopic        string         `json:"command_topic"`
	Availability        []availability `json:"availability"`
	AvailabilityMode    string         `json:"availability_mode"`
	Brightness          bool           `json:"brightness"`
	SupportedColorModes []string       `json:"supported_color_modes"`
	ColorTempKelvin     bool           `json:"color_temp_kelvin"`
	MinKelvin           int            `json:"min_kelvin"`
	MaxKelvin           int            `json:"max_kelvin"`
	Effect              bool           `json:"effect"`
	EffectList          []string       `json:"effect_list,omitempty"`
	Flash               bool           `json:"flash"`
	Transition          bool           `json:"transition"`
	Device              device         `json:"device"`
}

// statePayload is the JSON schema state message. State is nil while the
// real light's power state is unknown.
type statePayload struct {
	State      *string `json:"state"`
	Brightness *int    `json:"brightness,omitempty"`
	ColorMode  string  `json:"color_mode,omitempty"`
	ColorTemp  *int    `json:"color_temp,omitempty"`
	Effect     *string `json:"effect,omitempty"`
}

// Publisher exposes virtual lights through MQTT discovery.
type Publisher struct {
	client MQTT.Client
	topics Topics

	mu        sync.Mutex
	announced map[string][]string // object id -> effect list in the last config
}

func NewPublisher(client MQTT.Client, topics Topics) *Publisher {
	return &Publisher{
		client:    client,
		topics:    topics,
		announced: make(map[string][]string),
	}
}

// Announce publishes the retained discovery config.
func (p *Publisher) Announce(ctx context.Context, light *model.VirtualLight) error {
	payload, err := json.Marshal(p.discovery(light))
	if err != nil {
		return err
	}

	if err := wait(ctx, p.client.Publish(p.topics.Config(light.ObjectID), qos, true, payload)); err != nil {
		return fmt.Errorf("announce %s: %w", light.ObjectID, err)
	}

	p.mu.Lock()
	p.announced[light.ObjectID] = slices.Clone(light.Attributes.EffectList)
	p.mu.Unlock()

	log.Debug().
		Str("light", light.ID).
		Str("topic", p.topics.Config(light.ObjectID)).
		Msg("Announced light")
	return nil
}

// Publish sends availability and state, re-announcing first when the
// effect list changed.
func (p *Publisher) Publish(ctx context.Context, light *model.VirtualLight) error {
	p.mu.Lock()
	effects, known := p.announced[light.ObjectID]
	p.mu.Unlock()
	if !known || !slices.Equal(effects, light.Attributes.EffectList) {
		if err := p.Announce(ctx, light); err != nil {
			return err
		}
	}

	avail := PayloadOffline
	if light.Attributes.Available {
		avail = PayloadOnline
	}
	if err := wait(ctx, p.client.Publish(p.topics.Availability(light.ObjectID), qos, true, avail)); err != nil {
		return fmt.Errorf("publish availability of %s: %w", light.ObjectID, err)
	}

	payload, err := json.Marshal(newStatePayload(light.Attributes))
	if err != nil {
		return err
	}
	if err := wait(ctx, p.client.Publish(p.topics.State(light.ObjectID), qos, true, payload)); err != nil {
		return fmt.Errorf("publish state of %s: %w", light.ObjectID, err)
	}
	return nil
}

// Withdraw clears the retained config and state, removing the entity.
func (p *Publisher) Withdraw(ctx context.Context, light *model.VirtualLight) error {
	p.mu.Lock()
	delete(p.announced, light.ObjectID)
	p.mu.Unlock()

	for _, topic := range []string{
		p.topics.Config(light.ObjectID),
		p.topics.State(light.ObjectID),
		p.topics.Availability(light.ObjectID),
	} {
		if err := wait(ctx, p.client.Publish(topic, qos, true, "")); err != nil {
			return fmt.Errorf("withdraw %s: %w", light.ObjectID, err)
		}
	}

	log.Debug().Str("light", light.ID).Msg("Withdrew light")
	return nil
}

func (p *Publisher) discovery(light *model.VirtualLight) discovery {
	uniqueID := light.UniqueID
	if uniqueID == "" {
		uniqueID = "hsasct_" + light.ObjectID
	}

	return discovery{
		Name:         light.Name,
		UniqueID:     uniqueID,
		ObjectID:     light.ObjectID,
		Icon:         model.DefaultIcon,
		Schema:       "json",
		StateTopic:   p.topics.State(light.ObjectID),
		CommandTopic: p.topics.Command(light.ObjectID),
		Availability: []availability{
			{Topic: p.topics.Status()},
			{Topic: p.topics.Availability(light.ObjectID)},
		},
		AvailabilityMode:    "all",
		Brightness:          true,
		SupportedColorModes: []string{model.ColorModeColorTemp},
		ColorTempKelvin:     true,
		MinKelvin:           color.MinKelvin,
		MaxKelvin:           color.MaxKelvin,
		Effect:              len(light.Attributes.EffectList) > 0,
		EffectList:          light.Attributes.EffectList,
		Flash:               true,
		Transition:          true,
		Device: device{
			Name:         light.Name,
			Identifiers:  []string{uniqueID},
			Manufacturer: "hs-as-ct",
			Model:        "Color temperature adapter for " + light.EntityID,
		},
	}
}

func newStatePayload(a model.LightAttributes) statePayload {
	var s statePayload
	if a.IsOn != nil {
		state := "OFF"
		if *a.IsOn {
			state = "ON"
			s.ColorMode = model.ColorModeColorTemp
		}
		s.State = &state
	}
	s.Brightness = a.Brightness
	s.ColorTemp = a.ColorTempKelvin
	s.Effect = a.Effect
	return s
}
