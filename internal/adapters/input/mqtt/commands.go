package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	mqttout "hs-as-ct/internal/adapters/output/mqtt"
	"hs-as-ct/internal/domain/model"
	"hs-as-ct/internal/ports"
)

// commandPayload is a JSON schema light command. color_temp is in Kelvin
// since lights are announced with color_temp_kelvin.
type commandPayload struct {
	State      string   `json:"state"`
	Brightness *int     `json:"brightness"`
	ColorTemp  *float64 `json:"color_temp"`
	Effect     *string  `json:"effect"`
	Flash      *string  `json:"flash"`
	Transition *float64 `json:"transition"`
}

// CommandHandler turns messages on the command topics into bridge calls.
type CommandHandler struct {
	bridge  ports.BridgePort
	topics  mqttout.Topics
	timeout time.Duration
}

func NewCommandHandler(bridge ports.BridgePort, topics mqttout.Topics) *CommandHandler {
	return &CommandHandler{
		bridge:  bridge,
		topics:  topics,
		timeout: 10 * time.Second,
	}
}

// Subscribe listens on every light's command topic. Register it as an
// on-connect hook so the subscription survives reconnects.
func (h *CommandHandler) Subscribe(client MQTT.Client) {
	filter := h.topics.CommandFilter()
	token := client.Subscribe(filter, 1, h.handle)
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", filter).Msg("Subscribe failed")
		return
	}
	log.Debug().Str("topic", filter).Msg("Subscribed to light commands")
}

func (h *CommandHandler) handle(_ MQTT.Client, msg MQTT.Message) {
	objectID, ok := h.topics.ObjectID(msg.Topic())
	if !ok {
		return
	}

	var cmd commandPayload
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Malformed light command")
		return
	}

	// Off the router goroutine: turn_off blocks until Home Assistant answers.
	go h.run(objectID, cmd)
}

func (h *CommandHandler) run(objectID string, cmd commandPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.execute(ctx, objectID, cmd); err != nil {
		log.Warn().Err(err).Str("object_id", objectID).Msg("Light command failed")
	}
}

// execute dispatches one command to the light published as objectID.
func (h *CommandHandler) execute(ctx context.Context, objectID string, cmd commandPayload) error {
	id, err := h.lightID(ctx, objectID)
	if err != nil {
		return err
	}

	request := make(map[string]interface{})
	if cmd.Transition != nil {
		request[model.AttrTransition] = *cmd.Transition
	}

	if strings.EqualFold(cmd.State, "OFF") {
		return h.bridge.TurnOff(ctx, id, request)
	}

	if cmd.Brightness != nil {
		request[model.AttrBrightness] = *cmd.Brightness
	}
	if cmd.ColorTemp != nil {
		request[model.AttrColorTempKelvin] = *cmd.ColorTemp
	}
	if cmd.Effect != nil {
		request[model.AttrEffect] = *cmd.Effect
	}
	if cmd.Flash != nil {
		request[model.AttrFlash] = *cmd.Flash
	}
	return h.bridge.TurnOn(ctx, id, request)
}

var errUnknownObject = errors.New("no light with this object id")

func (h *CommandHandler) lightID(ctx context.Context, objectID string) (string, error) {
	lights, err := h.bridge.GetLights(ctx)
	if err != nil {
		return "", err
	}
	for _, l := range lights {
		if l.ObjectID == objectID {
			return l.ID, nil
		}
	}
	return "", errUnknownObject
}
