package mqtt

import (
	"context"
	"fmt"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topics   Topics
}

// NewClient configures a broker connection without opening it. The bridge
// status topic is set to online on every (re)connect and to offline by the
// will. onConnect hooks run after that, e.g. to restore subscriptions.
func NewClient(cfg ClientConfig, onConnect ...func(MQTT.Client)) MQTT.Client {
	status := cfg.Topics.Status()

	opts := MQTT.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetWill(status, PayloadOffline, qos, true)
	opts.SetOnConnectHandler(func(client MQTT.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("Connected to MQTT broker")
		client.Publish(status, qos, true, PayloadOnline)
		for _, hook := range onConnect {
			hook(client)
		}
	})
	opts.SetConnectionLostHandler(func(client MQTT.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	return MQTT.NewClient(opts)
}

// Connect opens the connection. If the broker does not answer within
// timeout the client keeps retrying in the background.
func Connect(client MQTT.Client, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		log.Warn().Msg("MQTT broker not reachable yet, retrying in background")
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Disconnect marks the bridge offline and closes the connection.
func Disconnect(client MQTT.Client, topics Topics) {
	if client.IsConnected() {
		client.Publish(topics.Status(), qos, true, PayloadOffline).WaitTimeout(time.Second)
	}
	client.Disconnect(250)
}

// wait blocks until the token completes or ctx is done.
func wait(ctx context.Context, token MQTT.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
