// Package config loads runtime settings from an optional settings file and
// the environment.
package config

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Settings are the process level options. Light definitions live in the
// file at ConfigPath.
type Settings struct {
	HassURL     string
	HassToken   string
	HassTimeout time.Duration
	LocalIP     string
	ConfigPath  string
	HTTPAddr    string

	LogLevel  string
	LogJSON   bool
	LogColors bool

	MQTTBroker          string
	MQTTUsername        string
	MQTTPassword        string
	MQTTClientID        string
	MQTTDiscoveryPrefix string
	MQTTTopicPrefix     string

	SSDPEnabled bool

	EventsMinBackoff time.Duration
	EventsMaxBackoff time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hass_url", "")
	v.SetDefault("hass_token", "")
	v.SetDefault("hass_timeout", 10*time.Second)
	v.SetDefault("local_ip", "")
	v.SetDefault("config_path", "/app/lights.yaml")
	v.SetDefault("http_addr", ":80")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("log_colors", true)
	v.SetDefault("mqtt_broker", "")
	v.SetDefault("mqtt_username", "")
	v.SetDefault("mqtt_password", "")
	v.SetDefault("mqtt_client_id", "hsasct")
	v.SetDefault("mqtt_discovery_prefix", "homeassistant")
	v.SetDefault("mqtt_topic_prefix", "hsasct")
	v.SetDefault("ssdp_enabled", true)
	v.SetDefault("events_min_backoff", time.Second)
	v.SetDefault("events_max_backoff", 2*time.Minute)
}

// Load reads settings. When file is empty, hsasct.{yaml,json,toml} is
// looked up in the working directory, ./config and /etc/hsasct; a missing
// file is not an error. Environment variables such as HASS_URL or
// MQTT_BROKER override both.
func Load(file string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("hsasct")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/hsasct")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	return &Settings{
		HassURL:             v.GetString("hass_url"),
		HassToken:           v.GetString("hass_token"),
		HassTimeout:         v.GetDuration("hass_timeout"),
		LocalIP:             v.GetString("local_ip"),
		ConfigPath:          v.GetString("config_path"),
		HTTPAddr:            v.GetString("http_addr"),
		LogLevel:            v.GetString("log_level"),
		LogJSON:             v.GetBool("log_json"),
		LogColors:           v.GetBool("log_colors"),
		MQTTBroker:          v.GetString("mqtt_broker"),
		MQTTUsername:        v.GetString("mqtt_username"),
		MQTTPassword:        v.GetString("mqtt_password"),
		MQTTClientID:        v.GetString("mqtt_client_id"),
		MQTTDiscoveryPrefix: v.GetString("mqtt_discovery_prefix"),
		MQTTTopicPrefix:     v.GetString("mqtt_topic_prefix"),
		SSDPEnabled:         v.GetBool("ssdp_enabled"),
		EventsMinBackoff:    v.GetDuration("events_min_backoff"),
		EventsMaxBackoff:    v.GetDuration("events_max_backoff"),
	}, nil
}

// HTTPPort is the port part of HTTPAddr, 80 if it has none.
func (s *Settings) HTTPPort() int {
	_, port, err := net.SplitHostPort(s.HTTPAddr)
	if err != nil {
		return 80
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 80
	}
	return p
}

// MQTTEnabled reports whether lights are published over MQTT.
func (s *Settings) MQTTEnabled() bool {
	return s.MQTTBroker != ""
}
