package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hs-as-ct/internal/adapters/input/http"
	mqttin "hs-as-ct/internal/adapters/input/mqtt"
	"hs-as-ct/internal/adapters/input/ssdp"
	"hs-as-ct/internal/adapters/output/homeassistant"
	mqttout "hs-as-ct/internal/adapters/output/mqtt"
	"hs-as-ct/internal/adapters/output/persistence"
	"hs-as-ct/internal/config"
	"hs-as-ct/internal/domain/service"
	"hs-as-ct/internal/ports"
)

func main() {
	settingsFile := flag.String("settings", "", "Path to a settings file")
	flag.Parse()

	settings, err := config.Load(*settingsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}

	setupLogging(settings.LogLevel, settings.LogJSON, settings.LogColors)

	ip := settings.LocalIP
	if ip == "" {
		ip = getLocalIP()
	}
	if ip == "" {
		log.Fatal().Msg("Could not determine local IP. Set LOCAL_IP environment variable.")
	}

	log.Info().Str("ip", ip).Str("config", settings.ConfigPath).Msg("Starting HS as CT bridge")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configRepo := persistence.NewYAMLConfigRepository(settings.ConfigPath)
	haClient := homeassistant.NewClient(settings.HassTimeout)

	// Stored credentials win; the environment seeds them on first start.
	cfg, err := configRepo.Get(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read light definitions")
	}
	if cfg.HassURL != "" && cfg.HassToken != "" {
		haClient.Configure(cfg.HassURL, cfg.HassToken)
	} else if settings.HassURL != "" && settings.HassToken != "" {
		haClient.Configure(settings.HassURL, settings.HassToken)
		cfg.HassURL = settings.HassURL
		cfg.HassToken = settings.HassToken
		if err := configRepo.Save(ctx, cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to save Home Assistant credentials")
		}
	}

	var (
		publisher  ports.StatePublisher = homeassistant.NewStatePublisher(haClient)
		mqttClient MQTT.Client
		commands   *mqttin.CommandHandler
	)
	topics := mqttout.Topics{
		DiscoveryPrefix: settings.MQTTDiscoveryPrefix,
		Prefix:          settings.MQTTTopicPrefix,
	}
	if settings.MQTTEnabled() {
		mqttClient = mqttout.NewClient(mqttout.ClientConfig{
			Broker:   settings.MQTTBroker,
			ClientID: settings.MQTTClientID,
			Username: settings.MQTTUsername,
			Password: settings.MQTTPassword,
			Topics:   topics,
		}, func(c MQTT.Client) { commands.Subscribe(c) })
		publisher = mqttout.NewPublisher(mqttClient, topics)
	}

	bridgeService := service.NewBridgeService(haClient, configRepo, publisher)

	if mqttClient != nil {
		commands = mqttin.NewCommandHandler(bridgeService, topics)
		if err := mqttout.Connect(mqttClient, 30*time.Second); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MQTT broker")
		}
	}

	if err := bridgeService.Load(ctx); err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			log.Warn().Msg("Home Assistant is not configured yet, use /admin/config")
		} else {
			log.Error().Err(err).Msg("Initial sync failed")
		}
	}

	// Event stream
	streamConfig := homeassistant.DefaultEventStreamConfig()
	streamConfig.MinBackoff = settings.EventsMinBackoff
	streamConfig.MaxBackoff = settings.EventsMaxBackoff
	streamConfig.Watch = bridgeService.Watches
	stream := homeassistant.NewEventStream(haClient, streamConfig)
	go func() {
		resync := func() {
			if err := bridgeService.Resync(ctx); err != nil {
				log.Warn().Err(err).Msg("Resync after reconnect failed")
			}
		}
		if err := stream.Run(ctx, bridgeService.StateChangeHandler(ctx), resync); err != nil {
			log.Error().Err(err).Msg("Event stream stopped")
		}
	}()

	// Start SSDP Server
	if settings.SSDPEnabled {
		ssdpServer := ssdp.NewServer(ip, settings.HTTPPort())
		go func() {
			if err := ssdpServer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("SSDP server error")
			}
		}()
	}

	// Start HTTP Server
	httpServer := http.NewServer(bridgeService, ip, settings.HTTPPort())
	if err := httpServer.ListenAndServe(ctx, settings.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}

	log.Info().Msg("Shutting down")

	// Stop command intake before draining pending dispatches.
	if mqttClient != nil {
		mqttout.Disconnect(mqttClient, topics)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bridgeService.Close(shutdownCtx)
}

func setupLogging(level string, useJSON bool, colors bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}
