package main

import (
	"github.com/mcdev12/turingchat/go/internal/eventbus"
	"github.com/mcdev12/turingchat/go/internal/gateway"
	"github.com/mcdev12/turingchat/go/internal/match"
	"github.com/mcdev12/turingchat/go/internal/store"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Engine      *match.Engine
	Connections *gateway.ConnectionManager
	WSHandler   *gateway.WebSocketHandler
	BusClose    func()
}

func setupServices(config *Config, st store.Store) *Services {
	// Wire up dependency injection chain:
	// store + bus → engine → connection manager → websocket handler.
	// Engine and connection manager depend on each other (engine notifies
	// participants, connections feed the engine), so the manager is built
	// around a late-bound engine handle.

	publisher, busClose := setupEventBus()

	binder := &engineBinder{}
	connections := gateway.NewConnectionManager(binder, gateway.DefaultConnectionConfig())

	engine := match.NewEngine(matchConfig(config), st, connections, publisher)
	binder.Engine = engine

	wsHandler := gateway.NewWebSocketHandler(connections)

	return &Services{
		Engine:      engine,
		Connections: connections,
		WSHandler:   wsHandler,
		BusClose:    busClose,
	}
}

// engineBinder defers the engine reference so the connection manager can be
// constructed first.
type engineBinder struct {
	gateway.Engine
}

func setupEventBus() (eventbus.Publisher, func()) {
	natsURL := getEnv("NATS_URL", "")
	if natsURL == "" {
		log.Info().Msg("NATS_URL not set; session events will not be published")
		return eventbus.Noop{}, func() {}
	}

	bus, err := eventbus.NewNATS(natsURL, getEnv("NATS_SUBJECT_PREFIX", "match.sessions"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}

	log.Info().Str("nats_url", natsURL).Msg("session event publisher connected")
	return bus, bus.Close
}
