package main

import (
	"context"
	"log"
	"os"

	"github.com/example/relay-chat/config"
	"github.com/example/relay-chat/modules/activity"
	"github.com/example/relay-chat/modules/api"
	"github.com/example/relay-chat/modules/broadcast"
	"github.com/example/relay-chat/modules/relay"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(cfg.MonoLogLevel()),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// Create modules
	broadcastModule := broadcast.NewModule(logger)
	relayModule := relay.NewModule(broadcastModule.GetHub(), logger, relay.WithInboxSize(cfg.InboxSize))
	activityModule := activity.NewModule(logger)
	apiModule := api.NewModule(cfg, logger)

	// The hub and the relay are handed to the API directly; neither is a
	// service container.
	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetRelay(relayModule)
	apiModule.SetStats(activityModule)

	// Register modules with the framework.
	// - relay: router loop + event emitter
	// - broadcast: websocket hub
	// - activity: event consumer keeping counters
	// - api: Fiber HTTP/WebSocket server
	app.Register(relayModule)
	app.Register(broadcastModule)
	app.Register(activityModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	logger.Info("Relay started",
		"addr", cfg.Addr(),
		"websocket", "/ws",
		"liveness", "/hello",
	)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}
