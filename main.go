package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"

	"github.com/example/chat-relay/config"
	"github.com/example/chat-relay/modules/api"
	"github.com/example/chat-relay/modules/broadcast"
	"github.com/example/chat-relay/modules/chat"
)

func main() {
	log.Println("=== chat-relay - ephemeral room-scoped message relay ===")

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	chatModule := chat.NewModule(cfg.RoomReapDelay)
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule(cfg, chatModule)

	// Inject broadcast hub into API module
	// (the hub is not exposed via ServiceContainer)
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - chat: relay core (registry + dispatcher + reaper, event emitter)
	// - broadcast: event consumer delivering targeted frames over the hub
	// - api: Fiber HTTP/WebSocket transport, depends on chat and broadcast
	if err := app.Register(chatModule); err != nil {
		log.Fatalf("Failed to register chat module: %v", err)
	}
	if err := app.Register(broadcastModule); err != nil {
		log.Fatalf("Failed to register broadcast module: %v", err)
	}
	if err := app.Register(apiModule); err != nil {
		log.Fatalf("Failed to register api module: %v", err)
	}

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: embedded NATS (internal pubsub)")
	log.Printf("  - Room reap delay: %s", cfg.RoomReapDelay)
	log.Println("")
	log.Println("Event flow:")
	log.Println("  - join_room    -> user_joined (joiner) + user_activity (room)")
	log.Println("  - send_message -> receive_message (whole room)")
	log.Println("  - disconnect   -> user_activity (room) + deferred room reap")
	log.Println("")
	log.Printf("HTTP endpoints (http://localhost:%d):", cfg.Port)
	log.Println("  GET /health            - Health check")
	log.Println("  GET /metrics           - Prometheus metrics")
	log.Println("  GET /api/v1/rooms      - Room count")
	log.Println("  GET /api/v1/rooms/:id  - Room snapshot")
	log.Println("  GET /api/v1/rooms/:id/history - Room message history")
	log.Println("")
	log.Printf("WebSocket endpoint: ws://localhost:%d/ws", cfg.Port)
	log.Println("  Frame types: join_room, send_message")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
