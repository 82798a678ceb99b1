package main

import (
	"context"
	"log"

	"focus-session-be/internal/bootstrap"
	"focus-session-be/internal/config"
	"focus-session-be/internal/server"
	"focus-session-be/internal/tracer"
	"focus-session-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	go func() {
		log.Println("Background: Starting Enforcement Scheduler...")
		if err := container.EnforcementService.Run(context.Background()); err != nil && err != context.Canceled {
			log.Printf("Background Scheduler Error: %v", err)
		}
	}()

	color.Cyan("Focus Session Engine")
	color.Green("Gate: GET /api/gate/v1 | Quick start: POST /api/session/v1/quick-start")

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
