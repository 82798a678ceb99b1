package bootstrap

import (
	"context"
	"log"

	"focus-session-be/internal/config"
	"focus-session-be/internal/controller"
	"focus-session-be/internal/pkg/clock"
	"focus-session-be/internal/pkg/logger"
	"focus-session-be/internal/pkg/mailer"
	"focus-session-be/internal/repository/unitofwork"
	"focus-session-be/internal/service"
	"focus-session-be/pkg/gateway"

	pkgNats "focus-session-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController  controller.ISessionController
	GateController     controller.IGateController
	SettingsController controller.ISettingsController

	// Background Services (Exposed for main.go to run)
	ConsumerService    service.IConsumerService
	EnforcementService service.IEnforcementService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	sysClock := clock.System()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS (analytics sink, optional)
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis (live event channel, optional)
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Access gateway. The engine depends on the interface; a different
	// enforcement backend only needs a new client here.
	accessGateway := gateway.NewDenylistClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey)

	// 3. Services
	publisherService := service.NewPublisherService(cfg.Engine.EventTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Engine.EventTopic,
		natsPub,
		rdb,
		cfg.Engine.RedisChannel,
		sysLogger,
	)

	settingsService := service.NewSettingsService(uowFactory, cfg.Engine.SettingDefaults, sysLogger)
	if err := settingsService.Seed(context.Background(), cfg.Engine.SettingDefaults); err != nil {
		log.Printf("[WARN] Failed to seed settings, using defaults: %v", err)
	}

	sessionService := service.NewSessionService(
		uowFactory,
		settingsService,
		accessGateway,
		publisherService,
		sysLogger,
		sysClock,
		cfg.Gateway.Domains,
		cfg.Engine.EveningOverrideKinds,
	)

	enforcementService := service.NewEnforcementService(
		uowFactory,
		sessionService,
		settingsService,
		publisherService,
		emailService,
		sysLogger,
		sysClock,
		cfg.Engine.NotifyEmail,
	)

	// 4. Controllers
	return &Container{
		SessionController:  controller.NewSessionController(sessionService),
		GateController:     controller.NewGateController(sessionService),
		SettingsController: controller.NewSettingsController(settingsService),

		ConsumerService:    consumerService,
		EnforcementService: enforcementService,
	}
}
