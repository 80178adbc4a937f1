package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"caresite/config"
	"caresite/confirm"
	controller "caresite/controllers"
	"caresite/gateway"
	"caresite/middleware"
	"caresite/models"
	"caresite/notify"
	"caresite/routes"
	"caresite/storage"
	"caresite/syncer"
	"caresite/toast"
	"caresite/utils"
)

func main() {
	logger := log.New(os.Stdout, "CARESITE: ", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logger.Printf("Sentry init failed: %v", err)
		}
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.Migrate(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	if err := models.SeedDefaultPlans(db); err != nil {
		logger.Fatalf("Failed to seed plans: %v", err)
	}
	if err := models.SeedAdminUser(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatalf("Failed to seed admin user: %v", err)
	}

	bucket, err := storage.NewBucket("media", cfg.StorageRoot, cfg.BaseURL+"/storage")
	if err != nil {
		logger.Fatalf("Failed to open media bucket: %v", err)
	}

	broker := notify.NewBroker()
	defer broker.Close()

	gw := gateway.New(db, bucket, broker)
	toasts := toast.NewNotifier(toast.DefaultTTL)
	defer toasts.Close()

	syncController := syncer.NewController(gw, toasts, log.New(os.Stdout, "SYNC: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := syncController.Start(ctx, broker); err != nil {
		logger.Fatalf("Failed to start synchronization controller: %v", err)
	}
	defer syncController.Stop()

	hub := controller.NewEventHub(broker, log.New(os.Stdout, "EVENTS: ", log.LstdFlags))
	go hub.Run()
	defer hub.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // media uploads
	})

	app.Use(middleware.CORS())

	routes.SetupRoutes(app, &routes.Deps{
		Config: cfg,
		DB:     db,
		Sync:   syncController,
		Toasts: toasts,
		Modal:  confirm.NewModal(),
		Bucket: bucket,
		Hub:    hub,
		Mailer: utils.NewMailer(cfg),
	})

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	logger.Printf("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
