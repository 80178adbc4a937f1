package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"caresite/config"
	"caresite/confirm"
	controller "caresite/controllers"
	"caresite/middleware"
	"caresite/storage"
	"caresite/syncer"
	"caresite/toast"
	"caresite/utils"
)

// Deps carries everything the route handlers need; nothing is pulled
// from package-level state.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Sync   *syncer.Controller
	Toasts *toast.Notifier
	Modal  *confirm.Modal
	Bucket *storage.Bucket
	Hub    *controller.EventHub
	Mailer *utils.Mailer
}

func SetupRoutes(app *fiber.App, deps *Deps) {
	authController := controller.NewAuthController(deps.DB, deps.Config.JWTSecret, log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile))
	planController := controller.NewPlanController(deps.Sync, deps.Modal, log.New(os.Stdout, "PLAN: ", log.LstdFlags))
	mediaController := controller.NewMediaController(deps.Sync, deps.Modal, deps.Hub, deps.Bucket, log.New(os.Stdout, "MEDIA: ", log.LstdFlags))
	contactController := controller.NewContactController(deps.DB, deps.Mailer, log.New(os.Stdout, "CONTACT: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(deps.Sync, deps.Toasts, deps.Modal, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))

	// Public marketing surface
	public := app.Group("", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	public.Get("/plans", planController.ListPlans)
	public.Get("/media", mediaController.ListMedia)
	public.Post("/contact",
		middleware.IPRateLimiter(deps.Config, deps.Config.RateLimitContact),
		contactController.Submit)

	// Stored media objects
	public.Get("/storage/media/:path", mediaController.ServeObject)

	// Auth endpoints
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	auth.Post("/login",
		middleware.IPRateLimiter(deps.Config, deps.Config.RateLimitLogin),
		authController.Login)
	auth.Post("/refresh", authController.Refresh)
	auth.Get("/session", authController.Session)

	protectedAuth := auth.Group("", middleware.Protected(deps.DB, deps.Config.JWTSecret))
	protectedAuth.Post("/logout", authController.Logout)

	// Admin dashboard API
	api := app.Group("/api/v1", middleware.Protected(deps.DB, deps.Config.JWTSecret), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	api.Get("/dashboard", dashboardController.GetDashboard)
	api.Post("/confirm", dashboardController.Confirm)
	api.Post("/confirm/cancel", dashboardController.Cancel)
	api.Get("/toasts", dashboardController.ListToasts)
	api.Delete("/toasts/:id", dashboardController.DismissToast)

	api.Post("/plans", planController.CreatePlan)
	api.Post("/plans/:id/delete", planController.RequestDeletePlan)

	api.Post("/media", mediaController.UploadMedia)
	api.Post("/media/:id/delete", mediaController.RequestDeleteMedia)

	// Change-notification websocket for open dashboards
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(deps.Hub.HandleEventsWS))
}
