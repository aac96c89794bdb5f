package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/config"
	"github.com/noah-isme/exam-portal-api/internal/handler"
	"github.com/noah-isme/exam-portal-api/internal/middleware"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	SubjectHandler    *handler.SubjectHandler
	ExamPaperHandler  *handler.ExamPaperHandler
	SubmissionHandler *handler.SubmissionHandler
	ResultHandler     *handler.ResultHandler
	ActivityHandler   *handler.ActivityHandler
	Authenticate      fiber.Handler
	AuthRateLimit     fiber.Handler
	DB                *gorm.DB
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler(cfg.AppName))

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB))

	// Authentication is mandatory everywhere but the public auth endpoints.
	authenticate := deps.Authenticate
	if authenticate == nil {
		authenticate = func(c *fiber.Ctx) error {
			return fiber.ErrUnauthorized
		}
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.RegisterPublic(auth, deps.AuthRateLimit)
		deps.AuthHandler.Register(auth, authenticate)
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users", authenticate))
	}

	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(api.Group("/subjects", authenticate))
	}

	if deps.ExamPaperHandler != nil {
		deps.ExamPaperHandler.Register(api.Group("/exam-papers", authenticate))
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api.Group("/submissions", authenticate))
	}

	if deps.ResultHandler != nil {
		deps.ResultHandler.Register(api.Group("/results", authenticate))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activities", authenticate, middleware.RequireRole(models.RoleAdmin)))
	}
}
