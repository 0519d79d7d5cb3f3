// Package server assembles the fiber application: middleware, error
// rendering and every route of the API.
package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"

	"github.com/jattu8602/presentsirweb-sub001/internal/admin"
	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/audit"
	"github.com/jattu8602/presentsirweb-sub001/internal/auth"
	"github.com/jattu8602/presentsirweb-sub001/internal/logger"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/school"
	"github.com/jattu8602/presentsirweb-sub001/internal/token"
	"github.com/jattu8602/presentsirweb-sub001/internal/validator"
)

type Deps struct {
	DB          *gorm.DB
	Tokens      *token.Service
	Auth        *auth.Service
	Schools     *school.Service
	Admin       *admin.Service
	Validator   *validator.Validator
	CORSOrigins []string
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "presentsir",
		ErrorHandler:          apperr.ErrorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(d.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Get("/healthz", healthHandler(d.DB))

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", auth.LoginHandler(d.Auth, d.Validator))
	authRoutes.Post("/google", auth.GoogleLoginHandler(d.Auth, d.Validator))
	authRoutes.Get("/verify", auth.VerifyHandler(d.Auth))
	authRoutes.Post("/logout", auth.LogoutHandler())

	schools := api.Group("/schools")
	schools.Post("/register", school.RegisterHandler(d.Schools))
	schools.Post("/register/validate", school.ValidateStepHandler(d.Validator))

	// Admin login stays in front of the guarded group.
	api.Post("/admin/login", auth.AdminLoginHandler(d.Auth, d.Validator))

	adminRoutes := api.Group("/admin")
	adminRoutes.Use(auth.JWTMiddleware(d.Tokens))
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Get("/auth", auth.AdminAuthHandler())
	adminRoutes.Get("/schools", admin.ListInstitutionsHandler(d.Admin))
	adminRoutes.Get("/schools/export", admin.ExportInstitutionsHandler(d.Admin))
	adminRoutes.Get("/schools/:id", admin.GetInstitutionHandler(d.Admin))
	adminRoutes.Post("/schools/:id/approve", admin.DecideHandler(d.Admin, d.Validator))
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(d.DB))

	return app
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			logger.WithError(err).Warn("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
