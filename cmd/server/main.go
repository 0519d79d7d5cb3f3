package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jattu8602/presentsirweb-sub001/internal/admin"
	"github.com/jattu8602/presentsirweb-sub001/internal/auth"
	"github.com/jattu8602/presentsirweb-sub001/internal/config"
	"github.com/jattu8602/presentsirweb-sub001/internal/database"
	"github.com/jattu8602/presentsirweb-sub001/internal/logger"
	"github.com/jattu8602/presentsirweb-sub001/internal/notify"
	"github.com/jattu8602/presentsirweb-sub001/internal/school"
	"github.com/jattu8602/presentsirweb-sub001/internal/server"
	"github.com/jattu8602/presentsirweb-sub001/internal/token"
	"github.com/jattu8602/presentsirweb-sub001/internal/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err.Error())
	}
	logger.Init(cfg.Env)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("database unavailable", "error", err.Error())
	}
	defer func() { _ = database.Close(db) }()

	tokens, err := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("token service", "error", err.Error())
	}
	logger.Info("token service ready", "ttl", tokens.TTL().String(), "admin_login", cfg.AdminConfigured())

	v := validator.New()
	admins := auth.AdminCredentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword}

	app := server.New(server.Deps{
		DB:          db,
		Tokens:      tokens,
		Auth:        auth.NewService(db, tokens, admins, auth.NewGoogleVerifier(cfg.GoogleClientID)),
		Schools:     school.NewService(db, v, cfg.BcryptCost),
		Admin:       admin.NewService(db, notify.New(cfg.SMTP), cfg.LoginURL()),
		Validator:   v,
		CORSOrigins: cfg.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err.Error())
		}
	}()

	logger.Info("server listening", "port", cfg.HTTPPort, "env", cfg.Env)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("server stopped", "error", err.Error())
	}
}
