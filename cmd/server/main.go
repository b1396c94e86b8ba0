package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/campusops/lab-seat-registration/internal/auth"
	"github.com/campusops/lab-seat-registration/internal/config"
	"github.com/campusops/lab-seat-registration/internal/database"
	"github.com/campusops/lab-seat-registration/internal/handler"
	"github.com/campusops/lab-seat-registration/internal/jobs"
	"github.com/campusops/lab-seat-registration/internal/queue"
	"github.com/campusops/lab-seat-registration/internal/repository"
	"github.com/campusops/lab-seat-registration/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	tokens, err := auth.NewService(cfg.JWTSecret,
		time.Duration(cfg.SessionTTLHours)*time.Hour,
		time.Duration(cfg.VerifyTTLMin)*time.Minute)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	principals := repository.NewPrincipalRepo(db)
	registrations := repository.NewRegistrationRepo(db)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}

	e := echo.New()
	router.RegisterRoutes(e)

	authHandler := handler.NewAuthHandler(cfg, tokens, principals)
	router.RegisterAuth(e, authHandler, tokens, principals, rdb)

	regHandler := handler.NewRegistrationHandler(cfg, registrations, principals)
	router.RegisterRegistrations(e, regHandler, tokens, principals, rdb)

	jobs.StartAbandonmentSweeper(context.Background(), cfg, registrations)
	go queue.StartAuditConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
