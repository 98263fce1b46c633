package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/graph-user-auth/internal/apperr"
	"github.com/iliyamo/graph-user-auth/internal/config"
	"github.com/iliyamo/graph-user-auth/internal/database"
	"github.com/iliyamo/graph-user-auth/internal/handler"
	"github.com/iliyamo/graph-user-auth/internal/queue"
	"github.com/iliyamo/graph-user-auth/internal/repository"
	"github.com/iliyamo/graph-user-auth/internal/router"
)

func main() {
	_ = godotenv.Load() // optional .env for local development

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	driver, err := database.Open(cfg.Neo4jHost, cfg.Neo4jPort, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		log.Fatalf("neo4j connect: %v", err)
	}
	defer func() { _ = driver.Close(context.Background()) }()

	if err := database.InitSchema(context.Background(), driver, cfg.UsersDB); err != nil {
		log.Fatalf("neo4j schema: %v", err)
	}

	users := repository.NewUserRepo(driver, cfg.UsersDB)
	sessions := repository.NewSessionRepo(driver, cfg.UsersDB, cfg.SessionDays)

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unreachable, login rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorBoundary(logger)

	authHandler := handler.NewAuthHandler(cfg, users, sessions, logger)
	userHandler := handler.NewUserHandler(cfg, users, logger)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, config.LoadRateLimitConfig(), rdb)
	router.RegisterUsers(e, userHandler, sessions, logger)

	// Audit trail consumer; keeps reconnecting on its own.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			logger.Error("audit consumer stopped", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// errorBoundary is the top-level translation of unrecovered errors.
// Storage failures are logged with their operation tag; the client sees a
// bare 500 with no query text.
func errorBoundary(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, echo.Map{"message": he.Message})
			return
		}
		if se, ok := apperr.IsStorage(err); ok {
			logger.Error("storage failure", "op", se.Op, "error", se.Cause,
				"path", c.Path(), "method", c.Request().Method)
		} else {
			logger.Error("unhandled error", "error", err,
				"path", c.Path(), "method", c.Request().Method)
		}
		_ = c.NoContent(http.StatusInternalServerError)
	}
}
