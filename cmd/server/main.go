package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/auth"
	"github.com/iliyamo/notes-api/internal/cache"
	"github.com/iliyamo/notes-api/internal/config"
	"github.com/iliyamo/notes-api/internal/database"
	"github.com/iliyamo/notes-api/internal/handler"
	"github.com/iliyamo/notes-api/internal/logging"
	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/queue"
	"github.com/iliyamo/notes-api/internal/ratelimit"
	"github.com/iliyamo/notes-api/internal/repository"
	"github.com/iliyamo/notes-api/internal/router"
)

func main() {
	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	log := logging.New(cfg.Env, cfg.LogLevel)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("mysql connection failed")
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		cancel()
		log.WithError(err).Fatal("schema setup failed")
	}
	cancel()

	// The client is kept even when the first ping fails: the limiter then
	// rejects requests and the listing cache falls back to MySQL until
	// Redis comes back.
	rdb, err := config.NewRedisClient()
	if rdb == nil {
		log.WithError(err).Fatal("invalid redis configuration")
	}
	if err != nil {
		log.WithError(err).Warn("redis unreachable at startup")
	}
	defer rdb.Close()

	users := repository.NewUserRepo(db)
	notes := repository.NewNoteRepo(db)

	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTL())
	guard := auth.NewGuard(tokens, users)

	gov := ratelimit.New(rdb, rlCfg.Prefix, rlCfg.Window, rlCfg.Limit, rlCfg.Timeout)

	var listings handler.ListingCache
	if cacheCfg.Enabled {
		listings = cache.NewListingCache(rdb, cache.Options{
			Prefix:             cacheCfg.Prefix,
			TTL:                cacheCfg.TTL,
			Timeout:            cacheCfg.Timeout,
			InvalidateAttempts: cacheCfg.InvalidateAttempts,
			InvalidateBackoff:  cacheCfg.InvalidateBackoff,
		}, log.WithField("component", "listing-cache"))
	}

	publisher := queue.NewPublisher(cfg.RabbitURL, cfg.EmailQueue, log.WithField("component", "email-publisher"))

	authH := handler.NewAuthHandler(users, hasher, tokens, cfg.DBTimeout, log)
	noteH := handler.NewNoteHandler(notes, listings, cfg.DBTimeout, log)
	emailH := handler.NewEmailHandler(publisher, cfg.DBTimeout, log)

	authn := middleware.Authenticate(guard, cfg.DBTimeout, log.WithField("component", "auth"))
	admin := middleware.RequireRole(guard, auth.AdminOnly)

	e := echo.New()
	e.HideBanner = true
	router.UseCommon(e, log, middleware.NewFixedWindow(rlCfg, gov, log.WithField("component", "ratelimit")))
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, authn)
	router.RegisterAdmin(e, authH, authn, admin)
	router.RegisterNotes(e, noteH, authn)
	router.RegisterEmail(e, emailH, authn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
