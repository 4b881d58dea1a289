package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reeltrack/auth-service/internal/config"
	"github.com/reeltrack/auth-service/internal/events"
	"github.com/reeltrack/auth-service/internal/httpserver"
	"github.com/reeltrack/auth-service/internal/middleware"
	"github.com/reeltrack/auth-service/internal/models"
	"github.com/reeltrack/auth-service/internal/repo"
	"github.com/reeltrack/auth-service/internal/service"
	"github.com/reeltrack/auth-service/pkg/db"
	"github.com/reeltrack/auth-service/pkg/hash"
	"github.com/reeltrack/auth-service/pkg/logging"
	loggingmw "github.com/reeltrack/auth-service/pkg/middleware/logging"
	"github.com/reeltrack/auth-service/pkg/tokens"
)

const purgeInterval = time.Hour

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gormDB, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.User{}, &models.Token{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: gormDB}
	producer := events.NewProducer(cfg.KafkaBrokers, events.TopicUserEvents)
	defer producer.Close()

	issuer := tokens.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	hasher := hash.New(cfg.BcryptCost)

	authSvc := &service.AuthService{
		Repo:   gormRepo,
		Issuer: issuer,
		Hasher: hasher,
		Events: producer,
	}
	userSvc := &service.UserService{
		Repo:   gormRepo,
		Hasher: hasher,
		Events: producer,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Auth: authSvc, Users: userSvc},
		UserHandler: &httpserver.UserHTTP{Users: userSvc},
		AuthMW:      middleware.NewAuth(authSvc),
	})

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go runTokenJanitor(janitorCtx, gormRepo, logger)

	go func() {
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	stopJanitor()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}

// runTokenJanitor periodically deletes sessions that are revoked or
// past their refresh expiry. Purging is maintenance only; liveness
// checks never depend on it.
func runTokenJanitor(ctx context.Context, r *repo.GormRepo, logger *slog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("token purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged dead sessions", "count", n)
			}
		}
	}
}
