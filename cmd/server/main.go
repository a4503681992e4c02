package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/portfel-app/portfel/internal/config"
	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/handlers"
	"github.com/portfel-app/portfel/internal/logger"
	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/secure"
	"github.com/portfel-app/portfel/internal/services"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	database, err := db.Connect(db.NewConfig())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Health(); err != nil {
		log.Fatal("database health check failed", zap.Error(err))
	}
	if err := db.Migrate(database); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("database connection established")

	cipher, err := secure.NewCipher(cfg.AccountCipherKey, cfg.FingerprintKey)
	if err != nil {
		log.Fatal("invalid account cipher key", zap.Error(err))
	}
	stamper := secure.NewStamper(cfg.SessionStampKey, 15*time.Minute)
	limiter := services.NewRateLimiter(cfg.AuthRateLimit, time.Duration(cfg.AuthRateWindow)*time.Second)

	marketTimeout := time.Duration(cfg.MarketDataTimeoutMS) * time.Millisecond
	quotes := services.NewHTTPQuoteSource(cfg.MarketDataURL, marketTimeout)
	fx := services.NewHTTPFxSource(cfg.MarketDataURL, marketTimeout)

	authService := services.NewAuthService(database, stamper, limiter, log)
	walletService := services.NewWalletService(database, log)
	accountService := services.NewAccountService(database, cipher, log)
	transactionService := services.NewTransactionService(database, log)
	eventService := services.NewEventService(database, log)
	metalService := services.NewMetalService(database, log)
	realEstateService := services.NewRealEstateService(database, log)
	catalogService := services.NewCatalogService(database, log)
	snapshotService := services.NewSnapshotService(database, quotes, log)
	managerService := services.NewWalletManagerService(database, quotes, log)

	router := handlers.NewRouter(handlers.Deps{
		Auth:         authService,
		Wallets:      walletService,
		Accounts:     accountService,
		Transactions: transactionService,
		Events:       eventService,
		Metals:       metalService,
		RealEstates:  realEstateService,
		Catalog:      catalogService,
		Manager:      managerService,
		Snapshots:    snapshotService,
		Quotes:       quotes,
		Fx:           fx,
		Logger:       log,
		HealthCheck:  database.Health,
	})

	// Scheduled monthly snapshot. The job re-runs safely, so a restart inside
	// the window just overwrites the same rows.
	var scheduler *cron.Cron
	if cfg.SnapshotCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.SnapshotCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			rates, err := fx.LatestRates(ctx)
			if err != nil {
				log.Error("snapshot job: fx fetch failed", zap.Error(err))
				return
			}
			monthKey := models.MonthKeyOf(time.Now())
			result, err := snapshotService.CreateMonthly(ctx, monthKey, rates)
			if err != nil {
				log.Error("snapshot job failed", zap.String("month_key", monthKey), zap.Error(err))
				return
			}
			log.Info("snapshot job finished",
				zap.String("month_key", result.MonthKey),
				zap.Int("missing_quotes", result.MissingQuotes))
		})
		if err != nil {
			log.Fatal("invalid snapshot cron expression", zap.String("cron", cfg.SnapshotCron), zap.Error(err))
		}
		scheduler.Start()
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	if scheduler != nil {
		scheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
