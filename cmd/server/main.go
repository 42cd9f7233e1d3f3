package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minthive/nft-market/internal/api"
	"github.com/minthive/nft-market/internal/config"
	"github.com/minthive/nft-market/internal/infrastructure/kafka"
	"github.com/minthive/nft-market/internal/infrastructure/mailer"
	"github.com/minthive/nft-market/internal/infrastructure/redis"
	"github.com/minthive/nft-market/internal/observability"
	"github.com/minthive/nft-market/internal/recon"
	core "github.com/minthive/nft-market/internal/repository/postgres"
	service "github.com/minthive/nft-market/internal/services"
	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	shutdown, _ := observability.Setup("nft-market")
	defer shutdown(context.Background())

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	userRepo := core.NewPostgresUserRepository(db)
	nftRepo := core.NewPostgresNFTRepository(db)
	transactionRepo := core.NewPostgresTransactionRepository(db)
	redisClient := redis.NewClient(cfg.RedisAddr)
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)

	svc := service.NewPurchaseService(userRepo, nftRepo, transactionRepo, redisClient, producer, cfg.UPIID, cfg.UPIPayeeName)

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	purchaseConsumer := kafka.NewConsumer(cfg.KafkaBrokers, "purchases", "nft-market-notifications", smtpMailer)
	go purchaseConsumer.Consume(consumerCtx)
	defer purchaseConsumer.Close()
	defer cancelConsumer()

	if cfg.Recon.Enabled {
		source := recon.NewSource(cfg)
		reconciler := recon.NewReconciler(transactionRepo, userRepo, source, smtpMailer, producer, cfg.Recon.Lookback)
		worker := recon.NewWorker(reconciler, cfg.Recon.Interval)
		worker.Start()
		defer worker.Stop()
	} else {
		slog.Info("reconciliation disabled")
	}

	router := api.SetupRouter(svc)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	slog.Info("server stopped")
}
