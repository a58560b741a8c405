package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shopadmin/internal/auth"
	"shopadmin/internal/categories"
	"shopadmin/internal/config"
	"shopadmin/internal/httpx"
	kafkax "shopadmin/internal/kafka"
	"shopadmin/internal/migrations"
	"shopadmin/internal/orders"
	"shopadmin/internal/postgres"
	"shopadmin/internal/products"
	"shopadmin/internal/redisx"
	"shopadmin/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Up(ctx, db); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per lifecycle topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024)
	pCancelled.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL, cfg.ServiceName)
	orderSvc := orders.NewService(&orders.PG{DB: db}, orders.ParseCancelMode(cfg.OrderCancelMode))

	router := httpx.NewRouter(httpx.Handlers{
		Tokens: tokens,
		Auth: &httpx.AuthHandler{
			Users:      &users.Repo{DB: db},
			Tokens:     tokens,
			BcryptCost: cfg.BcryptCost,
		},
		Categories: &httpx.CategoriesHandler{Repo: &categories.Repo{DB: db}},
		Products:   &httpx.ProductsHandler{Repo: &products.Repo{DB: db}},
		Orders: &httpx.OrdersHandler{
			Svc:           orderSvc,
			Created:       pCreated,
			Cancelled:     pCancelled,
			StatusChanged: pStatus,
			Cache:         &redisx.OrderCache{R: rdb},
			Service:       cfg.ServiceName,
		},
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	pCreated.Close()
	pCancelled.Close()
	pStatus.Close()
	cancel()
	pCreated.WaitClosed()
	pCancelled.WaitClosed()
	pStatus.WaitClosed()
}
