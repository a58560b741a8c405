package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shopadmin/internal/config"
	kafkax "shopadmin/internal/kafka"
	"shopadmin/internal/orders"
	"shopadmin/internal/postgres"
	"shopadmin/internal/products"
	"shopadmin/internal/redisx"
	"shopadmin/internal/stockwatch"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stockwatch.Service{
		Products:  &products.Repo{DB: db},
		Redis:     rdb,
		Threshold: cfg.StockAlertThreshold,
	}

	group := getenv("STOCKWATCH_GROUP", "stockwatch")
	workers := atoi(os.Getenv("STOCKWATCH_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers)

	go func() {
		slog.Info("stockwatch consumer started",
			"group", group, "topic", orders.TopicOrderCreated, "workers", workers)
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			slog.Error("consumer exit", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down consumer")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
