package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tablemesa/tablemesa-backend/internal/orderclient"
	"github.com/tablemesa/tablemesa-backend/pkg/config"
	"github.com/tablemesa/tablemesa-backend/pkg/logger"
)

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "order service base URL")
	restaurant := flag.String("restaurant", "", "restaurant UUID to order against")
	table := flag.String("table", "", "table UUID to order from")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "smoketest"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "smoketest",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	restaurantID, err := uuid.Parse(*restaurant)
	if err != nil {
		logg.Error(context.Background(), "invalid -restaurant flag", err)
		os.Exit(1)
	}
	tableID, err := uuid.Parse(*table)
	if err != nil {
		logg.Error(context.Background(), "invalid -table flag", err)
		os.Exit(1)
	}

	client, err := orderclient.New(*baseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to build order client", err)
		os.Exit(1)
	}

	flow, err := NewFlow(FlowParams{
		Config:       cfg,
		Logger:       logg,
		Client:       client,
		RestaurantID: restaurantID,
		TableID:      tableID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build flow", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"base_url":      *baseURL,
		"restaurant_id": restaurantID.String(),
		"table_id":      tableID.String(),
	})
	logg.Info(ctx, "starting order lifecycle smoke test")

	invoice, err := flow.Run(ctx)
	if err != nil {
		logg.Error(ctx, "smoke test failed", err)
		os.Exit(1)
	}

	fmt.Println(invoice)
	logg.Info(ctx, "smoke test passed")
}
