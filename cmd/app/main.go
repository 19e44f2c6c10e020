package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"TunPulse/internal/di"
	"TunPulse/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	dayFile := flag.String("day-file", "", "override data.new_day_file")
	sentimentFile := flag.String("sentiment", "", "override data.sentiment_export")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *dayFile != "" {
		cfg.Data.NewDayFile = *dayFile
	}
	if *sentimentFile != "" {
		cfg.Data.SentimentExport = *sentimentFile
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Printf("pipeline failed: %v", err)
		os.Exit(1)
	}
}
