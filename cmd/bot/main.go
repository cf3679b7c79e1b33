package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitos/crypto_scale_engine/internal/infrastructure/feed"
	"github.com/vitos/crypto_scale_engine/internal/infrastructure/logger"
	"github.com/vitos/crypto_scale_engine/internal/infrastructure/storage"
	"github.com/vitos/crypto_scale_engine/internal/usecase"
	"github.com/vitos/crypto_scale_engine/internal/web"
)

type Config struct {
	Engine struct {
		ProfitFraction    float64 `yaml:"profit_fraction"`
		FirstTakeFraction float64 `yaml:"first_take_fraction"`
		TrailFraction     float64 `yaml:"trail_fraction"`
		MaxStages         int     `yaml:"max_stages"`
		NeutralThreshold  float64 `yaml:"neutral_threshold"`
	} `yaml:"engine"`
	Feed struct {
		TickFile   string `yaml:"tick_file"`
		IntervalMs int    `yaml:"interval_ms"`
	} `yaml:"feed"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func engineConfig(cfg *Config) usecase.Config {
	engine := usecase.DefaultConfig()
	if cfg.Engine.ProfitFraction > 0 {
		engine.ProfitFraction = decimal.NewFromFloat(cfg.Engine.ProfitFraction)
	}
	if cfg.Engine.FirstTakeFraction > 0 {
		engine.FirstTakeFraction = decimal.NewFromFloat(cfg.Engine.FirstTakeFraction)
	}
	if cfg.Engine.TrailFraction > 0 {
		engine.TrailFraction = decimal.NewFromFloat(cfg.Engine.TrailFraction)
	}
	if cfg.Engine.MaxStages > 0 {
		engine.MaxStages = cfg.Engine.MaxStages
	}
	if cfg.Engine.NeutralThreshold > 0 {
		engine.NeutralThreshold = cfg.Engine.NeutralThreshold
	}
	return engine
}

func main() {
	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = "engine.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}

	// 4. Init Engine
	engine := engineConfig(cfg)
	hub := web.NewHub(log)
	service := usecase.NewPositionService(engine, store, hub, log)
	scorer := usecase.NewWinRateScorer(engine)

	if err := service.Restore(context.Background()); err != nil {
		log.Error("Failed to restore positions", zap.Error(err))
	}

	// 5. Wire the price feed
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Feed.TickFile != "" {
		replay := feed.NewReplayFeed(cfg.Feed.TickFile, time.Duration(cfg.Feed.IntervalMs)*time.Millisecond)
		replay.OnPriceUpdate(func(symbol string, price decimal.Decimal) {
			if err := service.ProcessTick(ctx, symbol, price); err != nil {
				log.Error("Error processing tick", zap.String("symbol", symbol), zap.Error(err))
			}
		})
		go func() {
			if err := replay.Run(ctx); err != nil && err != context.Canceled {
				log.Error("Feed stopped", zap.Error(err))
			}
		}()
	}

	// 6. Init Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	server := web.NewServer(port, service, scorer, store, hub, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 7. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	cancel()
	server.Shutdown(context.Background())
}
