package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/skalola/3kathletez/internal"
	"github.com/skalola/3kathletez/internal/api"
	"github.com/skalola/3kathletez/internal/auth"
	"github.com/skalola/3kathletez/internal/config"
	"github.com/skalola/3kathletez/internal/delivery"
	"github.com/skalola/3kathletez/internal/engine"
	"github.com/skalola/3kathletez/internal/storage"
	"github.com/skalola/3kathletez/internal/vitals"
)

type app struct {
	logger internal.Logger
	engine *engine.Engine
}

func (a *app) Logger() internal.Logger { return a.logger }
func (a *app) Engine() *engine.Engine  { return a.engine }

var _ api.App = (*app)(nil)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := internal.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	var repos storage.Repositories
	switch cfg.DBType {
	case "postgres":
		repos, err = storage.NewPostgresRepositories(cfg.DBDSN, logger)
	default:
		if dir := filepath.Dir(cfg.VitalsFile); dir != "." {
			_ = os.MkdirAll(dir, 0755)
		}
		repos, err = storage.NewFileRepositories(cfg.VitalsFile, cfg.AlarmsFile, cfg.ProfileFile, logger)
	}
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer repos.Close()

	submitter := delivery.NewMemorySubmitter(logger)

	eng := engine.New(engine.Config{
		DecayTick: cfg.DecayTick,
		Rates: vitals.DecayRates{
			Physical: cfg.DecayPhysical,
			Mental:   cfg.DecayMental,
		},
		Thresholds: vitals.Thresholds{
			EliteFitness:   cfg.EliteFitness,
			EliteEnergy:    cfg.EliteEnergy,
			LowEnergy:      cfg.LowEnergy,
			Dehydrated:     cfg.Dehydrated,
			ThirstyPortion: cfg.ThirstyPortion,
			FlagTTL:        cfg.FlagTTL,
		},
		ExerciseMode: cfg.ExerciseMode,
	}, logger, repos, submitter)

	ticker := engine.NewDecayTicker(eng, cfg.DecayTick, logger)
	if err := ticker.Start(); err != nil {
		logger.Fatalf("failed to start decay ticker: %v", err)
	}
	defer ticker.Stop()

	var provider auth.Provider
	if cfg.Env == "development" {
		provider = auth.NewLocalAuthProvider(cfg.AuthToken, logger)
	} else {
		provider = auth.NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	}

	r := api.NewRouter(&app{logger: logger, engine: eng}, provider, cfg)

	go func() {
		logger.Infof("server running on :%s", cfg.Port)
		if err := r.Run(":" + cfg.Port); err != nil {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
}
