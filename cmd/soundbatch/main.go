package main

import (
	"log"
	"os"

	"github.com/seantiz/soundbatch/internal/api"
	"github.com/seantiz/soundbatch/internal/audio/local"
	"github.com/seantiz/soundbatch/internal/config"
	"github.com/seantiz/soundbatch/internal/loader"
	"github.com/seantiz/soundbatch/internal/store"
)

func main() {
	cfg := config.Load()
	engCfg := local.LoadConfig()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("soundbatch: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"engine", local.EngineName,
		"asset_root", engCfg.AssetRoot,
		"max_concurrent_loads", engCfg.MaxConcurrentLoads,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	formats := local.DefaultFormats()
	eng := local.NewEngine(engCfg, formats, logger)
	l := loader.New(eng, logger,
		loader.WithStore(db),
		loader.WithDefaultChannels(cfg.DefaultChannels),
	)

	srv := api.NewServer(cfg.ListenAddr, db, l, formats, cfg.WaitTimeout, logger)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
