// testserver starts a soundbatch API server on a scripted engine for E2E
// testing. Every request loads after a short delay, except ids starting with
// "fail", which fail.
// Usage: go run ./cmd/testserver
package main

import (
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/seantiz/soundbatch/internal/api"
	"github.com/seantiz/soundbatch/internal/audio/audiotest"
	"github.com/seantiz/soundbatch/internal/audio/local"
	"github.com/seantiz/soundbatch/internal/config"
	"github.com/seantiz/soundbatch/internal/loader"
	"github.com/seantiz/soundbatch/internal/model"
	"github.com/seantiz/soundbatch/internal/store"
)

const (
	replyDelay  = 200 * time.Millisecond
	waitTimeout = 5 * time.Second
)

func main() {
	addr := ":8080"
	if v := os.Getenv("SOUNDBATCH_LISTEN_ADDR"); v != "" {
		addr = v
	}

	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	logger := config.NewLogger(os.Stdout, slog.LevelInfo)
	eng := audiotest.New(audiotest.WithAutoReply(replyDelay, func(r model.LoadRequest) bool {
		return strings.HasPrefix(r.ID, "fail")
	}))
	l := loader.New(eng, logger, loader.WithStore(db))
	srv := api.NewServer(addr, db, l, local.DefaultFormats(), waitTimeout, logger)

	logger.Info("testserver: starting", "addr", addr)
	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
