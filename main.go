package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"tinyboard/internal/buildinfo"
	"tinyboard/internal/engine"
	"tinyboard/internal/game"
	"tinyboard/internal/handlers"
	"tinyboard/internal/logging"
	"tinyboard/internal/storage"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address")
	stockfish := flag.String("stockfish", os.Getenv("STOCKFISH_PATH"), "path to the stockfish binary (empty disables the engine)")
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "postgres DSN (empty disables persistence)")
	threads := flag.Int("engine-threads", 1, "engine threads")
	hash := flag.Int("engine-hash", 64, "engine hash size in MB")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := logging.New(os.Stdout, *debug)
	log.Info().Str("version", buildinfo.String()).Msg("tinyboard authority starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *storage.Store
	if *dsn != "" {
		db, err := storage.New(*dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("open database")
		}
		store = storage.NewStore(db)
		log.Info().Msg("persistence enabled")
	} else {
		log.Warn().Msg("no DSN configured, games are kept in memory only")
	}

	h := handlers.NewHandler(nil, nil, store, log, buildinfo.String())
	if *stockfish != "" {
		eng, err := engine.New(engine.Config{Path: *stockfish, Threads: *threads, HashMB: *hash, Logger: log})
		if err != nil {
			log.Error().Err(err).Msg("engine unavailable")
		} else {
			defer eng.Close()
			h.Engine = eng
		}
	} else {
		log.Warn().Msg("no stockfish path configured, engine endpoints disabled")
	}
	h.Hub = game.NewHub(ctx, func(id uuid.UUID) { h.Forget(id) })

	srv := &http.Server{
		Addr:              *addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info().Str("addr", *addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("serve")
	}
	log.Info().Msg("stopped")
}
