// apps/go-server/cmd/accounts/main.go
//
// Account service: login bookkeeping and account records over HTTP,
// persisted in SQLite.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/accounts"
	"github.com/robalobadob/crossword/apps/go-server/internal/config"
	"github.com/robalobadob/crossword/apps/go-server/internal/sqlitedb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.Log.ConfigureLogging("accounts")
	ac := cfg.Accounts

	db, err := sqlitedb.Open(ac.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", ac.DBPath).Msg("open database")
	}
	defer db.Close()

	st, err := accounts.OpenSQLiteStore(db)
	if err != nil {
		log.Fatal().Err(err).Msg("migrate accounts")
	}
	reg := accounts.NewRegistry(st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reg.RunExpiry(ctx, ac.LoginSweep, ac.LoginIdle)

	srv := &http.Server{
		Addr:              ":" + ac.Port,
		Handler:           accounts.NewServer(reg, ac.RequestTimeout).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", ac.Port).Str("db", ac.DBPath).Msg("starting account service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ac.RequestTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
