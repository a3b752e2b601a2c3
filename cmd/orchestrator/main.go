// apps/go-server/cmd/orchestrator/main.go
//
// Game orchestrator: the HTTP endpoint clients talk to. It owns sessions and
// calls the word service over UDP and the account service over HTTP.

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
	"github.com/robalobadob/crossword/apps/go-server/internal/generator"
	"github.com/robalobadob/crossword/apps/go-server/internal/httpserver"
	"github.com/robalobadob/crossword/apps/go-server/internal/idempotency"
	"github.com/robalobadob/crossword/apps/go-server/internal/orchestrator"
	"github.com/robalobadob/crossword/apps/go-server/internal/store"
	"github.com/robalobadob/crossword/apps/go-server/internal/wordsvc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.Log.ConfigureLogging("orchestrator")
	oc := cfg.Orchestrator

	wc := wordsvc.NewClient(oc.WordServiceAddr, oc.RPCTimeout)
	defer wc.Close()
	ac := accounts.NewClient(oc.AccountServiceURL, oc.RPCTimeout)

	svc := orchestrator.New(wc, ac, generator.New(wc), store.NewMemoryStore(), orchestrator.Options{
		RPCTimeout: oc.RPCTimeout,
		Idempotency: idempotency.Config{
			TTL:     oc.IdempotencyTTL,
			Grace:   oc.IdempotencyGrace,
			Cleanup: oc.IdempotencySweep,
		},
	})
	defer svc.Close()

	srv := &http.Server{
		Addr: ":" + oc.Port,
		Handler: httpserver.New(svc, httpserver.Options{
			Secret:         []byte(oc.JWTSecret),
			TokenTTL:       oc.TokenTTL,
			Workers:        oc.Workers,
			Backlog:        oc.Backlog,
			RequestTimeout: oc.RequestTimeout,
			ClientOrigin:   oc.ClientOrigin,
			SecureCookies:  cfg.IsProduction(),
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", oc.Port).Str("words", oc.WordServiceAddr).Str("accounts", oc.AccountServiceURL).
			Int("workers", oc.Workers).Msg("starting orchestrator")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), oc.RequestTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
