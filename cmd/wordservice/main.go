// apps/go-server/cmd/wordservice/main.go
//
// Word service: owns the word list (SQLite, seeded on first start) and
// answers single-datagram requests over UDP.

package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/apps/go-server/internal/config"
	"github.com/robalobadob/crossword/apps/go-server/internal/sqlitedb"
	"github.com/robalobadob/crossword/apps/go-server/internal/words"
	"github.com/robalobadob/crossword/apps/go-server/internal/wordsvc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.Log.ConfigureLogging("wordservice")
	wc := cfg.WordService

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlitedb.Open(wc.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", wc.DBPath).Msg("open database")
	}
	defer db.Close()

	list, err := words.Open(ctx, db, wc.WordsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load word list")
	}

	conn, err := net.ListenPacket("udp", wc.Addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", wc.Addr).Msg("listen")
	}
	log.Info().Str("addr", conn.LocalAddr().String()).Int("words", list.Len()).Msg("starting word service")
	if err := wordsvc.NewServer(list).Serve(ctx, conn); err != nil {
		log.Error().Err(err).Msg("word service exited")
		return
	}
	log.Info().Msg("word service stopped")
}
