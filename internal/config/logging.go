package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureLogging sets the global zerolog level and output. Unknown levels
// keep the default (info).
func (l LogConfig) ConfigureLogging(service string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if lvl, err := zerolog.ParseLevel(l.Level); err == nil && l.Level != "" {
		zerolog.SetGlobalLevel(lvl)
	}
	var out io.Writer = os.Stderr
	if l.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", service).Logger()
}
