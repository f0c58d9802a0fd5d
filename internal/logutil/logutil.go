package logutil

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stackclock/timetrack"
)

// ConfigureLogger sets the process-wide logging defaults. Output is machine
// readable JSON; pretty switches to the console writer for local runs.
func ConfigureLogger(level zerolog.Level, pretty bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Caller().Stack().Logger().Level(level)
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// RecordLogger emits one structured log line per timing record.
type RecordLogger struct {
	Logger zerolog.Logger
}

func (l RecordLogger) Log(r timetrack.Record) {
	ev := l.Logger.Info().
		Str("function", r.FullName()).
		Int("depth", r.Depth).
		Dur("total", r.Total()).
		Dur("self", r.Self())
	if len(r.Args) > 0 {
		ev = ev.Interface("args", r.Args)
	}
	for k, v := range r.Fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("call timed")
}
