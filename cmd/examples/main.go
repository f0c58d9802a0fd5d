package main

import (
	"errors"
	"os"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stackclock/timetrack"
	"github.com/stackclock/timetrack/internal/logutil"
	"github.com/stackclock/timetrack/internal/speedscope"
)

func main() {
	var config ExamplesConfig
	if err := cleanenv.ReadEnv(&config); err != nil {
		log.Fatal().Err(err).Msg("error reading configuration")
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	logutil.ConfigureLogger(level, config.Pretty)

	collector := new(timetrack.Collector)
	recordLogger := logutil.RecordLogger{Logger: log.Logger}
	logger := timetrack.LoggerFunc(func(r timetrack.Record) {
		recordLogger.Log(r)
		collector.Log(r)
	})

	var opts []timetrack.Option
	if config.Disabled {
		opts = append(opts, timetrack.Disabled())
	}
	if config.Shared {
		opts = append(opts, timetrack.Shared())
	}
	tr := timetrack.New(logger, opts...)

	runDemos(tr, config.SleepUnit)

	if config.SpeedscopePath != "" {
		output := speedscope.FromRecords("examples", tr.ID().String(), collector.Records())
		b, err := gojson.MarshalIndent(output, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("error marshaling the speedscope profile")
		}
		if err := os.WriteFile(config.SpeedscopePath, b, 0644); err != nil {
			log.Fatal().Err(err).Msg("error writing the speedscope profile")
		}
		log.Info().Str("path", config.SpeedscopePath).Msg("speedscope profile written")
	}
}

// runDemos walks through the demo scenarios: plain nesting, mutual
// recursion, a recursive call explosion, an error chain and a panic.
func runDemos(tr *timetrack.Tracker, unit time.Duration) {
	// nested calls
	dodo := timetrack.Wrap(tr, func(x, i int) int {
		time.Sleep(time.Duration(i) * unit)
		return x
	}, timetrack.WithName("dodo"))

	boo := timetrack.Wrap(tr, func(x, y int) int {
		time.Sleep(2 * unit)
		return dodo(x, 3) + dodo(y, 4)
	}, timetrack.WithName("boo"))

	boo(1, 2)

	// mutual recursion
	var f, g func(x, i int) int
	f = timetrack.Wrap(tr, func(x, i int) int {
		time.Sleep(unit)
		if i == 0 {
			return x
		}
		return 3*g(x, i) + 1
	}, timetrack.WithName("f"))
	g = timetrack.Wrap(tr, func(x, i int) int {
		time.Sleep(3 * unit)
		res := f(x-1, i-1) / 2
		time.Sleep(4 * unit)
		return res
	}, timetrack.WithName("g"))

	f(1, 2)

	// naive Fibonacci, one record per recursive call
	var fibo func(n int) int
	fibo = timetrack.Wrap(tr, func(n int) int {
		if n == 0 || n == 1 {
			return 1
		}
		return fibo(n-1) + fibo(n-2)
	}, timetrack.WithName("fibo"), timetrack.WithFields(map[string]interface{}{
		"algo": "naive",
	}))

	fibo(5)

	// a failing call still gets timed, as does every caller above it
	fail := timetrack.Wrap(tr, func() error {
		time.Sleep(2 * unit)
		return errors.New("boo")
	}, timetrack.WithName("fail"))

	failCaller := timetrack.Wrap(tr, func() error {
		time.Sleep(unit)
		return fail()
	}, timetrack.WithName("failCaller"))

	if err := failCaller(); err != nil {
		log.Warn().Err(err).Msg("call chain failed")
	}

	// a panicking call unwinds through its wrapper with the record emitted
	explode := timetrack.Wrap(tr, func() {
		time.Sleep(unit)
		panic("kaboom")
	}, timetrack.WithName("explode"))

	func() {
		defer func() {
			if v := recover(); v != nil {
				log.Warn().Interface("panic", v).Msg("recovered from panic")
			}
		}()
		explode()
	}()
}
