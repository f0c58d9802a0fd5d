package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/stackclock/timetrack/internal/httputil"
	"github.com/stackclock/timetrack/internal/ingest"
	"github.com/stackclock/timetrack/internal/logutil"
	"github.com/stackclock/timetrack/internal/storageutil"
)

type environment struct {
	config ServiceConfig

	storage    *blob.Bucket
	runsWriter KafkaWriter

	ingest *ingest.Client
}

var (
	release string

	readJobs chan storageutil.ReadJob
)

func newEnvironment() (*environment, error) {
	var e environment
	if err := cleanenv.ReadEnv(&e.config); err != nil {
		return nil, err
	}

	ctx := context.Background()
	var err error
	e.storage, err = blob.OpenBucket(ctx, e.config.ReportsBucketURL)
	if err != nil {
		return nil, err
	}
	e.runsWriter = &kafka.Writer{
		Addr:         kafka.TCP(e.config.RunsKafkaBrokers...),
		Async:        true,
		Balancer:     kafka.CRC32Balancer{},
		BatchSize:    10,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if e.config.IngestHost != "" {
		client, err := ingest.NewClient(e.config.IngestHost)
		if err != nil {
			return nil, err
		}
		e.ingest = &client
	}
	return &e, nil
}

func (e *environment) shutdown() {
	err := e.storage.Close()
	if err != nil {
		sentry.CaptureException(err)
	}
	err = e.runsWriter.Close()
	if err != nil {
		sentry.CaptureException(err)
	}
	sentry.Flush(5 * time.Second)
}

func (e *environment) newRouter() (*httprouter.Router, error) {
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/health", e.getHealth},
		{http.MethodGet, "/functions", e.getFunctions},
		{http.MethodGet, "/reports/:run_id", e.getReport},
		{http.MethodGet, "/reports/:run_id/speedscope", e.getReportSpeedscope},
		{http.MethodPost, "/metrics", e.postMetrics},
		{http.MethodPost, "/reports", e.postReport},
	}

	router := httprouter.New()

	for _, route := range routes {
		handlerFunc := httputil.DecompressPayload(route.handler)
		handler := compress(handlerFunc)

		router.Handler(route.method, route.path, handler)
	}

	return router, nil
}

func main() {
	env, err := newEnvironment()
	if err != nil {
		log.Fatal().Err(err).Msg("error setting up environment")
	}

	level, err := zerolog.ParseLevel(env.config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logutil.ConfigureLogger(level, env.config.Environment == "development")

	err = sentry.Init(sentry.ClientOptions{
		Dsn:                   env.config.SentryDSN,
		EnableTracing:         true,
		Environment:           env.config.Environment,
		Release:               release,
		TracesSampleRate:      1.0,
		BeforeSendTransaction: httputil.SetHTTPStatusCodeTag,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}

	switch env.config.Mode {
	case "record":
		err := env.record(context.Background(), os.Stdout)
		if err != nil {
			sentry.CaptureException(err)
			log.Err(err).Msg("error recording the workload")
		}
		env.shutdown()
		if err != nil {
			os.Exit(1)
		}
	case "serve":
		env.serve()
	default:
		log.Fatal().Str("mode", env.config.Mode).Msg("unknown recorder mode")
	}
}

func (e *environment) serve() {
	readJobs = make(chan storageutil.ReadJob, e.config.ReadWorkers)
	for i := 0; i < e.config.ReadWorkers; i++ {
		go storageutil.ReadWorker(readJobs)
	}

	router, err := e.newRouter()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("error setting up the router")
	}

	server := http.Server{
		Addr:    ":" + strconv.Itoa(e.config.Port),
		Handler: sentryhttp.New(sentryhttp.Options{}).Handle(router),
	}

	waitForShutdown := make(chan os.Signal)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(cctx); err != nil {
			sentry.CaptureException(err)
			log.Err(err).Msg("error shutting down server")
		}

		close(waitForShutdown)
	}()

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		sentry.CaptureException(err)
		log.Err(err).Msg("server failed")
	}

	<-waitForShutdown

	// Shutdown the rest of the environment after the HTTP connections are closed
	e.shutdown()
}

func (e *environment) getHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
