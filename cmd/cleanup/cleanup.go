package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/stackclock/timetrack/internal/logutil"
	"github.com/stackclock/timetrack/internal/report"
)

type CleanupConfig struct {
	ReportsBucketURL string `env:"REPORTS_BUCKET_URL" env-default:"file:///var/lib/timetrack-reports"`
	RetentionDays    int64  `env:"RETENTION_DAYS" env-default:"90"`
	SentryDSN        string `env:"SENTRY_DSN"`
	LogLevel         string `env:"LOG_LEVEL" env-default:"info"`
}

// cleanup deletes every stored report written before timeLimit and returns
// how many were deleted.
func cleanup(ctx context.Context, bucket *blob.Bucket, timeLimit time.Time) (int, error) {
	var removed int

	iter := bucket.List(&blob.ListOptions{Prefix: report.StoragePrefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return removed, err
		}

		if timeLimit.After(obj.ModTime) {
			err = bucket.Delete(ctx, obj.Key)
			if err != nil {
				return removed, err
			}
			removed++
		}
	}

	return removed, nil
}

func main() {
	var config CleanupConfig
	if err := cleanenv.ReadEnv(&config); err != nil {
		log.Fatal().Err(err).Msg("can't read the configuration")
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("can't parse the log level")
	}
	logutil.ConfigureLogger(level, false)

	err = sentry.Init(sentry.ClientOptions{
		Dsn: config.SentryDSN,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}

	ctx := context.Background()
	reportsBucket, err := blob.OpenBucket(ctx, config.ReportsBucketURL)
	if err != nil {
		log.Fatal().Err(err).Msg("can't open the reports bucket")
	}
	defer reportsBucket.Close()

	c := cron.New()
	_, err = c.AddFunc("@daily", func() {
		// The cut-off moves with the clock, a long-lived process must not
		// reuse the limit computed at startup.
		timeLimit := time.Now().Add(time.Hour * 24 * -1 * time.Duration(config.RetentionDays))

		removed, err := cleanup(ctx, reportsBucket, timeLimit)
		if err != nil {
			sentry.CaptureException(err)
			log.Error().Err(err).Msg("error cleaning up reports")
			return
		}
		log.Info().Int("removed", removed).Msg("reports cleaned up")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't set up cron function")
	}

	exitSignal := make(chan os.Signal, 1)
	signal.Notify(exitSignal, os.Interrupt)

	go func() {
		<-exitSignal

		c.Stop()
	}()

	c.Run()
}
