package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/stackclock/timetrack/internal/logutil"
	"github.com/stackclock/timetrack/internal/report"
	"github.com/stackclock/timetrack/internal/storageutil"
)

type DownloaderConfig struct {
	ReportsBucketURL string `env:"REPORTS_BUCKET_URL" env-default:"file:///var/lib/timetrack-reports"`
	Workers          int    `env:"DOWNLOAD_WORKERS" env-default:"128"`
	LogLevel         string `env:"LOG_LEVEL" env-default:"info"`
}

// downloadReports fetches the listed runs through a read worker pool and
// writes each report as indented JSON under destination. Runs already
// downloaded are skipped. It returns how many reports were written.
func downloadReports(ctx context.Context, bucket *blob.Bucket, runIDs []string, destination string, workers int) int {
	jobs := make(chan storageutil.ReadJob, workers)
	defer close(jobs)
	for i := 0; i < workers; i++ {
		go storageutil.ReadWorker(jobs)
	}

	pending := make([]string, 0, len(runIDs))
	for _, runID := range runIDs {
		if _, err := os.Stat(destinationPath(destination, runID)); err == nil {
			continue
		}
		pending = append(pending, runID)
	}

	results := make(chan storageutil.ReadJobResult, len(pending))
	defer close(results)

	for _, runID := range pending {
		jobs <- report.ReadJob{
			Ctx:     ctx,
			Storage: bucket,
			RunID:   runID,
			Result:  results,
		}
	}

	var downloaded int
	for i := 0; i < len(pending); i++ {
		res := (<-results).(report.ReadJobResult)
		if res.Err != nil {
			if errors.Is(res.Err, storageutil.ErrObjectNotFound) {
				log.Warn().Str("run_id", res.Report.RunID).Msg("no report stored for this run")
			} else {
				log.Error().Err(res.Err).Str("run_id", res.Report.RunID).Msg("can't read the report")
			}
			continue
		}

		data, err := gojson.MarshalIndent(res.Report, "", "  ")
		if err != nil {
			log.Error().Err(err).Str("run_id", res.Report.RunID).Msg("can't marshal the report")
			continue
		}
		err = os.WriteFile(destinationPath(destination, res.Report.RunID), data, 0644)
		if err != nil {
			log.Error().Err(err).Str("run_id", res.Report.RunID).Msg("can't write the report")
			continue
		}

		downloaded++
		log.Info().Str("run_id", res.Report.RunID).Msg("report downloaded")
	}

	return downloaded
}

func destinationPath(destination, runID string) string {
	return filepath.Join(destination, fmt.Sprintf("%s.json", runID))
}

func readRunIDs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var runIDs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		runID := strings.TrimSpace(scanner.Text())
		if runID == "" {
			continue
		}
		runIDs = append(runIDs, runID)
	}

	return runIDs, scanner.Err()
}

func main() {
	args := os.Args[1:]
	if len(args) != 2 {
		fmt.Println("./downloader <file of run IDs> <destination directory>")
		return
	}

	var config DownloaderConfig
	if err := cleanenv.ReadEnv(&config); err != nil {
		log.Fatal().Err(err).Msg("can't read the configuration")
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("can't parse the log level")
	}
	logutil.ConfigureLogger(level, true)

	runIDs, err := readRunIDs(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("can't read the run ID list")
	}

	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, config.ReportsBucketURL)
	if err != nil {
		log.Fatal().Err(err).Msg("can't open the reports bucket")
	}
	defer bucket.Close()

	downloaded := downloadReports(ctx, bucket, runIDs, args[1], config.Workers)
	log.Info().Int("downloaded", downloaded).Int("requested", len(runIDs)).Msg("done")
}
