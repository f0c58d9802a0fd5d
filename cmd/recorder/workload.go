package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/stackclock/timetrack"
	"github.com/stackclock/timetrack/internal/calltree"
	"github.com/stackclock/timetrack/internal/report"
	"github.com/stackclock/timetrack/internal/storageutil"
	"github.com/stackclock/timetrack/internal/timeutil"
)

type document struct {
	id    int
	words int
}

// runPipeline executes the built-in workload: a fetch, parse, store pipeline
// instrumented call by call. Every stage sleeps a multiple of scale so the
// recorded shape is stable across hosts.
func runPipeline(tr *timetrack.Tracker, scale time.Duration, batches int) {
	fetch := timetrack.Wrap(tr, func(i int) string {
		time.Sleep(2 * scale)
		return fmt.Sprintf("payload %d lorem ipsum", i)
	}, timetrack.WithName("fetch"))

	parse := timetrack.Wrap(tr, func(i int, payload string) document {
		time.Sleep(scale)
		return document{id: i, words: len(strings.Fields(payload))}
	}, timetrack.WithName("parse"))

	store := timetrack.Wrap(tr, func(doc document) int {
		s := tr.Start("encode", doc.id)
		time.Sleep(scale)
		s.End()
		time.Sleep(scale)
		return doc.words
	}, timetrack.WithName("store"))

	process := timetrack.Wrap(tr, func(n int) int {
		var words int
		for i := 0; i < n; i++ {
			doc := parse(i, fetch(i))
			words += store(doc)
		}
		return words
	}, timetrack.WithName("process"))

	process(batches)
}

// record runs the workload once, prints the call tree and the per-function
// metrics to out, stores the run and announces it downstream.
func (e *environment) record(ctx context.Context, out io.Writer) error {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector)

	runPipeline(tr, e.config.WorkloadScale, e.config.WorkloadBatches)

	rep := report.Report{
		RunID:    tr.ID().String(),
		Name:     e.config.WorkloadName,
		Received: timeutil.Time(time.Now().UTC()),
		Records:  collector.Records(),
	}

	roots := calltree.Build(rep.Records)
	if err := calltree.Render(out, roots); err != nil {
		return err
	}

	ma := calltree.NewAggregator(e.config.MaxUniqueFunctions, e.config.MaxFunctionExamples)
	ma.AddRecords(rep.Records, rep.RunID)
	if err := writeMetricsTable(out, ma.ToMetrics()); err != nil {
		return err
	}

	s := sentry.StartSpan(ctx, "blob.write")
	s.Description = "Write report to storage"
	err := storageutil.CompressedWrite(ctx, e.storage, rep.StoragePath(), rep)
	s.Finish()
	if err != nil {
		return err
	}

	b, err := gojson.Marshal(buildRunKafkaMessage(rep))
	if err != nil {
		return err
	}
	err = e.runsWriter.WriteMessages(ctx, kafka.Message{
		Topic: e.config.RunsKafkaTopic,
		Value: b,
	})
	if err != nil {
		return err
	}

	if e.ingest != nil {
		if err := e.ingest.SendReport(ctx, rep); err != nil {
			return err
		}
	}

	log.Info().
		Str("run_id", rep.RunID).
		Int("records", len(rep.Records)).
		Dur("duration", time.Duration(rep.DurationNS())).
		Msg("run recorded")
	return nil
}

func writeMetricsTable(w io.Writer, metrics []calltree.FunctionMetrics) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "FUNCTION\tCOUNT\tSUM\tAVG\tP95\tWORST RUN")
	for _, m := range metrics {
		name := m.Name
		if m.Package != "" {
			name = m.Package + "." + m.Name
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			name,
			m.Count,
			time.Duration(m.Sum),
			time.Duration(m.Avg),
			time.Duration(m.P95),
			m.Worst,
		)
	}
	return tw.Flush()
}
