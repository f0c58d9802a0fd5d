package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/julienschmidt/httprouter"
	"github.com/segmentio/kafka-go"
	"gocloud.dev/gcerrors"

	"github.com/stackclock/timetrack/internal/calltree"
	"github.com/stackclock/timetrack/internal/httputil"
	"github.com/stackclock/timetrack/internal/report"
	"github.com/stackclock/timetrack/internal/speedscope"
	"github.com/stackclock/timetrack/internal/storageutil"
	"github.com/stackclock/timetrack/internal/timeutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	postReportResponse struct {
		RunID string `json:"run_id"`
	}

	getFunctionsResponse struct {
		Functions []calltree.FunctionMetrics `json:"functions"`
	}
)

func (env *environment) postReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	s := sentry.StartSpan(ctx, "processing")
	s.Description = "Read HTTP body"
	body, err := io.ReadAll(r.Body)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	rep := new(report.Report)
	s = sentry.StartSpan(ctx, "json.unmarshal")
	s.Description = "Unmarshal report"
	err = json.Unmarshal(body, rep)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(rep.Records) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if rep.RunID == "" {
		rep.RunID = uuid.New().String()
	}
	if rep.Received.IsZero() {
		rep.Received = timeutil.Time(time.Now().UTC())
	}

	hub.Scope().SetContext("Report metadata", map[string]interface{}{
		"run_id":  rep.RunID,
		"name":    rep.Name,
		"records": len(rep.Records),
		"size":    len(body),
	})

	s = sentry.StartSpan(ctx, "blob.write")
	s.Description = "Write report to storage"
	err = storageutil.CompressedWrite(ctx, env.storage, rep.StoragePath(), rep)
	s.Finish()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// This is a transient error, we'll retry
			w.WriteHeader(http.StatusTooManyRequests)
		} else {
			// These errors won't be retried
			hub.CaptureException(err)
			if code := gcerrors.Code(err); code == gcerrors.FailedPrecondition {
				w.WriteHeader(http.StatusPreconditionFailed)
			} else {
				w.WriteHeader(http.StatusInternalServerError)
			}
		}
		return
	}

	s = sentry.StartSpan(ctx, "json.marshal")
	s.Description = "Marshal run Kafka message"
	b, err := gojson.Marshal(buildRunKafkaMessage(*rep))
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s = sentry.StartSpan(ctx, "processing")
	s.Description = "Send run to Kafka"
	err = env.runsWriter.WriteMessages(ctx, kafka.Message{
		Topic: env.config.RunsKafkaTopic,
		Value: b,
	})
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.Finish()

	s = sentry.StartSpan(ctx, "json.marshal")
	defer s.Finish()
	b, err = gojson.Marshal(postReportResponse{RunID: rep.RunID})
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

// readReport loads one stored report, mapping a missing object to a 404 and
// anything else to a 500 on the ResponseWriter.
func (env *environment) readReport(ctx context.Context, w http.ResponseWriter, runID string) (report.Report, bool) {
	hub := sentry.GetHubFromContext(ctx)

	var rep report.Report
	s := sentry.StartSpan(ctx, "blob.read")
	s.Description = "Read report from storage"
	err := storageutil.UnmarshalCompressed(ctx, env.storage, report.StoragePath(runID), &rep)
	s.Finish()
	if err != nil {
		if errors.Is(err, storageutil.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return rep, false
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return rep, false
	}
	return rep, true
}

func (env *environment) getReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)
	ps := httprouter.ParamsFromContext(ctx)
	runID := ps.ByName("run_id")

	hub.Scope().SetTag("run_id", runID)

	rep, ok := env.readReport(ctx, w, runID)
	if !ok {
		return
	}

	s := sentry.StartSpan(ctx, "json.marshal")
	defer s.Finish()
	b, err := gojson.Marshal(rep)
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (env *environment) getReportSpeedscope(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)
	ps := httprouter.ParamsFromContext(ctx)
	runID := ps.ByName("run_id")

	hub.Scope().SetTag("run_id", runID)

	rep, ok := env.readReport(ctx, w, runID)
	if !ok {
		return
	}

	s := sentry.StartSpan(ctx, "processing")
	s.Description = "Generate speedscope profile"
	output := speedscope.FromRecords(rep.Name, rep.RunID, rep.Records)
	s.Finish()

	s = sentry.StartSpan(ctx, "json.marshal")
	defer s.Finish()
	b, err := gojson.Marshal(output)
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (env *environment) getFunctions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	params, logger, ok := httputil.GetRequiredQueryParameters(w, r, "run_id")
	if !ok {
		return
	}
	runID := params["run_id"]

	hub.Scope().SetTag("run_id", runID)

	rep, ok := env.readReport(ctx, w, runID)
	if !ok {
		return
	}
	logger.Debug().Int("records", len(rep.Records)).Msg("report found")

	ma := calltree.NewAggregator(env.config.MaxUniqueFunctions, env.config.MaxFunctionExamples)
	ma.AddRecords(rep.Records, rep.RunID)

	s := sentry.StartSpan(ctx, "json.marshal")
	defer s.Finish()
	b, err := gojson.Marshal(getFunctionsResponse{Functions: ma.ToMetrics()})
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
