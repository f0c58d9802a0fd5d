package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"

	"github.com/stackclock/timetrack/internal/calltree"
	"github.com/stackclock/timetrack/internal/report"
	"github.com/stackclock/timetrack/internal/storageutil"
)

type (
	postMetricsRequestBody struct {
		RunIDs []string `json:"run_ids"`
	}

	postMetricsResponse struct {
		FunctionsMetrics []calltree.FunctionMetrics `json:"functions_metrics"`
	}
)

func (env *environment) postMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	var body postMetricsRequestBody
	s := sentry.StartSpan(ctx, "processing")
	s.Description = "Decoding data"
	err := json.NewDecoder(r.Body).Decode(&body)
	s.Finish()
	if err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(body.RunIDs) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s = sentry.StartSpan(ctx, "processing")
	s.Description = "Aggregate function metrics"
	functionsMetrics, err := env.aggregateFunctions(ctx, body.RunIDs)
	s.Finish()
	if err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "json.marshal")
	defer s.Finish()
	b, err := gojson.Marshal(postMetricsResponse{
		FunctionsMetrics: functionsMetrics,
	})
	if err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

// aggregateFunctions reads each run's report through the worker pool and
// folds every run into one per-function metrics aggregate. Missing runs are
// skipped.
func (env *environment) aggregateFunctions(ctx context.Context, runIDs []string) ([]calltree.FunctionMetrics, error) {
	hub := sentry.GetHubFromContext(ctx)
	results := make(chan storageutil.ReadJobResult, len(runIDs))
	defer close(results)

	for _, runID := range runIDs {
		readJobs <- report.ReadJob{
			Ctx:     ctx,
			Storage: env.storage,
			RunID:   runID,
			Result:  results,
		}
	}

	ma := calltree.NewAggregator(env.config.MaxUniqueFunctions, env.config.MaxFunctionExamples)
	countReportsAggregated := 0
	for i := 0; i < len(runIDs); i++ {
		res := (<-results).(report.ReadJobResult)
		if res.Err != nil {
			if errors.Is(res.Err, storageutil.ErrObjectNotFound) {
				continue
			}
			if errors.Is(res.Err, context.DeadlineExceeded) {
				return nil, res.Err
			}
			hub.CaptureException(res.Err)
			continue
		}
		ma.AddRecords(res.Report.Records, res.Report.RunID)
		countReportsAggregated++
	}

	hub.Scope().SetTag("processed_reports", strconv.Itoa(countReportsAggregated))
	return ma.ToMetrics(), nil
}
