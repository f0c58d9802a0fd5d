package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"
	"github.com/gojek/heimdall/v7/httpclient"

	"github.com/stackclock/timetrack/internal/report"
)

type (
	// Client ships run reports to an ingest endpoint.
	Client struct {
		http *httpclient.Client
		url  string
	}

	ErrorResponse struct {
		Error Error `json:"error"`
	}

	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
)

func NewClient(host string) (Client, error) {
	if host == "" {
		return Client{}, errors.New("host must be set")
	}
	return Client{
		url: fmt.Sprintf("%s/reports", host),
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(30*time.Second),
			httpclient.WithRetryCount(3),
		),
	}, nil
}

func (c Client) URL() string {
	return c.url
}

// SendReport posts one run report to the ingest endpoint.
func (c Client) SendReport(ctx context.Context, r report.Report) error {
	s := sentry.StartSpan(ctx, "http.client")
	s.Description = "Send report"
	defer s.Finish()

	body, err := gojson.Marshal(r)
	if err != nil {
		return err
	}

	headers := make(http.Header)
	headers.Set("content-type", "application/json")
	headers.Set("sentry-trace", s.ToSentryTrace())
	headers.Set("referer", "timetrack.recorder")
	resp, err := c.http.Post(c.url, bytes.NewReader(body), headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode <= 599 {
		var errResponse ErrorResponse
		_ = gojson.NewDecoder(resp.Body).Decode(&errResponse)
		return fmt.Errorf(
			"error while sending the report. http status: %d, type: %s, message: %s",
			resp.StatusCode,
			errResponse.Error.Type,
			errResponse.Error.Message,
		)
	}
	return nil
}
