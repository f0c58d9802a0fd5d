package main

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/stackclock/timetrack/internal/report"
)

// KafkaWriter is the part of kafka.Writer the recorder uses, so tests can
// substitute their own implementation.
type KafkaWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

type (
	RunKafkaMessage struct {
		RunID string `json:"run_id"`
		Name  string `json:"name"`

		Received    float64 `json:"received"`
		DurationNS  uint64  `json:"duration_ns"`
		RecordCount int     `json:"record_count"`
	}
)

func buildRunKafkaMessage(r report.Report) *RunKafkaMessage {
	return &RunKafkaMessage{
		RunID:       r.RunID,
		Name:        r.Name,
		Received:    float64(r.Received.Time().Unix()),
		DurationNS:  r.DurationNS(),
		RecordCount: len(r.Records),
	}
}
