package main

import "time"

type ServiceConfig struct {
	Environment string `env:"SENTRY_ENVIRONMENT" env-default:"development"`
	Port        int    `env:"PORT" env-default:"8080"`

	// Mode selects what the binary does: "record" runs the built-in
	// workload once and fans the run out, "serve" exposes stored runs
	// over HTTP.
	Mode string `env:"RECORDER_MODE" env-default:"record"`

	SentryDSN string `env:"SENTRY_DSN"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`

	ReportsBucketURL string `env:"REPORTS_BUCKET_URL" env-default:"mem://"`

	RunsKafkaBrokers []string `env:"RUNS_KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	RunsKafkaTopic   string   `env:"RUNS_KAFKA_TOPIC" env-default:"timetrack-runs"`

	// IngestHost is the base URL of a serve-mode peer to forward recorded
	// runs to. Forwarding is disabled when empty.
	IngestHost string `env:"INGEST_HOST"`

	WorkloadName    string        `env:"WORKLOAD_NAME" env-default:"pipeline"`
	WorkloadScale   time.Duration `env:"WORKLOAD_SCALE" env-default:"10ms"`
	WorkloadBatches int           `env:"WORKLOAD_BATCHES" env-default:"3"`

	MaxUniqueFunctions  uint `env:"MAX_UNIQUE_FUNCTIONS" env-default:"100"`
	MaxFunctionExamples uint `env:"MAX_FUNCTION_EXAMPLES" env-default:"5"`

	ReadWorkers int `env:"READ_WORKERS" env-default:"4"`
}
