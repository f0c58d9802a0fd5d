package main

import "time"

type ExamplesConfig struct {
	// Disabled turns instrumentation off entirely: wrapped functions run
	// without timing and no records are emitted.
	Disabled bool `env:"TIMETRACK_DISABLED" env-default:"false"`

	// Shared makes the tracker use the process-wide stacks instead of its
	// own.
	Shared bool `env:"TIMETRACK_SHARED" env-default:"false"`

	LogLevel string `env:"LOG_LEVEL" env-default:"debug"`
	Pretty   bool   `env:"PRETTY" env-default:"true"`

	// SleepUnit scales every demo sleep. The demos sleep small integer
	// multiples of this unit.
	SleepUnit time.Duration `env:"SLEEP_UNIT" env-default:"100ms"`

	// SpeedscopePath, when set, dumps the run as a speedscope document.
	SpeedscopePath string `env:"SPEEDSCOPE_PATH"`
}
