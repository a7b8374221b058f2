package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
// The engine knobs are application-level defaults; a grid's settings block
// overrides them for the run it participates in.
type Config struct {
	GridPath string // hcl file or directory of hcl files

	LogFormat string
	LogLevel  string
	StatsPort int // 0 disables the stats server

	// Workers pins the pool width directly. 0 lets TopologyMode decide.
	Workers             int
	TopologyMode        string
	TopologyMaxGroups   int
	DeferWorkerStartup  bool
	DedicatedWaitThread bool
	WorkerLocalMemory   int
	FlushOrder          string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}

	// Future validations for other fields can be added here.

	return &cfg, nil
}
