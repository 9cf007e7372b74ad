// Package config loads a project's bract.toml manifest: the target
// architecture (selects the contract cost table), the worker-pool size for
// the parallel analysis/lowering stages, and cancellation thresholds.
// Grounded on internal/project's surge.toml parsing, trimmed to the handful
// of fields Bract's driver actually consumes.
package config

import (
	"fmt"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the decoded shape of a bract.toml manifest.
type Config struct {
	Build BuildConfig `toml:"build"`
}

// BuildConfig controls how the driver schedules and bounds a compilation run.
type BuildConfig struct {
	// Target names the cost table contract.Engine should charge against
	// (spec.md §4.5); empty means the host architecture's default table.
	Target string `toml:"target"`
	// Jobs caps how many functions the parallel BIR-lowering pool runs at
	// once; zero or negative means runtime.GOMAXPROCS(0).
	Jobs int `toml:"jobs"`
	// CancelAfterMS aborts a build after this many milliseconds; zero means
	// no deadline beyond the CLI's own --timeout flag.
	CancelAfterMS int `toml:"cancel_after_ms"`
}

// Default returns the configuration used when no bract.toml is present.
func Default() Config {
	return Config{Build: BuildConfig{Jobs: runtime.GOMAXPROCS(0)}}
}

// Load parses a bract.toml manifest at path, filling in defaults for any
// field the file leaves unset.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.Build.Jobs <= 0 {
		cfg.Build.Jobs = runtime.GOMAXPROCS(0)
	}
	return cfg, nil
}

// JobsOrDefault returns jobs if positive, else runtime.GOMAXPROCS(0).
func JobsOrDefault(jobs int) int {
	if jobs > 0 {
		return jobs
	}
	return runtime.GOMAXPROCS(0)
}
