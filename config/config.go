// Package config parses the command-line surface into an immutable Config
// shared read-only by every pipeline worker, using a flat go-flags option
// struct (no subcommands, since mapscan is a single-invocation tool).
package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/mt-map-search/mapscan/coord"
	"github.com/mt-map-search/mapscan/errkind"
	"github.com/mt-map-search/mapscan/sourcestore"
)

// options mirrors the flag table in the external interface: one flat
// struct, no subcommands, since mapscan is a single-invocation tool.
type options struct {
	Min         string  `long:"min" description:"Lower block coordinate inclusive, as x,y,z" default:""`
	Max         string  `long:"max" description:"Upper block coordinate inclusive, as x,y,z" default:""`
	Pos         string  `long:"pos" description:"Scan only the single block x,y,z (same as --min x,y,z --max x,y,z)" default:""`
	Map         string  `long:"map" description:"Source store location (path or connection string)" required:"true"`
	Out         string  `long:"out" description:"Analytic sink output file; any pre-existing file is removed" required:"true"`
	Driver      string  `long:"driver" description:"Source back-end: sqlite, postgresql, or pgsql" default:"sqlite"`
	Pattern     string  `long:"pattern" description:"Name-filter pattern file" default:""`
	Threads     int     `long:"threads" description:"Worker count; 0 runs the producer and a single worker serially" default:"0"`
	MaxLoadAvg  float64 `long:"max_load_avg" description:"Reserved throttle; defaults to the CPU count. Recorded in the config, not used to throttle workers"`
	Radius      int     `long:"radius" description:"Preserve radius, in blocks" default:"0"`
	Stats       string  `long:"stats" description:"Append a CSV line of runtime stats to this file" default:""`
	Minegeld    bool    `long:"minegeld" description:"Enable per-node currency accounting"`
}

// Config is the parsed, validated, read-only configuration passed to the
// pipeline driver.
type Config struct {
	Min, Max    coord.BC
	MapURI      string
	OutPath     string
	Driver      sourcestore.Driver
	PatternPath string
	Threads     int
	MaxLoadAvg  float64
	Radius      int
	StatsPath   string
	Minegeld    bool
}

// Parse parses argv (excluding the program name) into a Config. A
// flags.ErrHelp is propagated verbatim so the caller can exit 0 without
// printing a second error; any other failure is wrapped as a
// *errkind.ConfigError.
func Parse(argv []string) (*Config, error) {
	var opt options
	parser := flags.NewParser(&opt, flags.Default)
	parser.Name = "mapscan"
	parser.LongDescription = "Scans a Minetest world's map blocks and writes an analytic sqlite database."

	if _, err := parser.ParseArgs(argv); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
		return nil, errkind.NewConfigError("parsing flags: %v", err)
	}

	cfg := &Config{
		Min:         coord.Min(),
		Max:         addOne(coord.Max()),
		MapURI:      opt.Map,
		OutPath:     opt.Out,
		PatternPath: opt.Pattern,
		Threads:     opt.Threads,
		MaxLoadAvg:  opt.MaxLoadAvg,
		Radius:      opt.Radius,
		StatsPath:   opt.Stats,
		Minegeld:    opt.Minegeld,
	}
	if cfg.MaxLoadAvg == 0 {
		cfg.MaxLoadAvg = float64(runtime.NumCPU())
	}
	if cfg.Radius < 0 {
		return nil, errkind.NewConfigError("--radius must be >= 0, got %d", cfg.Radius)
	}
	if cfg.Threads < 0 {
		return nil, errkind.NewConfigError("--threads must be >= 0, got %d", cfg.Threads)
	}

	driver, err := parseDriver(opt.Driver)
	if err != nil {
		return nil, err
	}
	cfg.Driver = driver

	if opt.Pos != "" {
		if opt.Min != "" || opt.Max != "" {
			return nil, errkind.NewConfigError("--pos cannot be combined with --min or --max")
		}
		bc, err := parseTriple(opt.Pos, "--pos")
		if err != nil {
			return nil, err
		}
		cfg.Min = bc
		cfg.Max = coord.BC{X: bc.X + 1, Y: bc.Y + 1, Z: bc.Z + 1}
		return cfg, nil
	}

	if opt.Min != "" {
		bc, err := parseTriple(opt.Min, "--min")
		if err != nil {
			return nil, err
		}
		cfg.Min = bc
	}
	if opt.Max != "" {
		bc, err := parseTriple(opt.Max, "--max")
		if err != nil {
			return nil, err
		}
		cfg.Max = addOne(bc)
	}

	coord.Sort(&cfg.Min, &cfg.Max)
	return cfg, nil
}

func addOne(bc coord.BC) coord.BC {
	return coord.BC{X: bc.X + 1, Y: bc.Y + 1, Z: bc.Z + 1}
}

func parseDriver(s string) (sourcestore.Driver, error) {
	switch sourcestore.Driver(s) {
	case sourcestore.DriverSQLite:
		return sourcestore.DriverSQLite, nil
	case sourcestore.DriverPostgreSQL:
		return sourcestore.DriverPostgreSQL, nil
	case sourcestore.DriverPgsql:
		return sourcestore.DriverPgsql, nil
	default:
		return "", errkind.NewConfigError("--driver %q is not one of sqlite, postgresql, pgsql", s)
	}
}

// parseTriple parses "x,y,z" into a BC, reporting flag by name in any
// error for a legible CLI message.
func parseTriple(s, flag string) (coord.BC, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return coord.BC{}, errkind.NewConfigError("%s %q must be of the form x,y,z", flag, s)
	}
	vals := make([]int32, 3)
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return coord.BC{}, errkind.NewConfigError("%s %q: %v", flag, s, err)
		}
		vals[i] = int32(n)
	}
	return coord.BC{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// DebugString renders cfg for a single trace-level log line.
func (c *Config) DebugString() string {
	return fmt.Sprintf(
		"min=%v max=%v map=%s out=%s driver=%s pattern=%q threads=%d max_load_avg=%.2f radius=%d stats=%q minegeld=%v",
		c.Min, c.Max, c.MapURI, c.OutPath, c.Driver, c.PatternPath, c.Threads, c.MaxLoadAvg, c.Radius, c.StatsPath, c.Minegeld)
}
