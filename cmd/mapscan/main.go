// Command mapscan scans a Minetest world's map blocks over a source store
// and writes an analytic sqlite database of nodes, actors, inventories,
// and per-block annotations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/mt-map-search/mapscan/config"
	"github.com/mt-map-search/mapscan/log"
	"github.com/mt-map-search/mapscan/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.SetLogger(log.NewZerologAdapter(zlog))

	cfg, err := config.Parse(argv)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	driver, err := pipeline.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer driver.Close()

	if err := driver.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
