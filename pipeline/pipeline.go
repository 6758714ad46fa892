// Package pipeline wires the source store, decoder, interning tables,
// sharded annotation map, preserve aggregator, and analytic sink into the
// two run modes (serial and threaded) of the pipeline driver: Driver owns
// the shared state (id tables, queue, stats), runProducer/runWorker are
// the two thread bodies, and Run dispatches serially or threaded on
// cfg.Threads.
package pipeline

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mt-map-search/mapscan/annot"
	"github.com/mt-map-search/mapscan/config"
	"github.com/mt-map-search/mapscan/coord"
	"github.com/mt-map-search/mapscan/decode"
	"github.com/mt-map-search/mapscan/errkind"
	"github.com/mt-map-search/mapscan/intern"
	"github.com/mt-map-search/mapscan/log"
	"github.com/mt-map-search/mapscan/namefilter"
	"github.com/mt-map-search/mapscan/preserve"
	"github.com/mt-map-search/mapscan/queue"
	"github.com/mt-map-search/mapscan/sink"
	"github.com/mt-map-search/mapscan/sourcestore"
)

// Per-worker staging set size before handing seeds to the preserve
// aggregator, and the aggregator's own drain threshold.
const (
	preserveThreshold = 2048
	preserveLimit     = 32768
)

// Driver owns every shared piece of state for one scan run.
type Driver struct {
	cfg *config.Config

	source sourcestore.Store
	sink   *sink.Sink

	nodeNames  *intern.Table[decode.NodeExtra]
	actorNames *intern.Table[sink.ActorExtra]
	annotStore *annot.Store
	filter     *namefilter.Filter

	queue *queue.Queue
	agg   *preserve.Aggregator

	stats stats
}

// New opens the source store and analytic sink named by cfg and assembles
// a Driver ready to Run.
func New(cfg *config.Config) (*Driver, error) {
	source, err := sourcestore.Open(cfg.Driver, cfg.MapURI)
	if err != nil {
		return nil, err
	}

	out, err := sink.Open(cfg.OutPath)
	if err != nil {
		source.Close()
		return nil, err
	}

	filter := namefilter.Empty()
	if cfg.PatternPath != "" {
		f, err := os.Open(cfg.PatternPath)
		if err != nil {
			source.Close()
			out.Close()
			return nil, errkind.NewConfigError("opening pattern file %q: %v", cfg.PatternPath, err)
		}
		filter, err = namefilter.Load(f)
		f.Close()
		if err != nil {
			source.Close()
			out.Close()
			return nil, errkind.NewConfigError("loading pattern file %q: %v", cfg.PatternPath, err)
		}
	}

	annotStore := annot.NewStore()
	nodeNames := intern.New(func(name string) decode.NodeExtra {
		return decode.NodeExtra{Anthropocene: filter.Search(name)}
	})
	actorNames := intern.New(func(string) sink.ActorExtra { return sink.ActorExtra{} })

	seedSentinelIDs(nodeNames, actorNames)

	return &Driver{
		cfg:        cfg,
		source:     source,
		sink:       out,
		nodeNames:  nodeNames,
		actorNames: actorNames,
		annotStore: annotStore,
		filter:     filter,
		queue:      queue.New(queue.DefaultCapacity),
		agg:        preserve.New(annotStore, cfg.Radius, preserveLimit),
	}, nil
}

// seedSentinelIDs pre-populates reserved ids 0/1/2 for node names ("",
// "ignore", "air") and id 0 for actors (""), before any worker goroutine
// starts.
func seedSentinelIDs(nodeNames *intern.Table[decode.NodeExtra], actorNames *intern.Table[sink.ActorExtra]) {
	nodeNames.Seed(0, "", decode.NodeExtra{})
	nodeNames.Seed(1, "ignore", decode.NodeExtra{})
	nodeNames.Seed(2, "air", decode.NodeExtra{})
	actorNames.Seed(0, "", sink.ActorExtra{})
}

// Close releases the source store and analytic sink.
func (d *Driver) Close() error {
	sourceErr := d.source.Close()
	sinkErr := d.sink.Close()
	if sourceErr != nil {
		return sourceErr
	}
	return sinkErr
}

// Run executes the full scan: producer, workers, preserve aggregator, and
// the final flush, in serial or threaded mode per cfg.Threads. It returns
// the first fatal error encountered, if any.
func (d *Driver) Run(ctx context.Context) error {
	t0 := time.Now()

	var runErr error
	if d.cfg.Threads == 0 {
		runErr = d.runSerially(ctx)
	} else {
		runErr = d.runThreaded(ctx)
	}

	tFlush := time.Now()
	flushErr := d.flush()
	tEnd := time.Now()

	d.logSummary(tEnd.Sub(t0))

	if d.cfg.StatsPath != "" {
		vsize, rss := memStats()
		if err := appendStatsLine(d.cfg.StatsPath, d.cfg.Threads, d.stats.Queued(),
			tFlush.Sub(t0).Seconds(), tEnd.Sub(tFlush).Seconds(), rss, vsize); err != nil {
			log.Error("failed to append stats line", log.F("error", err.Error()))
		}
	}

	if runErr != nil {
		return runErr
	}
	return flushErr
}

func (d *Driver) runSerially(ctx context.Context) error {
	log.Info("running serially", log.F("config", d.cfg.DebugString()))

	if err := d.runProducer(ctx); err != nil {
		return err
	}
	if err := d.runWorker(ctx, 0); err != nil {
		return err
	}
	d.agg.SetTombstone()
	d.agg.Run()
	return nil
}

func (d *Driver) runThreaded(ctx context.Context) error {
	log.Info("running threaded", log.F("threads", d.cfg.Threads), log.F("config", d.cfg.DebugString()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return d.runProducer(gctx) })

	for i := 0; i < d.cfg.Threads; i++ {
		workerID := i
		g.Go(func() error { return d.runWorker(gctx, workerID) })
	}

	go d.runProgressReporter()

	aggDone := make(chan struct{})
	go func() {
		d.agg.Run()
		close(aggDone)
	}()

	err := g.Wait()
	d.agg.SetTombstone()
	<-aggDone

	return err
}

// runProducer enumerates every block in [cfg.Min, cfg.Max) from the source
// store and feeds their positions to the work queue, tombstoning it when
// done (or on error, so workers never block forever).
func (d *Driver) runProducer(ctx context.Context) error {
	defer d.queue.SetTombstone()

	err := d.source.Produce(ctx, d.cfg.Min, d.cfg.Max, func(bc coord.BC) bool {
		d.queue.Enqueue(queue.Key{Pos: coord.Pack(bc)})
		d.stats.addQueued(1)
		return true
	})
	if err != nil {
		return err
	}
	log.Info("producer finished", log.F("blocks_queued", d.stats.Queued()))
	return nil
}

// flush drains the preserve aggregator's residual staging set and writes
// every buffered sink stream, id tables first so that the rows referencing
// them never point at an unwritten foreign key.
func (d *Driver) flush() error {
	d.agg.Flush()

	if err := d.sink.FlushNodeIDs(d.nodeNames); err != nil {
		return err
	}
	if err := d.sink.FlushActorIDs(d.actorNames); err != nil {
		return err
	}
	if err := d.sink.FlushNodesOfInterest(); err != nil {
		return err
	}
	if err := d.sink.FlushBlockAnnotations(d.annotStore); err != nil {
		return err
	}
	return nil
}
