package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mt-map-search/mapscan/log"
)

const progressInterval = 500 * time.Millisecond

// memStats reports the process's current virtual and resident set sizes,
// in bytes, read from /proc/self/statm (size and resident, in pages). Both
// figures only grow monotonically over a scan's lifetime, so sampling at
// progress ticks and after the final flush captures the peak of each.
func memStats() (vsizeBytes, rssBytes int64) {
	f, err := os.Open("/proc/self/statm")
	if err != nil {
		return 0, peakRSSBytes()
	}
	defer f.Close()

	var sizePages, residentPages int64
	if _, err := fmt.Fscan(bufio.NewReader(f), &sizePages, &residentPages); err != nil {
		return 0, peakRSSBytes()
	}

	pageSize := int64(unix.Getpagesize())
	return sizePages * pageSize, residentPages * pageSize
}

// peakRSSBytes returns the process's peak resident set size, in bytes, via
// getrusage(2). Used as a fallback when /proc/self/statm is unavailable
// (e.g. a non-Linux OS), since it has no vsize equivalent of its own.
func peakRSSBytes() int64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return ru.Maxrss * 1024
}

// runProgressReporter prints a single-line, self-overwriting progress
// update every progressInterval until d.queue reports the tombstone, using
// IdleWait to both pace the loop and detect completion -- the same bounded
// wait C10 exists for.
func (d *Driver) runProgressReporter() {
	for {
		stillRunning := d.queue.IdleWait(progressInterval)
		d.printProgress()
		if !stillRunning {
			break
		}
	}
	fmt.Fprintln(os.Stderr)
}

func (d *Driver) printProgress() {
	vsize, rss := memStats()
	fmt.Fprintf(os.Stderr, "\r\x1b[K queued=%d good=%d bad=%d rss=%dMiB vsize=%dMiB",
		d.stats.Queued(), d.stats.Good(), d.stats.Bad(), rss/(1<<20), vsize/(1<<20))
}

func (d *Driver) logSummary(wall time.Duration) {
	rate := float64(d.stats.Total()) / wall.Seconds()
	log.Info("scan complete",
		log.F("blocks_good", d.stats.Good()),
		log.F("blocks_bad", d.stats.Bad()),
		log.F("wall_seconds", wall.Seconds()),
		log.F("blocks_per_sec", rate))
}
