package pipeline

import (
	"fmt"
	"os"

	"github.com/mt-map-search/mapscan/errkind"
)

// appendStatsLine appends one CSV line to path: threads, blocks_queued,
// wall_seconds_until_flush, wall_seconds_flush, peak_rss_bytes,
// peak_virtual_bytes. rss and vsize are tracked as two separate gauges
// rather than collapsed to one figure, since they can diverge widely
// (e.g. a large sparse sqlite mmap inflates vsize without touching rss).
func appendStatsLine(path string, threads int, queued int64, untilFlush, flush float64, rssBytes, vsizeBytes int64) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errkind.NewStorageError("pipeline.stats", path, err)
	}
	defer f.Close()

	line := fmt.Sprintf("%d,%d,%.6f,%.6f,%d,%d\n", threads, queued, untilFlush, flush, rssBytes, vsizeBytes)
	if _, err := f.WriteString(line); err != nil {
		return errkind.NewStorageError("pipeline.stats", path, err)
	}
	return nil
}
