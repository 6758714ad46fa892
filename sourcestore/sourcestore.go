// Package sourcestore implements the source-store adapter: a closed,
// two-variant selector over the key/value store holding compressed map
// block blobs, chosen once at startup. Store is a Go interface satisfied
// by exactly two concrete types selected by Open, a tagged sum rather
// than an open registry, since no third back-end is ever added at
// runtime.
package sourcestore

import (
	"context"
	"fmt"

	"github.com/mt-map-search/mapscan/coord"
)

// Driver names the two supported back-ends.
type Driver string

const (
	DriverSQLite     Driver = "sqlite"
	DriverPostgreSQL Driver = "postgresql"
	DriverPgsql      Driver = "pgsql" // alias accepted on the command line
)

// Store is the capability every back-end must provide: point lookup by
// block coordinate, ranged enumeration with early-exit, and (currently
// unimplemented) bulk deletion.
type Store interface {
	// Load returns the blob for bc and true, or false if bc is absent.
	Load(ctx context.Context, bc coord.BC) ([]byte, bool, error)

	// Produce invokes cb(bc) for every block coordinate in the half-open
	// cube [min, max), stopping early if cb returns false.
	Produce(ctx context.Context, min, max coord.BC, cb func(coord.BC) bool) error

	// Delete removes the listed blocks. Both back-ends currently return
	// errkind.UnimplementedError, matching the original tool.
	Delete(ctx context.Context, list []coord.BC) error

	// Close releases the underlying connection/handle.
	Close() error
}

// Open connects to the source store named by connectionStr using the given
// driver.
func Open(driver Driver, connectionStr string) (Store, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(connectionStr)
	case DriverPostgreSQL, DriverPgsql:
		return openPostgres(connectionStr)
	default:
		return nil, fmt.Errorf("sourcestore: unknown driver %q", driver)
	}
}
