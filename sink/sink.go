// Package sink implements the analytic output sink: a buffered,
// transactional writer for four output streams (nodes of interest,
// inventory items, node/actor interning rows, per-block annotations),
// each flushed in its own transaction.
package sink

import (
	"database/sql"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mt-map-search/mapscan/annot"
	"github.com/mt-map-search/mapscan/coord"
	"github.com/mt-map-search/mapscan/decode"
	"github.com/mt-map-search/mapscan/errkind"
	"github.com/mt-map-search/mapscan/intern"
	"github.com/mt-map-search/mapscan/log"
)

// InventoryItem is one row of the "inventory" stream.
type InventoryItem struct {
	ListName   string
	ItemString string
}

// NodeOfInterest is one row of the "nodes" stream plus the inventory items
// carried alongside it.
type NodeOfInterest struct {
	PosID    int64
	X, Y, Z  int32
	ActorID  uint64
	NodeID   uint64
	Minegeld uint64
	Items    []InventoryItem
}

// Sink buffers rows in memory and flushes them to the output database in
// batched transactions.
type Sink struct {
	db *sql.DB

	mu        sync.Mutex
	nodeRows  []NodeOfInterest
	blockRows []coord.BC
}

// Open removes any pre-existing file at path (the driver always starts
// from a clean output), opens a fresh sqlite database there, and ensures
// the schema exists.
func Open(path string) (*Sink, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errkind.NewStorageError("sink.open", path, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errkind.NewStorageError("sink.open", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errkind.NewStorageError("sink.open", path, err)
	}

	s := &Sink{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema() error {
	var count int
	if err := s.db.QueryRow(schemaCheckSQL).Scan(&count); err != nil {
		return errkind.NewSchemaError("checking for existing schema", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errkind.NewSchemaError("opening schema transaction", err)
	}
	if _, err := tx.Exec(schemaDDL); err != nil {
		tx.Rollback()
		return errkind.NewSchemaError("executing schema DDL", err)
	}
	if err := tx.Commit(); err != nil {
		return errkind.NewSchemaError("committing schema", err)
	}

	log.Info("created analytic sink schema")
	return nil
}

// EnqueueNodes buffers rows for later flush by FlushNodesOfInterest.
func (s *Sink) EnqueueNodes(rows []NodeOfInterest) {
	if len(rows) == 0 {
		return
	}
	s.mu.Lock()
	s.nodeRows = append(s.nodeRows, rows...)
	s.mu.Unlock()
}

// EnqueueBlockAnnotation buffers a block coordinate for later flush by
// FlushBlockAnnotations. Only bc is recorded; the annotation values are
// read from store at flush time so any preserve bit stamped between
// enqueue and flush is captured.
func (s *Sink) EnqueueBlockAnnotation(bc coord.BC) {
	s.mu.Lock()
	s.blockRows = append(s.blockRows, bc)
	s.mu.Unlock()
}

// FlushNodeIDs drains and writes any newly interned node names. Must run
// before FlushNodesOfInterest, which writes rows referencing node ids.
func (s *Sink) FlushNodeIDs(names *intern.Table[decode.NodeExtra]) error {
	dirty := names.TakeDirty()
	if len(dirty) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errkind.NewStorageError("sink.flush_node_ids", "begin", err)
	}
	stmt, err := tx.Prepare(`insert into node (id, name, anthropocene) values (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errkind.NewStorageError("sink.flush_node_ids", "prepare", err)
	}
	defer stmt.Close()

	for _, e := range dirty {
		if _, err := stmt.Exec(e.ID, e.Key, e.Extra.Anthropocene); err != nil {
			tx.Rollback()
			return errkind.NewStorageError("sink.flush_node_ids", "exec", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errkind.NewStorageError("sink.flush_node_ids", "commit", err)
	}
	return nil
}

// ActorExtra is the (empty) per-entry payload carried by the actor
// interning table; actors have no extra attributes beyond their name.
type ActorExtra struct{}

// FlushActorIDs drains and writes any newly interned actor (owner) names.
// Must run before FlushNodesOfInterest.
func (s *Sink) FlushActorIDs(actors *intern.Table[ActorExtra]) error {
	dirty := actors.TakeDirty()
	if len(dirty) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errkind.NewStorageError("sink.flush_actor_ids", "begin", err)
	}
	stmt, err := tx.Prepare(`insert into actor (id, name) values (?, ?)`)
	if err != nil {
		tx.Rollback()
		return errkind.NewStorageError("sink.flush_actor_ids", "prepare", err)
	}
	defer stmt.Close()

	for _, e := range dirty {
		if _, err := stmt.Exec(e.ID, e.Key); err != nil {
			tx.Rollback()
			return errkind.NewStorageError("sink.flush_actor_ids", "exec", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errkind.NewStorageError("sink.flush_actor_ids", "commit", err)
	}
	return nil
}

// FlushNodesOfInterest writes every buffered NodeOfInterest row (and its
// inventory items) in a single transaction, then clears the buffer.
func (s *Sink) FlushNodesOfInterest() error {
	s.mu.Lock()
	rows := s.nodeRows
	s.nodeRows = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errkind.NewStorageError("sink.flush_nodes", "begin", err)
	}

	stmtNode, err := tx.Prepare(`
		insert into nodes (pos_id, x, y, z, actor_id, node_id, minegeld)
		values (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errkind.NewStorageError("sink.flush_nodes", "prepare nodes", err)
	}
	defer stmtNode.Close()

	stmtInv, err := tx.Prepare(`
		insert into inventory (pos_id, list_name, item_string) values (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errkind.NewStorageError("sink.flush_nodes", "prepare inventory", err)
	}
	defer stmtInv.Close()

	for _, row := range rows {
		if _, err := stmtNode.Exec(row.PosID, row.X, row.Y, row.Z, row.ActorID, row.NodeID, row.Minegeld); err != nil {
			tx.Rollback()
			return errkind.NewStorageError("sink.flush_nodes", "exec nodes", err)
		}
		for _, item := range row.Items {
			if _, err := stmtInv.Exec(row.PosID, item.ListName, item.ItemString); err != nil {
				tx.Rollback()
				return errkind.NewStorageError("sink.flush_nodes", "exec inventory", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errkind.NewStorageError("sink.flush_nodes", "commit", err)
	}
	return nil
}

// FlushBlockAnnotations writes a "blocks" row for every buffered
// coordinate, reading each one's current annotation from store so that any
// preserve bit stamped between enqueue and flush is captured.
func (s *Sink) FlushBlockAnnotations(store *annot.Store) error {
	s.mu.Lock()
	coords := s.blockRows
	s.blockRows = nil
	s.mu.Unlock()

	if len(coords) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errkind.NewStorageError("sink.flush_blocks", "begin", err)
	}
	stmt, err := tx.Prepare(`
		insert into blocks (block_id, x, y, z, uniform, anthropocene, preserve)
		values (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errkind.NewStorageError("sink.flush_blocks", "prepare", err)
	}
	defer stmt.Close()

	for _, bc := range coords {
		v, _ := store.Get(bc)
		if _, err := stmt.Exec(coord.Pack(bc), bc.X, bc.Y, bc.Z, v.Uniform, v.Anthropocene, v.Preserve); err != nil {
			tx.Rollback()
			return errkind.NewStorageError("sink.flush_blocks", "exec", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errkind.NewStorageError("sink.flush_blocks", "commit", err)
	}
	return nil
}

// LogBadBlock records a block that failed to decode into the bad_blocks
// ledger, supplementing the per-block warning log line with a queryable
// record of what failed and why.
func (s *Sink) LogBadBlock(bc coord.BC, reason string) error {
	_, err := s.db.Exec(`
		insert or replace into bad_blocks (block_id, x, y, z, reason) values (?, ?, ?, ?, ?)`,
		coord.Pack(bc), bc.X, bc.Y, bc.Z, reason)
	if err != nil {
		return errkind.NewStorageError("sink.log_bad_block", "exec", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}

// DB returns the underlying database handle, for tests and diagnostics
// that need to query the sink's contents directly.
func (s *Sink) DB() *sql.DB {
	return s.db
}
