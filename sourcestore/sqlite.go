package sourcestore

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mt-map-search/mapscan/coord"
	"github.com/mt-map-search/mapscan/errkind"
	"github.com/mt-map-search/mapscan/log"
)

// sqliteStore is the embedded-file back-end, grounded on
// MapInterfaceSqlite3. It targets the same "blocks(pos, data[, mtime])"
// table minetest itself writes.
type sqliteStore struct {
	db       *sql.DB
	hasMtime bool

	stmtLoad   *sql.Stmt
	stmtList   *sql.Stmt
	stmtDelete *sql.Stmt
}

func openSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errkind.NewStorageError("sqlite.open", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errkind.NewStorageError("sqlite.ping", path, err)
	}

	hasMtime, err := sqliteHasColumn(db, "blocks", "mtime")
	if err != nil {
		db.Close()
		return nil, errkind.NewStorageError("sqlite.schema", path, err)
	}

	// mtime is probed for but never selected: some source revisions carry
	// it, others don't, and nothing downstream needs block freshness.
	stmtLoad, err := db.Prepare("select data from blocks where pos = ?")
	if err != nil {
		db.Close()
		return nil, errkind.NewStorageError("sqlite.prepare", "load", err)
	}
	stmtList, err := db.Prepare("select pos from blocks where pos between ? and ?")
	if err != nil {
		db.Close()
		return nil, errkind.NewStorageError("sqlite.prepare", "list", err)
	}
	stmtDelete, err := db.Prepare("delete from blocks where pos = ?")
	if err != nil {
		db.Close()
		return nil, errkind.NewStorageError("sqlite.prepare", "delete", err)
	}

	log.Debug("opened sqlite source store", log.F("path", path), log.F("has_mtime", hasMtime))

	return &sqliteStore{
		db:         db,
		hasMtime:   hasMtime,
		stmtLoad:   stmtLoad,
		stmtList:   stmtList,
		stmtDelete: stmtDelete,
	}, nil
}

func sqliteHasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}

func (s *sqliteStore) Load(ctx context.Context, bc coord.BC) ([]byte, bool, error) {
	row := s.stmtLoad.QueryRowContext(ctx, coord.Pack(bc))
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errkind.NewStorageError("sqlite.load", "query", err)
	}
	return data, true, nil
}

func (s *sqliteStore) Produce(ctx context.Context, min, max coord.BC, cb func(coord.BC) bool) error {
	rows, err := s.stmtList.QueryContext(ctx, coord.Pack(min), coord.Pack(max))
	if err != nil {
		return errkind.NewStorageError("sqlite.produce", "query", err)
	}
	defer rows.Close()

	for rows.Next() {
		var packed int64
		if err := rows.Scan(&packed); err != nil {
			return errkind.NewStorageError("sqlite.produce", "scan", err)
		}

		bc := coord.Unpack(packed)
		// Packed order is not axis-monotonic: reject rows whose unpacked
		// coordinate falls outside the requested half-open cube.
		if !coord.Inside(bc, min, max) {
			continue
		}
		if !cb(bc) {
			return nil
		}
	}
	return rows.Err()
}

func (s *sqliteStore) Delete(ctx context.Context, list []coord.BC) error {
	return errkind.NewUnimplementedError("sqliteStore.Delete")
}

func (s *sqliteStore) Close() error {
	s.stmtLoad.Close()
	s.stmtList.Close()
	s.stmtDelete.Close()
	return s.db.Close()
}
