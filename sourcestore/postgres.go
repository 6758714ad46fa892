package sourcestore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mt-map-search/mapscan/coord"
	"github.com/mt-map-search/mapscan/errkind"
)

const (
	stmtLoadMapBlock    = "loadMapBlock"
	stmtProduceMapBlock = "produceMapBlocks"
)

// postgresStore is the remote relational back-end, grounded on
// MapInterfacePostgresql. Unlike the embedded file, rows are keyed by
// separate posx/posy/posz columns rather than a single packed id, so the
// range predicate is expressed per-axis and fetched as bytea.
type postgresStore struct {
	conn *pgx.Conn
}

func openPostgres(connectionStr string) (Store, error) {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, connectionStr)
	if err != nil {
		return nil, errkind.NewStorageError("postgres.connect", connectionStr, err)
	}

	if _, err := conn.Prepare(ctx, stmtLoadMapBlock,
		`select data from blocks where posx = $1 and posy = $2 and posz = $3`); err != nil {
		conn.Close(ctx)
		return nil, errkind.NewStorageError("postgres.prepare", stmtLoadMapBlock, err)
	}
	if _, err := conn.Prepare(ctx, stmtProduceMapBlock,
		`select posx, posy, posz from blocks
		 where posx between $1 and $2 and posy between $3 and $4 and posz between $5 and $6`); err != nil {
		conn.Close(ctx)
		return nil, errkind.NewStorageError("postgres.prepare", stmtProduceMapBlock, err)
	}

	return &postgresStore{conn: conn}, nil
}

func (s *postgresStore) Load(ctx context.Context, bc coord.BC) ([]byte, bool, error) {
	row := s.conn.QueryRow(ctx, stmtLoadMapBlock, bc.X, bc.Y, bc.Z)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errkind.NewStorageError("postgres.load", "query", err)
	}
	return data, true, nil
}

func (s *postgresStore) Produce(ctx context.Context, min, max coord.BC, cb func(coord.BC) bool) error {
	rows, err := s.conn.Query(ctx, stmtProduceMapBlock,
		min.X, max.X, min.Y, max.Y, min.Z, max.Z)
	if err != nil {
		return errkind.NewStorageError("postgres.produce", "query", err)
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, z int32
		if err := rows.Scan(&x, &y, &z); err != nil {
			return errkind.NewStorageError("postgres.produce", "scan", err)
		}

		bc := coord.BC{X: x, Y: y, Z: z}
		if !coord.Inside(bc, min, max) {
			continue
		}
		if !cb(bc) {
			return nil
		}
	}
	return rows.Err()
}

func (s *postgresStore) Delete(ctx context.Context, list []coord.BC) error {
	return errkind.NewUnimplementedError("postgresStore.Delete")
}

func (s *postgresStore) Close() error {
	return s.conn.Close(context.Background())
}
