// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/vector"
)

// overfetchFactor widens KNN queries so owner filtering applied after the
// scan still yields enough results. vec0 has no payload predicates, so the
// owner filter runs in Go.
const overfetchFactor = 4

// SQLiteVecDriver implements vector.Driver using SQLite with sqlite-vec.
type SQLiteVecDriver struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Collection names the logical point collection. Each collection gets
	// its own pair of tables so memory and relationship points can share a
	// database file.
	Collection string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewSQLiteVecDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewSQLiteVecDriver(c Config, logger *zap.Logger) (*SQLiteVecDriver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}

	dimensions := c.Dimensions
	if dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// Create the point ID mapping table.
	// vec0 virtual tables use integer rowids, so we need a mapping from
	// string point IDs to integer rowids. The owner column is duplicated
	// out of the payload so deletes and scoped scans stay plain SQL.
	createPoints := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_points (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			point_id TEXT NOT NULL UNIQUE,
			owner TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '{}'
		)
	`, c.Collection)
	if _, err := db.Exec(createPoints); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating points table: %w", err)
	}

	// Create the vec0 virtual table for vector storage and KNN queries.
	// Cosine distance keeps scores comparable across drivers.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Collection, dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.String("collection", c.Collection),
		zap.Uint("dimensions", dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &SQLiteVecDriver{
		db:     db,
		table:  c.Collection,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) ([]byte, error) {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf, nil
}

func payloadOwner(payload map[string]any) string {
	owner, _ := payload["owner"].(string)
	return owner
}

// Upsert stores a point, replacing any existing point with the same ID.
func (d *SQLiteVecDriver) Upsert(ctx context.Context, point vector.Point) error {
	return d.UpsertBatch(ctx, []vector.Point{point})
}

// UpsertBatch stores points in bulk with upsert semantics.
func (d *SQLiteVecDriver) UpsertBatch(ctx context.Context, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range points {
		embBlob, err := serializeFloat32(p.Vector)
		if err != nil {
			return fmt.Errorf("serializing embedding for point %s: %w", p.ID, err)
		}

		payloadJSON, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshaling payload for point %s: %w", p.ID, err)
		}

		// Check if point already exists
		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT rowid FROM %s_points WHERE point_id = ?`, d.table), p.ID,
		).Scan(&existingRowID)

		switch err {
		case nil:
			// Point exists — update payload and embedding
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`UPDATE %s_points SET owner = ?, payload = ? WHERE rowid = ?`, d.table),
				payloadOwner(p.Payload), string(payloadJSON), existingRowID,
			); err != nil {
				return fmt.Errorf("updating point %s: %w", p.ID, err)
			}

			// Update embedding in vec0 table via DELETE + INSERT
			// (vec0 does not support UPDATE)
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s_embeddings WHERE rowid = ?`, d.table), existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for point %s: %w", p.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s_embeddings(rowid, embedding) VALUES (?, ?)`, d.table),
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for point %s: %w", p.ID, err)
			}
		case sql.ErrNoRows:
			// New point — insert into mapping table first to get the rowid
			result, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s_points(point_id, owner, payload) VALUES (?, ?, ?)`, d.table),
				p.ID, payloadOwner(p.Payload), string(payloadJSON),
			)
			if err != nil {
				return fmt.Errorf("inserting point %s: %w", p.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for point %s: %w", p.ID, err)
			}

			// Insert embedding into vec0 table with matching rowid
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s_embeddings(rowid, embedding) VALUES (?, ?)`, d.table),
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for point %s: %w", p.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing point %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted points to sqlite-vec",
		zap.String("collection", d.table),
		zap.Int("count", len(points)),
	)

	return nil
}

// Search finds the points most similar to the given embedding.
func (d *SQLiteVecDriver) Search(ctx context.Context, embedding []float32, opts vector.SearchOpts) ([]vector.Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	// vec0 cannot filter on payload columns inside the KNN scan, so overfetch
	// and apply the owner filter after the join.
	k := limit
	if opts.Owner != "" {
		k = limit * overfetchFactor
	}

	queryBlob, err := serializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("serializing query embedding: %w", err)
	}

	// Use KNN query via vec0 MATCH, then JOIN back to get point_id and payload.
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			p.point_id,
			p.owner,
			p.payload,
			ve.distance
		FROM %s_embeddings ve
		INNER JOIN %s_points p ON p.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, d.table, d.table), queryBlob, k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.Result
	for rows.Next() {
		var pointID, owner, payloadJSON string
		var distance float64
		if err := rows.Scan(&pointID, &owner, &payloadJSON, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		if opts.Owner != "" && owner != opts.Owner {
			continue
		}

		// Cosine distance to similarity: similarity = 1 - distance.
		score := float32(1.0 - distance)
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("unmarshaling payload for point %s: %w", pointID, err)
		}

		results = append(results, vector.Result{
			Point: vector.Point{
				ID:      pointID,
				Payload: payload,
			},
			Score: score,
		})

		if len(results) >= limit {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		zap.String("collection", d.table),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// FetchAll returns every stored point's ID and payload, optionally scoped
// to an owner. Vectors are not loaded.
func (d *SQLiteVecDriver) FetchAll(ctx context.Context, owner string) ([]vector.Point, error) {
	query := fmt.Sprintf(`SELECT point_id, payload FROM %s_points`, d.table)
	args := []any{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var points []vector.Point
	for rows.Next() {
		var pointID, payloadJSON string
		if err := rows.Scan(&pointID, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("unmarshaling payload for point %s: %w", pointID, err)
		}

		points = append(points, vector.Point{
			ID:      pointID,
			Payload: payload,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}

	return points, nil
}

// DeleteByOwner removes every point belonging to the given owner.
func (d *SQLiteVecDriver) DeleteByOwner(ctx context.Context, owner string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// First, get the rowids for the points to delete from vec0
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`SELECT rowid FROM %s_points WHERE owner = ?`, d.table), owner,
	)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	// Delete embeddings from vec0 table
	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s_embeddings WHERE rowid = ?`, d.table), rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	// Delete from mapping table
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s_points WHERE owner = ?`, d.table), owner,
	); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted points from sqlite-vec",
		zap.String("collection", d.table),
		zap.String("owner", owner),
		zap.Int("count", len(rowIDs)),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *SQLiteVecDriver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*SQLiteVecDriver)(nil)
