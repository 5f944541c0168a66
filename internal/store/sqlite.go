package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/seantiz/soundbatch/internal/model"

	_ "modernc.org/sqlite"
)

const createBatchesTable = `
CREATE TABLE IF NOT EXISTS batches (
    id          TEXT PRIMARY KEY,
    status      TEXT NOT NULL,
    label       TEXT,
    base_path   TEXT NOT NULL,
    requested   INTEGER NOT NULL,
    pending     INTEGER NOT NULL,
    succeeded   INTEGER NOT NULL,
    failed      INTEGER NOT NULL,
    result      TEXT,
    duration_ms INTEGER,
    created_at  DATETIME NOT NULL,
    finished_at DATETIME
)`

const createAssetEventsTable = `
CREATE TABLE IF NOT EXISTS asset_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id    TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    asset_id    TEXT NOT NULL,
    source      TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    reason      TEXT NOT NULL,
    created_at  DATETIME NOT NULL
)`

const createAssetEventsIndex = `
CREATE INDEX IF NOT EXISTS idx_asset_events_batch ON asset_events (batch_id, seq)`

const batchColumns = `id, status, label, base_path, requested, pending, succeeded,
	failed, result, duration_ms, created_at, finished_at`

// ErrNotFound is returned when a batch is not found.
var ErrNotFound = errors.New("batch not found")

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to ":memory:" opens its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	for _, stmt := range []string{createBatchesTable, createAssetEventsTable, createAssetEventsIndex} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBatch inserts a new batch record.
func (s *SQLiteStore) CreateBatch(ctx context.Context, b *model.Batch) error {
	label, err := encodeJSON(b.Label)
	if err != nil {
		return fmt.Errorf("encode label: %w", err)
	}
	result, err := encodeJSON(b.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batches (`+batchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Status, label, b.BasePath, b.Requested, b.Pending, b.Succeeded,
		b.Failed, result, b.DurationMS, b.CreatedAt, b.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetBatch retrieves a batch by ID.
func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (*model.Batch, error) {
	b, err := scanBatch(s.db.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// ListBatches returns a paginated list of batches ordered by created_at DESC,
// along with the total count of all batches.
func (s *SQLiteStore) ListBatches(ctx context.Context, limit, offset int) ([]*model.Batch, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM batches").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+batchColumns+` FROM batches ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []*model.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate batches: %w", err)
	}

	return batches, total, nil
}

// FinishBatch stores the settled state of a batch. b.Status must be terminal
// and the stored batch must not have settled already.
func (s *SQLiteStore) FinishBatch(ctx context.Context, b *model.Batch) error {
	if !model.Terminal(b.Status) {
		return fmt.Errorf("%w: %q is not a settled status", ErrInvalidTransition, b.Status)
	}
	result, err := encodeJSON(b.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE batches SET status = ?, pending = ?, succeeded = ?, failed = ?,
			result = ?, duration_ms = ?, finished_at = ?
		WHERE id = ? AND status NOT IN (?, ?)`,
		b.Status, b.Pending, b.Succeeded, b.Failed,
		result, b.DurationMS, b.FinishedAt,
		b.ID, model.StatusFulfilled, model.StatusRejected,
	)
	if err != nil {
		return fmt.Errorf("finish batch: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	if _, err := s.GetBatch(ctx, b.ID); err != nil {
		return err
	}
	return fmt.Errorf("%w: batch %s already settled", ErrInvalidTransition, b.ID)
}

// GetBatchStats returns aggregate statistics over all batches.
func (s *SQLiteStore) GetBatchStats(ctx context.Context) (*BatchStats, error) {
	stats := &BatchStats{CountByStatus: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM batches GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.CountByStatus[status] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	var avg sql.NullFloat64
	var loaded, failed sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		"SELECT AVG(duration_ms), SUM(succeeded), SUM(failed) FROM batches",
	).Scan(&avg, &loaded, &failed); err != nil {
		return nil, fmt.Errorf("aggregate batches: %w", err)
	}
	stats.AvgDurationMS = avg.Float64
	stats.AssetsLoaded = int(loaded.Int64)
	stats.AssetsFailed = int(failed.Int64)

	return stats, nil
}

// InsertAssetEvent appends one asset outcome to a batch's history.
func (s *SQLiteStore) InsertAssetEvent(ctx context.Context, ev model.AssetEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO asset_events (batch_id, seq, asset_id, source, outcome, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.BatchID, ev.Seq, ev.ID, ev.Source, ev.Outcome, string(ev.Reason), ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert asset event: %w", err)
	}
	return nil
}

// GetAssetEvents returns a batch's asset events ordered by sequence.
func (s *SQLiteStore) GetAssetEvents(ctx context.Context, batchID string) ([]model.AssetEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT batch_id, seq, asset_id, source, outcome, reason, created_at
		FROM asset_events WHERE batch_id = ? ORDER BY seq ASC`, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("get asset events: %w", err)
	}
	defer rows.Close()

	var events []model.AssetEvent
	for rows.Next() {
		var ev model.AssetEvent
		var reason string
		if err := rows.Scan(&ev.BatchID, &ev.Seq, &ev.ID, &ev.Source, &ev.Outcome, &reason, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset event: %w", err)
		}
		ev.Reason = model.ErrorReason(reason)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (*model.Batch, error) {
	b := &model.Batch{}
	var label, result sql.NullString
	var duration sql.NullInt64
	var finished sql.NullTime
	if err := row.Scan(
		&b.ID, &b.Status, &label, &b.BasePath, &b.Requested, &b.Pending, &b.Succeeded,
		&b.Failed, &result, &duration, &b.CreatedAt, &finished,
	); err != nil {
		return nil, err
	}

	if label.Valid {
		if err := json.Unmarshal([]byte(label.String), &b.Label); err != nil {
			return nil, fmt.Errorf("decode label: %w", err)
		}
	}
	if result.Valid {
		b.Result = &model.BatchResult{}
		if err := json.Unmarshal([]byte(result.String), b.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	if duration.Valid {
		d := int(duration.Int64)
		b.DurationMS = &d
	}
	if finished.Valid {
		t := finished.Time
		b.FinishedAt = &t
	}
	return b, nil
}

// encodeJSON returns nil for nil values so the column stays NULL.
func encodeJSON(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	if r, ok := v.(*model.BatchResult); ok && r == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
