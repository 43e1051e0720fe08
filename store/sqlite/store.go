package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	streampay "github.com/xraph/streampay"
	paystore "github.com/xraph/streampay/store"
	"github.com/xraph/streampay/stream"
)

// compile-time interface check
var _ paystore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("streampay/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("streampay/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Stream Store ====================

// Create inserts the stream and assigns it the next dense sequential
// id. The id is computed inside the insert so concurrent creates cannot
// race; MAX(id)+1 also reclaims the id of a newest stream removed by a
// failed deposit unwind.
func (s *Store) Create(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)

	var assigned int64
	err := s.sdb.NewRaw(`
		INSERT INTO streampay_streams
			(id, owner, recipient, asset, total_amount, withdrawn,
			 start_at, end_at, max_withdrawals_per_day, active, canceled_at,
			 created_at, updated_at)
		SELECT COALESCE(MAX(id) + 1, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM streampay_streams
		RETURNING id
	`, m.Owner, m.Recipient, m.Asset, m.TotalAmount, m.Withdrawn,
		m.StartAt, m.EndAt, m.MaxWithdrawalsPerDay, m.Active, m.CanceledAt,
		m.CreatedAt, m.UpdatedAt).Scan(ctx, &assigned)
	if err != nil {
		return fmt.Errorf("streampay/sqlite: create stream: %w", err)
	}

	st.ID = uint64(assigned)
	return nil
}

func (s *Store) Get(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	m := new(streamModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", int64(streamID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, streampay.ErrStreamNotFound
		}
		return nil, err
	}
	return fromStreamModel(m)
}

func (s *Store) Update(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return streampay.ErrStreamNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, streamID uint64) error {
	res, err := s.sdb.NewDelete((*streamModel)(nil)).
		Where("id = ?", int64(streamID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return streampay.ErrStreamNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (uint64, error) {
	var total int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM streampay_streams`).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return uint64(total), nil
}

func (s *Store) List(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	var models []streamModel
	q := s.sdb.NewSelect(&models)

	if opts.Owner != "" {
		q = q.Where("owner = ?", opts.Owner)
	}
	if opts.Recipient != "" {
		q = q.Where("recipient = ?", opts.Recipient)
	}
	if opts.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*stream.Stream, len(models))
	for i := range models {
		st, err := fromStreamModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

// ==================== Counter Store ====================

func (s *Store) WithdrawalsUsed(ctx context.Context, streamID, day uint64) (uint32, error) {
	m := new(counterModel)
	err := s.sdb.NewSelect(m).
		Where("stream_id = ?", int64(streamID)).
		Where("day = ?", int64(day)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, err
	}
	return uint32(m.Used), nil
}

func (s *Store) IncrementWithdrawals(ctx context.Context, streamID, day uint64) (uint32, error) {
	var used int64
	err := s.sdb.NewRaw(`
		INSERT INTO streampay_withdrawal_counters (stream_id, day, used)
		VALUES (?, ?, 1)
		ON CONFLICT (stream_id, day) DO UPDATE SET used = used + 1
		RETURNING used
	`, int64(streamID), int64(day)).Scan(ctx, &used)
	if err != nil {
		return 0, fmt.Errorf("streampay/sqlite: increment withdrawals: %w", err)
	}
	return uint32(used), nil
}

// DecrementWithdrawals unwinds one increment. A missing or zero counter
// is left alone: the engine only unwinds what it just incremented.
func (s *Store) DecrementWithdrawals(ctx context.Context, streamID, day uint64) error {
	_, err := s.sdb.NewUpdate((*counterModel)(nil)).
		Set("used = used - 1").
		Where("stream_id = ?", int64(streamID)).
		Where("day = ?", int64(day)).
		Where("used > 0").
		Exec(ctx)
	return err
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
