package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	streampay "github.com/xraph/streampay"
	paystore "github.com/xraph/streampay/store"
	"github.com/xraph/streampay/stream"
)

// Collection name constants.
const (
	colStreams  = "streampay_streams"
	colCounters = "streampay_withdrawal_counters"
)

// createRetries bounds the id-assignment retry loop in Create.
const createRetries = 5

// compile-time interface check
var _ paystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all streampay collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("streampay/mongo: migrate %s indexes: %w", col, err)
		}
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

// Create inserts the stream with the next dense sequential id. Mongo
// has no cross-document MAX+1 insert, so the id is read first and the
// insert retried on a duplicate-key race. MAX+1 also reclaims the id of
// a newest stream removed by a failed deposit unwind.
func (s *Store) Create(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)

	for attempt := 0; attempt < createRetries; attempt++ {
		next, err := s.nextStreamID(ctx)
		if err != nil {
			return fmt.Errorf("streampay/mongo: next stream id: %w", err)
		}

		m.ID = next
		_, err = s.mdb.NewInsert(m).Exec(ctx)
		if err == nil {
			st.ID = uint64(next)
			return nil
		}
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		return fmt.Errorf("streampay/mongo: create stream: %w", err)
	}
	return fmt.Errorf("streampay/mongo: create stream: id contention after %d attempts", createRetries)
}

func (s *Store) nextStreamID(ctx context.Context) (int64, error) {
	var m streamModel
	err := s.mdb.NewFind(&m).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, err
	}
	return m.ID + 1, nil
}

func (s *Store) Get(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	var m streamModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(streamID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, streampay.ErrStreamNotFound
		}
		return nil, fmt.Errorf("streampay/mongo: get stream: %w", err)
	}
	return fromStreamModel(&m)
}

func (s *Store) Update(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streampay/mongo: update stream: %w", err)
	}
	if res.MatchedCount() == 0 {
		return streampay.ErrStreamNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, streamID uint64) error {
	res, err := s.mdb.NewDelete((*streamModel)(nil)).
		Filter(bson.M{"_id": int64(streamID)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streampay/mongo: delete stream: %w", err)
	}
	if res.DeletedCount() == 0 {
		return streampay.ErrStreamNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (uint64, error) {
	total, err := s.mdb.Collection(colStreams).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("streampay/mongo: count streams: %w", err)
	}
	return uint64(total), nil
}

func (s *Store) List(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	var models []streamModel

	filter := bson.M{}
	if opts.Owner != "" {
		filter["owner"] = opts.Owner
	}
	if opts.Recipient != "" {
		filter["recipient"] = opts.Recipient
	}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("streampay/mongo: list streams: %w", err)
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
	var m counterModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"stream_id": int64(streamID), "day": int64(day)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("streampay/mongo: withdrawals used: %w", err)
	}
	return uint32(m.Used), nil
}

func (s *Store) IncrementWithdrawals(ctx context.Context, streamID, day uint64) (uint32, error) {
	res := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"stream_id": int64(streamID), "day": int64(day)},
		bson.M{"$inc": bson.M{"used": 1}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After))

	var m counterModel
	if err := res.Decode(&m); err != nil {
		return 0, fmt.Errorf("streampay/mongo: increment withdrawals: %w", err)
	}
	return uint32(m.Used), nil
}

// DecrementWithdrawals unwinds one increment. A missing or zero counter
// is left alone: the engine only unwinds what it just incremented.
func (s *Store) DecrementWithdrawals(ctx context.Context, streamID, day uint64) error {
	_, err := s.mdb.NewUpdate((*counterModel)(nil)).
		Filter(bson.M{
			"stream_id": int64(streamID),
			"day":       int64(day),
			"used":      bson.M{"$gt": 0},
		}).
		SetUpdate(bson.M{"$inc": bson.M{"used": -1}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streampay/mongo: decrement withdrawals: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all streampay collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colStreams: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colCounters: {
			{
				Keys:    bson.D{{Key: "stream_id", Value: 1}, {Key: "day", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
