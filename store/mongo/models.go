package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

// Amounts are stored as decimal strings so the full 128-bit range
// survives the round trip.

type streamModel struct {
	grove.BaseModel `grove:"table:streampay_streams"`

	ID                   int64      `grove:"id,pk"                   bson:"_id"`
	Owner                string     `grove:"owner"                   bson:"owner"`
	Recipient            string     `grove:"recipient"               bson:"recipient"`
	Asset                string     `grove:"asset"                   bson:"asset"`
	TotalAmount          string     `grove:"total_amount"            bson:"total_amount"`
	Withdrawn            string     `grove:"withdrawn"               bson:"withdrawn"`
	StartAt              time.Time  `grove:"start_at"                bson:"start_at"`
	EndAt                time.Time  `grove:"end_at"                  bson:"end_at"`
	MaxWithdrawalsPerDay int64      `grove:"max_withdrawals_per_day" bson:"max_withdrawals_per_day"`
	Active               bool       `grove:"active"                  bson:"active"`
	CanceledAt           *time.Time `grove:"canceled_at"             bson:"canceled_at,omitempty"`
	CreatedAt            time.Time  `grove:"created_at"              bson:"created_at"`
	UpdatedAt            time.Time  `grove:"updated_at"              bson:"updated_at"`
}

type counterModel struct {
	grove.BaseModel `grove:"table:streampay_withdrawal_counters"`

	StreamID int64 `grove:"stream_id" bson:"stream_id"`
	Day      int64 `grove:"day"       bson:"day"`
	Used     int64 `grove:"used"      bson:"used"`
}

func toStreamModel(s *stream.Stream) *streamModel {
	return &streamModel{
		ID:                   int64(s.ID),
		Owner:                s.Owner,
		Recipient:            s.Recipient,
		Asset:                s.Asset,
		TotalAmount:          s.TotalAmount.String(),
		Withdrawn:            s.Withdrawn.String(),
		StartAt:              s.StartAt,
		EndAt:                s.EndAt,
		MaxWithdrawalsPerDay: int64(s.MaxWithdrawalsPerDay),
		Active:               s.Active,
		CanceledAt:           s.CanceledAt,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func fromStreamModel(m *streamModel) (*stream.Stream, error) {
	total, err := types.ParseAmount(m.TotalAmount)
	if err != nil {
		return nil, err
	}
	withdrawn, err := types.ParseAmount(m.Withdrawn)
	if err != nil {
		return nil, err
	}

	return &stream.Stream{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                   uint64(m.ID),
		Owner:                m.Owner,
		Recipient:            m.Recipient,
		Asset:                m.Asset,
		TotalAmount:          total,
		Withdrawn:            withdrawn,
		StartAt:              m.StartAt,
		EndAt:                m.EndAt,
		MaxWithdrawalsPerDay: uint32(m.MaxWithdrawalsPerDay),
		Active:               m.Active,
		CanceledAt:           m.CanceledAt,
	}, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}
