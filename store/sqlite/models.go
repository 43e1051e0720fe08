package sqlite

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

	ID                   int64      `grove:"id,pk"`
	Owner                string     `grove:"owner"`
	Recipient            string     `grove:"recipient"`
	Asset                string     `grove:"asset"`
	TotalAmount          string     `grove:"total_amount"`
	Withdrawn            string     `grove:"withdrawn"`
	StartAt              time.Time  `grove:"start_at"`
	EndAt                time.Time  `grove:"end_at"`
	MaxWithdrawalsPerDay int64      `grove:"max_withdrawals_per_day"`
	Active               bool       `grove:"active"`
	CanceledAt           *time.Time `grove:"canceled_at"`
	CreatedAt            time.Time  `grove:"created_at"`
	UpdatedAt            time.Time  `grove:"updated_at"`
}

type counterModel struct {
	grove.BaseModel `grove:"table:streampay_withdrawal_counters"`

	StreamID int64 `grove:"stream_id,pk"`
	Day      int64 `grove:"day,pk"`
	Used     int64 `grove:"used"`
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
