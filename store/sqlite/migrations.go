package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the streampay store (SQLite).
var Migrations = migrate.NewGroup("streampay")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_streampay_streams",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS streampay_streams (
    id                      INTEGER PRIMARY KEY,
    owner                   TEXT NOT NULL DEFAULT '',
    recipient               TEXT NOT NULL DEFAULT '',
    asset                   TEXT NOT NULL DEFAULT '',
    total_amount            TEXT NOT NULL DEFAULT '0',
    withdrawn               TEXT NOT NULL DEFAULT '0',
    start_at                TEXT NOT NULL DEFAULT (datetime('now')),
    end_at                  TEXT NOT NULL DEFAULT (datetime('now')),
    max_withdrawals_per_day INTEGER NOT NULL DEFAULT 1,
    active                  INTEGER NOT NULL DEFAULT 1,
    canceled_at             TEXT,
    created_at              TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at              TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_streampay_streams_owner ON streampay_streams (owner, id);
CREATE INDEX IF NOT EXISTS idx_streampay_streams_recipient ON streampay_streams (recipient, id);
CREATE INDEX IF NOT EXISTS idx_streampay_streams_active ON streampay_streams (active, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streampay_streams`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_streampay_withdrawal_counters",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS streampay_withdrawal_counters (
    stream_id INTEGER NOT NULL,
    day       INTEGER NOT NULL,
    used      INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (stream_id, day)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streampay_withdrawal_counters`)
				return err
			},
		},
	)
}
