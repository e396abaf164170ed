package postgres

import (
	"context"
	"fmt"
)

// Schema DDL of the parking state store. The two partial unique
// indices are load-bearing: they enforce slot exclusivity over parked
// sessions and at-most-one completed transaction per session at the
// DBMS level, independently of the optimistic version checks.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS slots (
		sid VARCHAR(64) PRIMARY KEY,
		class SMALLINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		distance DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_stay BIGINT NOT NULL DEFAULT 0,
		observed_at TIMESTAMP WITH TIME ZONE NOT NULL
			DEFAULT '0001-01-01T00:00:00Z',
		occupied_since TIMESTAMP WITH TIME ZONE NOT NULL
			DEFAULT '0001-01-01T00:00:00Z',
		sensor_id VARCHAR(64) NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		sid UUID PRIMARY KEY,
		plate VARCHAR(32) NOT NULL,
		tag_id VARCHAR(64) NOT NULL,
		class SMALLINT NOT NULL,
		slot_id VARCHAR(64) NOT NULL REFERENCES slots (sid),
		entered_at TIMESTAMP WITH TIME ZONE NOT NULL,
		exited_at TIMESTAMP WITH TIME ZONE,
		status VARCHAR(16) NOT NULL,
		version BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS sessions_parked_slot_uix
		ON sessions (slot_id) WHERE status = 'parked'`,
	`CREATE INDEX IF NOT EXISTS sessions_tag_ix
		ON sessions (tag_id) WHERE status = 'parked'`,
	`CREATE TABLE IF NOT EXISTS violations (
		vid UUID PRIMARY KEY,
		type VARCHAR(16) NOT NULL,
		detected_at TIMESTAMP WITH TIME ZONE NOT NULL,
		session_id UUID REFERENCES sessions (sid),
		slot_id VARCHAR(64) NOT NULL REFERENCES slots (sid),
		episode_at TIMESTAMP WITH TIME ZONE NOT NULL
			DEFAULT '0001-01-01T00:00:00Z',
		penalty BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		evidence TEXT NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS violations_status_ix
		ON violations (status, detected_at DESC)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		tid UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions (sid),
		base BIGINT NOT NULL,
		penalty BIGINT NOT NULL,
		total BIGINT NOT NULL,
		outcome VARCHAR(16) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS transactions_completed_uix
		ON transactions (session_id) WHERE outcome = 'completed'`,
}

// InitSchema creates the tables and indices of the state store if
// they are missing. All statements are idempotent, so it is safe to
// run on every startup.
func InitSchema[Q Queryer](ctx context.Context, q Q) error {
	gdb := q.GORM(ctx)
	for _, stmt := range schemaStatements {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}
	return nil
}
