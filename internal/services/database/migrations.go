package database

import (
	"fmt"

	"github.com/Egham-7/adaptive-chat/internal/models"
)

// AutoMigrate doesn't work against ClickHouse, so the table is created by hand there
const clickhouseCompletionRecords = `
CREATE TABLE IF NOT EXISTS completion_records (
	id UInt64,
	request_id String,
	persona String DEFAULT '',
	forced_model String DEFAULT '',
	model_used String DEFAULT '',
	provider String DEFAULT '',
	fallback_occurred UInt8 DEFAULT 0,
	fallback_reason String DEFAULT '',
	continuation_rounds Int32 DEFAULT 0,
	total_tokens Int64 DEFAULT 0,
	finish_reason String DEFAULT '',
	latency_ms Int64 DEFAULT 0,
	candidates_tried Int32 DEFAULT 0,
	succeeded UInt8 DEFAULT 0,
	error_message String DEFAULT '',
	created_at DateTime DEFAULT now()
) ENGINE = MergeTree()
ORDER BY (created_at, request_id)`

// Migrate creates the completion_records table
func (db *DB) Migrate() error {
	if db.config.Type == models.ClickHouse {
		if err := db.Exec(clickhouseCompletionRecords).Error; err != nil {
			return fmt.Errorf("failed to create completion_records: %w", err)
		}
		return nil
	}

	if err := db.AutoMigrate(&models.CompletionRecord{}); err != nil {
		return fmt.Errorf("failed to migrate completion_records: %w", err)
	}
	return nil
}
