// Package usage persists one CompletionRecord per generate call.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Record(ctx context.Context, record *models.CompletionRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}
	return nil
}

// Recent returns the newest records first
func (s *Service) Recent(ctx context.Context, limit int) ([]models.CompletionRecord, error) {
	var records []models.CompletionRecord

	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get completion records: %w", err)
	}
	return records, nil
}

// Stats aggregates records created at or after since. A zero since covers everything.
func (s *Service) Stats(ctx context.Context, since time.Time) (*models.UsageStats, error) {
	var stats models.UsageStats

	query := s.db.WithContext(ctx).Model(&models.CompletionRecord{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	err := query.
		Select(
			"COUNT(*) AS total_requests, "+
				"COUNT(CASE WHEN succeeded = ? THEN 1 END) AS succeeded, "+
				"COUNT(CASE WHEN fallback_occurred = ? THEN 1 END) AS fallback_count, "+
				"COALESCE(SUM(total_tokens), 0) AS total_tokens, "+
				"COALESCE(AVG(latency_ms), 0) AS average_latency_ms",
			true, true,
		).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}
	return &stats, nil
}
