package models

import "time"

// CompletionRecord is the persisted summary of one generate call
type CompletionRecord struct {
	ID                 uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID          string       `gorm:"size:64;index" json:"request_id"`
	Persona            string       `gorm:"size:64;default:''" json:"persona,omitzero"`
	ForcedModel        string       `gorm:"size:128;default:''" json:"forced_model,omitzero"`
	ModelUsed          string       `gorm:"size:128;index;default:''" json:"model_used,omitzero"`
	Provider           string       `gorm:"size:64;index;default:''" json:"provider,omitzero"`
	FallbackOccurred   bool         `gorm:"not null;default:false" json:"fallback_occurred"`
	FallbackReason     string       `gorm:"type:text;default:''" json:"fallback_reason,omitzero"`
	ContinuationRounds int          `gorm:"not null;default:0" json:"continuation_rounds"`
	TotalTokens        int64        `gorm:"not null;default:0" json:"total_tokens"`
	FinishReason       FinishReason `gorm:"size:16;default:''" json:"finish_reason,omitzero"`
	LatencyMs          int64        `gorm:"not null;default:0" json:"latency_ms"`
	CandidatesTried    int          `gorm:"not null;default:0" json:"candidates_tried"`
	Succeeded          bool         `gorm:"not null;default:false;index" json:"succeeded"`
	ErrorMessage       string       `gorm:"type:text;default:''" json:"error_message,omitzero"`
	CreatedAt          time.Time    `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

// UsageStats aggregates completion records
type UsageStats struct {
	TotalRequests    int64   `json:"total_requests"`
	Succeeded        int64   `json:"succeeded"`
	FallbackCount    int64   `json:"fallback_count"`
	TotalTokens      int64   `json:"total_tokens"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
}
