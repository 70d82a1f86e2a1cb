package events

import "time"

const UploadFinalizedTopic = "payroll.upload.lifecycle.v1"

// UploadFinalizedEvent is emitted after a reviewed upload is persisted.
type UploadFinalizedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id,omitempty"`
	UploadID    string    `json:"upload_id"`
	PeriodLabel string    `json:"period_label"`
	Version     int       `json:"version"`
	OrderCount  int       `json:"order_count"`
	WorkerCount int       `json:"worker_count"`
	TotalPayout float64   `json:"total_payout"`
	OccurredAt  time.Time `json:"occurred_at"`
}
