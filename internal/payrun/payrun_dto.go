package payrun

import (
	"go-fieldpay/internal/calc"
	"go-fieldpay/internal/ingest"
	"go-fieldpay/internal/order"
	"go-fieldpay/internal/reconcile"
)

// UploadRequest carries the decoded multipart pair plus per-run overrides.
type UploadRequest struct {
	FileUnder     []byte
	FileOver      []byte
	FileNameUnder string
	FileNameOver  string
	Overrides     calc.Overrides
}

// UploadResponse is either a finished first upload or a pending review.
type UploadResponse struct {
	Status      string `json:"status"` // "finalized" or "review_required"
	PeriodLabel string `json:"period_label"`

	// Review branch.
	SessionID       string                  `json:"session_id,omitempty"`
	Diff            *reconcile.Summary      `json:"diff,omitempty"`
	ManagerComments []ingest.ManagerComment `json:"manager_comments,omitempty"`

	// Finalized branch.
	Result *FinalizeResponse `json:"result,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// ApplyReviewRequest is the reviewer's confirmation of a pending session.
type ApplyReviewRequest struct {
	Selections reconcile.Selections `json:"selections"`
}

// FinalizeResponse summarizes a persisted upload.
type FinalizeResponse struct {
	UploadID     string              `json:"upload_id"`
	PeriodLabel  string              `json:"period_label"`
	Version      int                 `json:"version"`
	OrderCount   int                 `json:"order_count"`
	WorkerCount  int                 `json:"worker_count"`
	TotalPayout  float64             `json:"total_payout"`
	WorkerTotals []WorkerTotalResult `json:"worker_totals"`
	Alarms       calc.Alarms         `json:"alarms"`
	Warnings     []string            `json:"warnings,omitempty"`
}

type WorkerTotalResult struct {
	Worker       string  `json:"worker"`
	OrderCount   int     `json:"order_count"`
	RevenueTotal float64 `json:"revenue_total"`
	FuelPayment  float64 `json:"fuel_payment"`
	Transport    float64 `json:"transport"`
	Diagnostic50 float64 `json:"diagnostic_50"`
	Total        float64 `json:"total"`
}

// ReviewResponse is the pending session rendered for the reviewer.
type ReviewResponse struct {
	SessionID       string                  `json:"session_id"`
	PeriodLabel     string                  `json:"period_label"`
	Diff            reconcile.Summary       `json:"diff"`
	ManagerComments []ingest.ManagerComment `json:"manager_comments,omitempty"`
	Warnings        []string                `json:"warnings,omitempty"`
}

type PeriodResponse struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	UploadCount   int    `json:"upload_count"`
	LatestVersion int    `json:"latest_version"`
	CreatedAt     string `json:"created_at"`
}

type UploadSummaryResponse struct {
	ID            string `json:"id"`
	PeriodLabel   string `json:"period_label"`
	Version       int    `json:"version"`
	FileNameUnder string `json:"file_name_under"`
	FileNameOver  string `json:"file_name_over"`
	CreatedAt     string `json:"created_at"`
}

// UploadDetailResponse returns one upload's rows and aggregates.
type UploadDetailResponse struct {
	Upload       UploadSummaryResponse `json:"upload"`
	Orders       []order.Calculated    `json:"orders"`
	WorkerTotals []WorkerTotalResult   `json:"worker_totals"`
	Changes      []ChangeResponse      `json:"changes,omitempty"`
}

type ChangeResponse struct {
	Type      string                  `json:"type"`
	OrderKey  string                  `json:"order_key"`
	Worker    string                  `json:"worker"`
	OrderText string                  `json:"order_text"`
	Fields    []reconcile.FieldChange `json:"fields,omitempty"`
}
