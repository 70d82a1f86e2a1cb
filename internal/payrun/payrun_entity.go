package payrun

import (
	"time"

	"github.com/google/uuid"
)

// Period is one half-month settlement window, identified by its label as
// printed in the export header, e.g. "16-30.11.25".
type Period struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Label     string    `gorm:"uniqueIndex:uq_period_label"`
	CreatedAt time.Time
}

// Upload is one confirmed ingestion of a period's file pair. Versions count
// up from 1; the latest version is the period's effective payroll.
type Upload struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	PeriodID      uuid.UUID `gorm:"type:uuid;index"`
	Version       int
	FileNameUnder string
	FileNameOver  string
	ConfigJSON    string `gorm:"type:jsonb"`
	CreatedAt     time.Time
}

// OrderRow is one persisted order line of an upload, source fields only.
type OrderRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UploadID  uuid.UUID `gorm:"type:uuid;index"`
	Worker    string
	RawText   string
	OrderCode string `gorm:"index"`
	Address   string

	RevenueTotal       float64
	RevenueServices    float64
	Diagnostic         float64
	DiagnosticPayment  float64
	SpecialistFee      float64
	AdditionalExpenses float64
	ServicePayment     float64
	Percent            float64

	IsOverThreshold bool
	IsClientBilled  bool
	IsWorkerTotal   bool
	IsExtraRow      bool
	IsRestored      bool
	IsReverted      bool

	DaysOnSite         int
	ManagerCommentJSON string `gorm:"type:jsonb"`

	CreatedAt time.Time
}

// Calculation holds the derived fields for one order row.
type Calculation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderRowID uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_calculation_order_row"`
	UploadID   uuid.UUID `gorm:"type:uuid;index"`

	FuelPayment  float64
	Transport    float64
	Diagnostic50 float64
	Total        float64

	CreatedAt time.Time
}

// WorkerTotal is the per-worker aggregate of an upload, with the diagnostic
// half-rate already subtracted.
type WorkerTotal struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	UploadID uuid.UUID `gorm:"type:uuid;index"`
	Worker   string

	OrderCount   int
	RevenueTotal float64
	FuelPayment  float64
	Transport    float64
	Diagnostic50 float64
	Total        float64

	CreatedAt time.Time
}

// ChangeRecord preserves a reviewed difference between upload versions.
type ChangeRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UploadID   uuid.UUID `gorm:"type:uuid;index"`
	ChangeType string
	OrderKey   string
	Worker     string
	OrderText  string
	FieldsJSON string `gorm:"type:jsonb"`
	CreatedAt  time.Time
}
