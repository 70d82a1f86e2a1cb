package worker

import (
	"time"

	"github.com/google/uuid"
)

// Worker is the curated roster entry behind the spreadsheet names. The
// canonical spelling lives in FullName; the flags feed the rule engine.
type Worker struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName     string    `gorm:"uniqueIndex:uq_worker_full_name"`
	OnCompanyCar bool
	IsManager    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
