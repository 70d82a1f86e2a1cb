package payrun

import (
	"context"
	"encoding/json"
	"errors"

	"go-fieldpay/internal/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PeriodStats is a period with its upload bookkeeping for listings.
type PeriodStats struct {
	Period        Period
	UploadCount   int
	LatestVersion int
}

//go:generate mockgen -source=payrun_repo.go -destination=mock/payrun_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Transaction(ctx context.Context, fn func(Repository) error) error

	GetOrCreatePeriod(ctx context.Context, label string) (*Period, error)
	FindPeriodByLabel(ctx context.Context, label string) (*Period, error)
	ListPeriods(ctx context.Context) ([]PeriodStats, error)

	CreateUpload(ctx context.Context, up *Upload) error
	FindUploadByID(ctx context.Context, id string) (*Upload, error)
	LatestUpload(ctx context.Context, periodID uuid.UUID) (*Upload, error)
	ListUploads(ctx context.Context, periodID uuid.UUID) ([]Upload, error)

	SaveOrderRows(ctx context.Context, rows []OrderRow) error
	SaveCalculations(ctx context.Context, calcs []Calculation) error
	SaveWorkerTotals(ctx context.Context, totals []WorkerTotal) error
	SaveChanges(ctx context.Context, changes []ChangeRecord) error

	OrdersWithCalc(ctx context.Context, uploadID uuid.UUID) ([]order.Calculated, error)
	WorkerTotals(ctx context.Context, uploadID uuid.UUID) ([]WorkerTotal, error)
	Changes(ctx context.Context, uploadID uuid.UUID) ([]ChangeRecord, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func (r *repository) GetOrCreatePeriod(ctx context.Context, label string) (*Period, error) {
	var p Period
	err := r.db.WithContext(ctx).First(&p, "label = ?", label).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p = Period{ID: uuid.New(), Label: label}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindPeriodByLabel(ctx context.Context, label string) (*Period, error) {
	var p Period
	err := r.db.WithContext(ctx).First(&p, "label = ?", label).Error
	return &p, err
}

func (r *repository) ListPeriods(ctx context.Context) ([]PeriodStats, error) {
	var periods []Period
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&periods).Error; err != nil {
		return nil, err
	}

	stats := make([]PeriodStats, 0, len(periods))
	for _, p := range periods {
		var uploads []Upload
		if err := r.db.WithContext(ctx).
			Where("period_id = ?", p.ID).
			Order("version desc").
			Find(&uploads).Error; err != nil {
			return nil, err
		}
		st := PeriodStats{Period: p, UploadCount: len(uploads)}
		if len(uploads) > 0 {
			st.LatestVersion = uploads[0].Version
		}
		stats = append(stats, st)
	}
	return stats, nil
}

func (r *repository) CreateUpload(ctx context.Context, up *Upload) error {
	return r.db.WithContext(ctx).Create(up).Error
}

func (r *repository) FindUploadByID(ctx context.Context, id string) (*Upload, error) {
	var up Upload
	err := r.db.WithContext(ctx).First(&up, "id = ?", id).Error
	return &up, err
}

// LatestUpload returns (nil, nil) when the period has no uploads yet.
func (r *repository) LatestUpload(ctx context.Context, periodID uuid.UUID) (*Upload, error) {
	var up Upload
	err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("version desc").
		First(&up).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &up, nil
}

func (r *repository) ListUploads(ctx context.Context, periodID uuid.UUID) ([]Upload, error) {
	var uploads []Upload
	err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("version asc").
		Find(&uploads).Error
	return uploads, err
}

func (r *repository) SaveOrderRows(ctx context.Context, rows []OrderRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) SaveCalculations(ctx context.Context, calcs []Calculation) error {
	if len(calcs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&calcs).Error
}

func (r *repository) SaveWorkerTotals(ctx context.Context, totals []WorkerTotal) error {
	if len(totals) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&totals).Error
}

func (r *repository) SaveChanges(ctx context.Context, changes []ChangeRecord) error {
	if len(changes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&changes).Error
}

// OrdersWithCalc rehydrates an upload into the in-memory representation the
// diff and the rule engine work with.
func (r *repository) OrdersWithCalc(ctx context.Context, uploadID uuid.UUID) ([]order.Calculated, error) {
	var rows []OrderRow
	if err := r.db.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var calcs []Calculation
	if err := r.db.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		Find(&calcs).Error; err != nil {
		return nil, err
	}
	calcByRow := make(map[uuid.UUID]Calculation, len(calcs))
	for _, c := range calcs {
		calcByRow[c.OrderRowID] = c
	}

	out := make([]order.Calculated, 0, len(rows))
	for _, row := range rows {
		rec := order.Record{
			Worker:             row.Worker,
			RawText:            row.RawText,
			OrderCode:          row.OrderCode,
			Address:            row.Address,
			RevenueTotal:       row.RevenueTotal,
			RevenueServices:    row.RevenueServices,
			Diagnostic:         row.Diagnostic,
			DiagnosticPayment:  row.DiagnosticPayment,
			SpecialistFee:      row.SpecialistFee,
			AdditionalExpenses: row.AdditionalExpenses,
			ServicePayment:     row.ServicePayment,
			Percent:            row.Percent,
			IsOverThreshold:    row.IsOverThreshold,
			IsClientBilled:     row.IsClientBilled,
			IsWorkerTotal:      row.IsWorkerTotal,
			IsExtraRow:         row.IsExtraRow,
			IsRestored:         row.IsRestored,
			IsReverted:         row.IsReverted,
			DaysOnSite:         row.DaysOnSite,
		}
		if row.ManagerCommentJSON != "" {
			var mc order.ManagerComment
			if json.Unmarshal([]byte(row.ManagerCommentJSON), &mc) == nil {
				rec.ManagerComment = &mc
			}
		}

		calced := order.Calculated{Record: rec}
		if c, ok := calcByRow[row.ID]; ok {
			calced.FuelPayment = c.FuelPayment
			calced.Transport = c.Transport
			calced.Diagnostic50 = c.Diagnostic50
			calced.Total = c.Total
		}
		out = append(out, calced)
	}
	return out, nil
}

func (r *repository) WorkerTotals(ctx context.Context, uploadID uuid.UUID) ([]WorkerTotal, error) {
	var totals []WorkerTotal
	err := r.db.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		Order("worker asc").
		Find(&totals).Error
	return totals, err
}

func (r *repository) Changes(ctx context.Context, uploadID uuid.UUID) ([]ChangeRecord, error) {
	var changes []ChangeRecord
	err := r.db.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		Order("created_at asc").
		Find(&changes).Error
	return changes, err
}
