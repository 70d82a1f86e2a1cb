package payrun

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go-fieldpay/internal/calc"
	"go-fieldpay/internal/events"
	"go-fieldpay/internal/ingest"
	"go-fieldpay/internal/messaging/kafka"
	"go-fieldpay/internal/order"
	payrunerrors "go-fieldpay/internal/payrun/errors"
	"go-fieldpay/internal/reconcile"
	"go-fieldpay/internal/session"
	"go-fieldpay/internal/shared/contextutil"
	"go-fieldpay/internal/worker"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusFinalized      = "finalized"
	StatusReviewRequired = "review_required"
)

//go:generate mockgen -source=payrun_service.go -destination=mock/payrun_service_mock.go -package=mock
type Service interface {
	Upload(ctx context.Context, req UploadRequest) (UploadResponse, error)
	GetReview(ctx context.Context, sessionID string) (ReviewResponse, error)
	ApplyReview(ctx context.Context, sessionID string, req ApplyReviewRequest) (FinalizeResponse, error)
	ListPeriods(ctx context.Context) ([]PeriodResponse, error)
	ListUploads(ctx context.Context, periodLabel string) ([]UploadSummaryResponse, error)
	GetUpload(ctx context.Context, uploadID string) (UploadDetailResponse, error)
}

type service struct {
	repo       Repository
	workers    worker.Service
	calculator *calc.Service
	reconciler *reconcile.Service
	sessions   *session.Store
	publisher  kafka.Publisher
	logger     *zap.Logger
}

func NewService(
	repo Repository,
	workers worker.Service,
	calculator *calc.Service,
	reconciler *reconcile.Service,
	sessions *session.Store,
	publisher kafka.Publisher,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("payrun.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrun.service")
	}
	if publisher == nil {
		publisher = kafka.NewNoopPublisher()
	}
	return &service{
		repo:       repo,
		workers:    workers,
		calculator: calculator,
		reconciler: reconciler,
		sessions:   sessions,
		publisher:  publisher,
		logger:     l,
	}
}

// Upload parses a period's file pair, previews the calculation and either
// persists it at once (first upload of the period, nothing to review) or
// parks it in a review session with the diff against the latest version.
func (s *service) Upload(ctx context.Context, req UploadRequest) (UploadResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	if len(req.FileUnder) == 0 || len(req.FileOver) == 0 {
		return UploadResponse{}, payrunerrors.ErrMissingFiles
	}

	managers, err := s.workers.ManagerSet(ctx)
	if err != nil {
		s.logger.Error("upload roster fetch failed", zap.String("request_id", rid), zap.Error(err))
		return UploadResponse{}, err
	}

	ing := ingest.NewService(s.logger, managers)
	batch, err := ing.ParseBatch(req.FileUnder, req.FileOver)
	if err != nil {
		if errors.Is(err, ingest.ErrHeaderNotFound) {
			return UploadResponse{}, payrunerrors.ErrBadExportFile
		}
		s.logger.Error("upload parse failed", zap.String("request_id", rid), zap.Error(err))
		return UploadResponse{}, err
	}
	s.logger.Info("upload parsed",
		zap.String("request_id", rid),
		zap.String("period", batch.Period),
		zap.Int("records", len(batch.Records)),
		zap.Int("workers", len(batch.Workers)),
	)

	cfg := calc.DefaultConfig().Merge(req.Overrides)
	if len(cfg.CompanyCarWorkers) == 0 {
		cars, err := s.workers.CompanyCarWorkers(ctx)
		if err != nil {
			return UploadResponse{}, err
		}
		cfg.CompanyCarWorkers = cars
	}

	applyManagerComments(batch.Records)
	preview := s.calculator.CalculateAll(ctx, batch.Records, cfg, nil)

	prevUpload, prior := s.latestGeneration(ctx, batch.Period)
	normalizePriorWorkers(prior, batch.NameMap)

	if prevUpload == nil {
		fin, err := s.finalize(ctx, batch.Period, req, preview, cfg, batch.Warnings, nil)
		if err != nil {
			return UploadResponse{}, err
		}
		return UploadResponse{
			Status:      StatusFinalized,
			PeriodLabel: batch.Period,
			Result:      &fin,
			Warnings:    batch.Warnings,
		}, nil
	}

	diff := s.reconciler.Diff(prior, preview)
	diff.PreviousVersion = prevUpload.Version
	diff.PreviousUploadID = prevUpload.ID.String()

	if diff.Empty() && len(batch.ManagerComments) == 0 {
		fin, err := s.finalize(ctx, batch.Period, req, preview, cfg, batch.Warnings, nil)
		if err != nil {
			return UploadResponse{}, err
		}
		return UploadResponse{
			Status:      StatusFinalized,
			PeriodLabel: batch.Period,
			Result:      &fin,
			Warnings:    batch.Warnings,
		}, nil
	}

	sessionID := uuid.NewString()
	rev := session.Review{
		PeriodLabel:     batch.Period,
		FileNameUnder:   req.FileNameUnder,
		FileNameOver:    req.FileNameOver,
		Records:         batch.Records,
		NameMap:         batch.NameMap,
		Workers:         batch.Workers,
		ManagerComments: batch.ManagerComments,
		Warnings:        batch.Warnings,
		Diff:            diff,
		Config:          cfg,
		PrevUploadID:    prevUpload.ID.String(),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.sessions.Save(ctx, sessionID, rev); err != nil {
		return UploadResponse{}, err
	}

	s.logger.Info("upload pending review",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.String("period", batch.Period),
		zap.Int("modified", len(diff.Modified)),
		zap.Int("added", len(diff.Added)),
		zap.Int("deleted", len(diff.Deleted)),
	)
	return UploadResponse{
		Status:          StatusReviewRequired,
		PeriodLabel:     batch.Period,
		SessionID:       sessionID,
		Diff:            &diff,
		ManagerComments: batch.ManagerComments,
		Warnings:        batch.Warnings,
	}, nil
}

func (s *service) GetReview(ctx context.Context, sessionID string) (ReviewResponse, error) {
	rev, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ReviewResponse{}, payrunerrors.ErrReviewNotFound
		}
		return ReviewResponse{}, err
	}
	return ReviewResponse{
		SessionID:       sessionID,
		PeriodLabel:     rev.PeriodLabel,
		Diff:            rev.Diff,
		ManagerComments: rev.ManagerComments,
		Warnings:        rev.Warnings,
	}, nil
}

// ApplyReview finishes a pending upload with the reviewer's decisions.
func (s *service) ApplyReview(ctx context.Context, sessionID string, req ApplyReviewRequest) (FinalizeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	rev, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return FinalizeResponse{}, payrunerrors.ErrReviewNotFound
		}
		return FinalizeResponse{}, err
	}

	var prior []order.Calculated
	if rev.PrevUploadID != "" {
		prev, err := s.repo.FindUploadByID(ctx, rev.PrevUploadID)
		if err != nil {
			return FinalizeResponse{}, mapRepositoryError(err)
		}
		prior, err = s.repo.OrdersWithCalc(ctx, prev.ID)
		if err != nil {
			return FinalizeResponse{}, err
		}
	}
	normalizePriorWorkers(prior, rev.NameMap)

	records := s.reconciler.ApplySelections(rev.Records, prior, req.Selections, rev.NameMap)
	applyManagerComments(records)
	calced := s.calculator.CalculateAll(ctx, records, rev.Config, nil)

	uploadReq := UploadRequest{
		FileNameUnder: rev.FileNameUnder,
		FileNameOver:  rev.FileNameOver,
	}
	fin, err := s.finalize(ctx, rev.PeriodLabel, uploadReq, calced, rev.Config, rev.Warnings, changesOf(rev.Diff))
	if err != nil {
		return FinalizeResponse{}, err
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("review session cleanup failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	s.logger.Info("review applied",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.String("upload_id", fin.UploadID),
	)
	return fin, nil
}

func (s *service) ListPeriods(ctx context.Context) ([]PeriodResponse, error) {
	stats, err := s.repo.ListPeriods(ctx)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	resp := make([]PeriodResponse, len(stats))
	for i, st := range stats {
		resp[i] = PeriodResponse{
			ID:            st.Period.ID.String(),
			Label:         st.Period.Label,
			UploadCount:   st.UploadCount,
			LatestVersion: st.LatestVersion,
			CreatedAt:     st.Period.CreatedAt.Format(time.RFC3339),
		}
	}
	return resp, nil
}

func (s *service) ListUploads(ctx context.Context, periodLabel string) ([]UploadSummaryResponse, error) {
	period, err := s.repo.FindPeriodByLabel(ctx, periodLabel)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payrunerrors.ErrPeriodNotFound
		}
		return nil, err
	}
	uploads, err := s.repo.ListUploads(ctx, period.ID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	resp := make([]UploadSummaryResponse, len(uploads))
	for i, up := range uploads {
		resp[i] = mapUploadSummary(up, period.Label)
	}
	return resp, nil
}

func (s *service) GetUpload(ctx context.Context, uploadID string) (UploadDetailResponse, error) {
	up, err := s.repo.FindUploadByID(ctx, uploadID)
	if err != nil {
		return UploadDetailResponse{}, mapRepositoryError(err)
	}

	rows, err := s.repo.OrdersWithCalc(ctx, up.ID)
	if err != nil {
		return UploadDetailResponse{}, err
	}
	totals, err := s.repo.WorkerTotals(ctx, up.ID)
	if err != nil {
		return UploadDetailResponse{}, err
	}
	changes, err := s.repo.Changes(ctx, up.ID)
	if err != nil {
		return UploadDetailResponse{}, err
	}

	periodLabel := ""
	if period, err := s.repo.ListPeriods(ctx); err == nil {
		for _, st := range period {
			if st.Period.ID == up.PeriodID {
				periodLabel = st.Period.Label
				break
			}
		}
	}

	detail := UploadDetailResponse{
		Upload: mapUploadSummary(*up, periodLabel),
		Orders: rows,
	}
	for _, t := range totals {
		detail.WorkerTotals = append(detail.WorkerTotals, mapWorkerTotal(t))
	}
	for _, ch := range changes {
		cr := ChangeResponse{
			Type:      ch.ChangeType,
			OrderKey:  ch.OrderKey,
			Worker:    ch.Worker,
			OrderText: ch.OrderText,
		}
		if ch.FieldsJSON != "" {
			_ = json.Unmarshal([]byte(ch.FieldsJSON), &cr.Fields)
		}
		detail.Changes = append(detail.Changes, cr)
	}
	return detail, nil
}

// finalize persists one upload generation in a single transaction and emits
// the lifecycle event after commit.
func (s *service) finalize(
	ctx context.Context,
	periodLabel string,
	req UploadRequest,
	rows []order.Calculated,
	cfg calc.Config,
	warnings []string,
	changes []reconcile.Change,
) (FinalizeResponse, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return FinalizeResponse{}, err
	}

	totals := buildWorkerTotals(rows)

	var upload Upload
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		period, err := tx.GetOrCreatePeriod(ctx, periodLabel)
		if err != nil {
			return err
		}
		version := 1
		if latest, err := tx.LatestUpload(ctx, period.ID); err != nil {
			return err
		} else if latest != nil {
			version = latest.Version + 1
		}

		upload = Upload{
			ID:            uuid.New(),
			PeriodID:      period.ID,
			Version:       version,
			FileNameUnder: req.FileNameUnder,
			FileNameOver:  req.FileNameOver,
			ConfigJSON:    string(cfgJSON),
		}
		if err := tx.CreateUpload(ctx, &upload); err != nil {
			return err
		}

		orderRows := make([]OrderRow, 0, len(rows))
		calcRows := make([]Calculation, 0, len(rows))
		for _, row := range rows {
			or := mapOrderRow(upload.ID, row)
			orderRows = append(orderRows, or)
			calcRows = append(calcRows, Calculation{
				ID:           uuid.New(),
				OrderRowID:   or.ID,
				UploadID:     upload.ID,
				FuelPayment:  row.FuelPayment,
				Transport:    row.Transport,
				Diagnostic50: row.Diagnostic50,
				Total:        row.Total,
			})
		}
		if err := tx.SaveOrderRows(ctx, orderRows); err != nil {
			return err
		}
		if err := tx.SaveCalculations(ctx, calcRows); err != nil {
			return err
		}

		wt := make([]WorkerTotal, 0, len(totals))
		for _, t := range totals {
			wt = append(wt, WorkerTotal{
				ID:           uuid.New(),
				UploadID:     upload.ID,
				Worker:       t.Worker,
				OrderCount:   t.OrderCount,
				RevenueTotal: t.RevenueTotal,
				FuelPayment:  t.FuelPayment,
				Transport:    t.Transport,
				Diagnostic50: t.Diagnostic50,
				Total:        t.Total,
			})
		}
		if err := tx.SaveWorkerTotals(ctx, wt); err != nil {
			return err
		}

		changeRows := make([]ChangeRecord, 0, len(changes))
		for _, ch := range changes {
			fieldsJSON := ""
			if len(ch.Fields) > 0 {
				if b, err := json.Marshal(ch.Fields); err == nil {
					fieldsJSON = string(b)
				}
			}
			changeRows = append(changeRows, ChangeRecord{
				ID:         uuid.New(),
				UploadID:   upload.ID,
				ChangeType: ch.Type,
				OrderKey:   ch.Key,
				Worker:     ch.Worker,
				OrderText:  ch.Order,
				FieldsJSON: fieldsJSON,
			})
		}
		return tx.SaveChanges(ctx, changeRows)
	})
	if err != nil {
		s.logger.Error("finalize upload failed",
			zap.String("period", periodLabel), zap.Error(err))
		return FinalizeResponse{}, mapRepositoryError(err)
	}

	fin := FinalizeResponse{
		UploadID:     upload.ID.String(),
		PeriodLabel:  periodLabel,
		Version:      upload.Version,
		OrderCount:   countOrderRows(rows),
		WorkerCount:  len(totals),
		WorkerTotals: totals,
		Alarms:       calc.GenerateAlarms(rows, cfg),
		Warnings:     warnings,
	}
	for _, t := range totals {
		fin.TotalPayout += t.Total
	}

	event := events.UploadFinalizedEvent{
		EventType:   "upload_finalized",
		RequestID:   contextutil.GetRequestID(ctx),
		UploadID:    fin.UploadID,
		PeriodLabel: periodLabel,
		Version:     fin.Version,
		OrderCount:  fin.OrderCount,
		WorkerCount: fin.WorkerCount,
		TotalPayout: fin.TotalPayout,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.PublishUploadFinalized(ctx, event); err != nil {
		s.logger.Warn("upload finalized event publish failed",
			zap.String("upload_id", fin.UploadID), zap.Error(err))
	}

	s.logger.Info("upload finalized",
		zap.String("upload_id", fin.UploadID),
		zap.String("period", periodLabel),
		zap.Int("version", fin.Version),
		zap.Float64("total_payout", fin.TotalPayout),
	)
	return fin, nil
}

// latestGeneration loads the latest persisted version of a period, or
// (nil, nil) for a first upload. Reconciliation is best effort: when the
// prior generation cannot be fetched the upload proceeds as a first one
// instead of blocking the batch.
func (s *service) latestGeneration(ctx context.Context, periodLabel string) (*Upload, []order.Calculated) {
	period, err := s.repo.FindPeriodByLabel(ctx, periodLabel)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("prior period lookup failed, treating as first upload",
				zap.String("period", periodLabel), zap.Error(err))
		}
		return nil, nil
	}
	prev, err := s.repo.LatestUpload(ctx, period.ID)
	if err != nil || prev == nil {
		if err != nil {
			s.logger.Warn("prior upload lookup failed, treating as first upload",
				zap.String("period", periodLabel), zap.Error(err))
		}
		return nil, nil
	}
	prior, err := s.repo.OrdersWithCalc(ctx, prev.ID)
	if err != nil {
		s.logger.Warn("prior generation fetch failed, treating as first upload",
			zap.String("period", periodLabel), zap.Error(err))
		return nil, nil
	}
	return prev, prior
}

// normalizePriorWorkers re-resolves stored worker names through the current
// batch's name map. An earlier generation may hold a shorter spelling than
// the one this batch resolved, and the diff keys rows by worker name.
func normalizePriorWorkers(rows []order.Calculated, nameMap map[string]string) {
	for i := range rows {
		rows[i].Worker = worker.Normalize(rows[i].Worker, nameMap)
	}
}

// applyManagerComments enforces approved deduction notes on the source
// fields. Percent notes replace the rate, fixed notes replace the payment;
// informational notes change nothing. Idempotent, so re-running after the
// review is safe.
func applyManagerComments(recs []order.Record) {
	for i := range recs {
		mc := recs[i].ManagerComment
		if mc == nil {
			continue
		}
		switch mc.Type {
		case order.CommentPercent:
			recs[i].Percent = mc.Value
			recs[i].ServicePayment = recs[i].RevenueServices * mc.Value / 100
		case order.CommentFixed:
			recs[i].ServicePayment = mc.Value
		}
	}
}

// buildWorkerTotals aggregates rows by worker. Both sections of a worker
// fold into one aggregate; the diagnostic half-rate is subtracted here and
// only here.
func buildWorkerTotals(rows []order.Calculated) []WorkerTotalResult {
	byWorker := map[string]*WorkerTotalResult{}
	for _, row := range rows {
		if row.IsWorkerTotal {
			continue
		}
		name := worker.StripSuffix(row.Worker)
		t, ok := byWorker[name]
		if !ok {
			t = &WorkerTotalResult{Worker: name}
			byWorker[name] = t
		}
		t.OrderCount++
		t.RevenueTotal += row.RevenueTotal
		t.FuelPayment += row.FuelPayment
		t.Transport += row.Transport
		t.Diagnostic50 += row.Diagnostic50
		t.Total += row.Total
	}

	out := make([]WorkerTotalResult, 0, len(byWorker))
	for _, t := range byWorker {
		t.Total -= t.Diagnostic50
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Worker < out[j].Worker })
	return out
}

func changesOf(sum reconcile.Summary) []reconcile.Change {
	var all []reconcile.Change
	all = append(all, sum.Modified...)
	all = append(all, sum.Added...)
	all = append(all, sum.Deleted...)
	all = append(all, sum.ExtraRows...)
	return all
}

func countOrderRows(rows []order.Calculated) int {
	n := 0
	for _, row := range rows {
		if !row.IsWorkerTotal {
			n++
		}
	}
	return n
}

func mapOrderRow(uploadID uuid.UUID, row order.Calculated) OrderRow {
	or := OrderRow{
		ID:                 uuid.New(),
		UploadID:           uploadID,
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
	if row.ManagerComment != nil {
		if b, err := json.Marshal(row.ManagerComment); err == nil {
			or.ManagerCommentJSON = string(b)
		}
	}
	return or
}

func mapUploadSummary(up Upload, periodLabel string) UploadSummaryResponse {
	return UploadSummaryResponse{
		ID:            up.ID.String(),
		PeriodLabel:   periodLabel,
		Version:       up.Version,
		FileNameUnder: up.FileNameUnder,
		FileNameOver:  up.FileNameOver,
		CreatedAt:     up.CreatedAt.Format(time.RFC3339),
	}
}

func mapWorkerTotal(t WorkerTotal) WorkerTotalResult {
	return WorkerTotalResult{
		Worker:       t.Worker,
		OrderCount:   t.OrderCount,
		RevenueTotal: t.RevenueTotal,
		FuelPayment:  t.FuelPayment,
		Transport:    t.Transport,
		Diagnostic50: t.Diagnostic50,
		Total:        t.Total,
	}
}
