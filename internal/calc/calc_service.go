// Package calc is the payroll rule engine: a deterministic pass over
// normalized order records that derives fuel reimbursement, transport
// stipend, the diagnostic half-rate and the row total. The only I/O is the
// injected distance oracle.
package calc

import (
	"context"
	"math"
	"strings"

	"go-fieldpay/internal/geo"
	"go-fieldpay/internal/order"
	"go-fieldpay/internal/worker"

	"go.uber.org/zap"
)

const carriedMarker = "В прошлом расчете"

//go:generate mockgen -source=calc_service.go -destination=mock/calc_service_mock.go -package=mock
type DistanceOracle interface {
	RoadDistance(ctx context.Context, fromAddr, toAddr string) (float64, bool)
}

type Service struct {
	oracle DistanceOracle
	log    *zap.Logger
}

func NewService(log *zap.Logger, oracle DistanceOracle) *Service {
	return &Service{oracle: oracle, log: log}
}

// CalculateRow derives the monetary fields for one record. daysByOrder is the
// caller-supplied fallback for the fuel day multiplier, keyed by raw order
// text; the sheet's own days column wins when present.
func (s *Service) CalculateRow(ctx context.Context, rec order.Record, cfg Config, daysByOrder map[string]int) order.Calculated {
	out := order.Calculated{Record: rec}

	// Worker-total and carried-over rows pass their payment through untouched.
	if rec.IsWorkerTotal || strings.Contains(rec.RawText, carriedMarker) {
		out.Total = rec.ServicePayment
		return s.applyPriorCalc(out)
	}

	// 1. Fuel: only when no specialist fee already covers travel and an
	// address was extracted.
	if rec.SpecialistFee == 0 && rec.Address != "" {
		days := 1
		if rec.DaysOnSite > 0 {
			days = rec.DaysOnSite
		} else if d, ok := daysByOrder[rec.RawText]; ok && d > 0 {
			days = d
		}
		out.FuelPayment = s.fuelCost(ctx, rec.Address, cfg, days)
	}

	// 2. Transport stipend.
	if rec.RevenueServices > cfg.TransportMinRevenue &&
		rec.Percent >= cfg.TransportPercentMin && rec.Percent <= cfg.TransportPercentMax &&
		!onCompanyCar(rec.Worker, cfg.CompanyCarWorkers) {
		out.Transport = cfg.TransportAmount
	}

	// 3. Diagnostic half-rate, client-billed rows only. Subtracted at the
	// worker aggregate, never from this row's total.
	if rec.IsClientBilled && rec.Diagnostic > 0 {
		out.Diagnostic50 = rec.Diagnostic * cfg.DiagnosticPercent / 100
	}

	// 4. Row total.
	out.Total = rec.ServicePayment + out.FuelPayment + out.Transport

	return s.applyPriorCalc(out)
}

// CalculateAll runs the engine over a whole record set.
func (s *Service) CalculateAll(ctx context.Context, recs []order.Record, cfg Config, daysByOrder map[string]int) []order.Calculated {
	out := make([]order.Calculated, len(recs))
	for i, rec := range recs {
		out[i] = s.CalculateRow(ctx, rec, cfg, daysByOrder)
	}
	return out
}

// applyPriorCalc honors review decisions. A restored row keeps its previous
// generation's derived values verbatim (it is a manual correction, not new
// data); a reverted row keeps the previous totals after its source fields
// were rolled back. Only non-zero prior values pin, so a row the previous
// generation never priced still gets a fresh calculation.
func (s *Service) applyPriorCalc(row order.Calculated) order.Calculated {
	prior := row.PriorCalc
	if prior == nil || (!row.IsReverted && !row.IsRestored) {
		return row
	}
	if prior.Total != 0 {
		row.Total = prior.Total
	}
	if prior.FuelPayment != 0 {
		row.FuelPayment = prior.FuelPayment
	}
	if prior.Transport != 0 {
		row.Transport = prior.Transport
	}
	return row
}

// fuelCost prices a round trip from the base address. Outside the home metro
// region the cost is zero; so is any row the oracle cannot resolve.
func (s *Service) fuelCost(ctx context.Context, address string, cfg Config, days int) float64 {
	if !geo.IsHomeRegion(address) {
		return 0
	}

	target := address
	lower := strings.ToLower(address)
	if !strings.Contains(lower, "москва") && !strings.Contains(lower, "московская") {
		target = "Москва, " + address
	}

	km, ok := s.oracle.RoadDistance(ctx, cfg.BaseAddress, target)
	if !ok || km == 0 {
		return 0
	}

	cost := math.Ceil(km*2*cfg.FuelCoefficient*float64(days)/100) * 100
	if cost > cfg.FuelMax {
		cost = cfg.FuelMax
	}
	s.log.Debug("fuel computed",
		zap.String("address", address),
		zap.Float64("km", km),
		zap.Float64("cost", cost),
	)
	return cost
}

func onCompanyCar(workerName string, roster []string) bool {
	clean := worker.StripSuffix(workerName)
	for _, r := range roster {
		if worker.StripSuffix(r) == clean {
			return true
		}
	}
	return false
}
