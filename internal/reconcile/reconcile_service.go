// Package reconcile compares two generations of the same payroll period and
// applies the reviewer's decisions over the differences. Money comparisons
// use a small tolerance so spreadsheet re-export noise is not reported as a
// change.
package reconcile

import (
	"fmt"
	"math"

	"go-fieldpay/internal/order"
	"go-fieldpay/internal/textextract"

	"go.uber.org/zap"
)

const (
	// moneyTolerance absorbs float noise from re-exported sheets.
	moneyTolerance = 0.01
	// fuelJitter is the fuel delta below which a recomputed fuel payment is
	// treated as provider jitter, not a real change.
	fuelJitter = 250
)

type Service struct {
	log *zap.Logger
}

func NewService(log *zap.Logger) *Service {
	return &Service{log: log}
}

// compareFields are the source fields checked row against row. Percent is
// formatted as a whole percentage; the rest as plain amounts.
var compareFields = []struct {
	name    string
	value   func(order.Calculated) float64
	percent bool
}{
	{name: "revenue_total", value: func(c order.Calculated) float64 { return c.RevenueTotal }},
	{name: "revenue_services", value: func(c order.Calculated) float64 { return c.RevenueServices }},
	{name: "diagnostic", value: func(c order.Calculated) float64 { return c.Diagnostic }},
	{name: "specialist_fee", value: func(c order.Calculated) float64 { return c.SpecialistFee }},
	{name: "additional_expenses", value: func(c order.Calculated) float64 { return c.AdditionalExpenses }},
	{name: "service_payment", value: func(c order.Calculated) float64 { return c.ServicePayment }},
	{name: "percent", value: func(c order.Calculated) float64 { return c.Percent }, percent: true},
}

// Diff matches rows of the previous generation against the new one by order
// key and reports added, deleted and modified rows. Worker-total rows are
// ignored; previously restored extra rows that vanished again are reported
// separately so the reviewer can re-restore them.
func (s *Service) Diff(prev, next []order.Calculated) Summary {
	sum := Summary{HasPrevious: true}

	prevByKey := indexByKey(prev)
	nextByKey := indexByKey(next)

	for _, oldRow := range prev {
		if oldRow.IsWorkerTotal {
			continue
		}
		key := rowKey(oldRow)
		newRow, ok := nextByKey[key]
		if !ok {
			old := oldRow
			ch := Change{
				Type:   "deleted",
				Key:    key,
				Worker: oldRow.Worker,
				Order:  textextract.ShortOrder(oldRow.RawText),
				Old:    &old,
			}
			if oldRow.IsExtraRow {
				ch.Type = "extra_row"
				sum.ExtraRows = append(sum.ExtraRows, ch)
			} else {
				sum.Deleted = append(sum.Deleted, ch)
			}
			continue
		}

		fields := diffFields(oldRow, newRow)
		if len(fields) == 0 {
			continue
		}
		old, nw := oldRow, newRow
		sum.Modified = append(sum.Modified, Change{
			Type:   "modified",
			Key:    key,
			Worker: newRow.Worker,
			Order:  textextract.ShortOrder(newRow.RawText),
			Fields: fields,
			Old:    &old,
			New:    &nw,
		})
	}

	for _, newRow := range next {
		if newRow.IsWorkerTotal {
			continue
		}
		key := rowKey(newRow)
		if _, ok := prevByKey[key]; ok {
			continue
		}
		nw := newRow
		sum.Added = append(sum.Added, Change{
			Type:   "added",
			Key:    key,
			Worker: newRow.Worker,
			Order:  textextract.ShortOrder(newRow.RawText),
			New:    &nw,
		})
	}

	s.log.Info("generation diff computed",
		zap.Int("added", len(sum.Added)),
		zap.Int("deleted", len(sum.Deleted)),
		zap.Int("modified", len(sum.Modified)),
		zap.Int("extra_rows", len(sum.ExtraRows)),
	)
	return sum
}

func diffFields(oldRow, newRow order.Calculated) []FieldChange {
	var fields []FieldChange

	for _, cf := range compareFields {
		ov, nv := cf.value(oldRow), cf.value(newRow)
		if math.Abs(ov-nv) <= moneyTolerance {
			continue
		}
		if cf.percent {
			fields = append(fields, FieldChange{
				Field: cf.name,
				Old:   fmt.Sprintf("%.0f%%", ov),
				New:   fmt.Sprintf("%.0f%%", nv),
			})
		} else {
			fields = append(fields, FieldChange{
				Field: cf.name,
				Old:   formatMoney(ov),
				New:   formatMoney(nv),
			})
		}
	}

	// A previous total that no longer equals payment + derived parts was
	// edited by hand; surface it even when every source field matches.
	expected := oldRow.ServicePayment + oldRow.FuelPayment + oldRow.Transport
	if math.Abs(oldRow.Total-expected) > moneyTolerance &&
		math.Abs(oldRow.Total-newRow.Total) > moneyTolerance {
		fields = append(fields, FieldChange{
			Field: "total",
			Old:   formatMoney(oldRow.Total),
			New:   formatMoney(newRow.Total),
		})
	}

	if math.Abs(oldRow.Transport-newRow.Transport) > moneyTolerance {
		fields = append(fields, FieldChange{
			Field: "transport",
			Old:   formatMoney(oldRow.Transport),
			New:   formatMoney(newRow.Transport),
		})
	}

	if math.Abs(oldRow.FuelPayment-newRow.FuelPayment) > fuelJitter {
		fields = append(fields, FieldChange{
			Field: "fuel_payment",
			Old:   formatMoney(oldRow.FuelPayment),
			New:   formatMoney(newRow.FuelPayment),
		})
	}

	return fields
}

func rowKey(row order.Calculated) string {
	code := row.OrderCode
	if code == "" {
		code = row.RawText
	}
	return order.Key{OrderCode: code, Worker: row.Worker}.String()
}

func indexByKey(rows []order.Calculated) map[string]order.Calculated {
	idx := make(map[string]order.Calculated, len(rows))
	for _, r := range rows {
		if r.IsWorkerTotal {
			continue
		}
		idx[rowKey(r)] = r
	}
	return idx
}

func formatMoney(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
