package calc

import (
	"fmt"
	"math"
	"strconv"

	"go-fieldpay/internal/order"
	"go-fieldpay/internal/textextract"
	"go-fieldpay/internal/worker"
)

const (
	AlarmHighPayment        = "high_payment"
	AlarmNonStandardPercent = "non_standard_percent"
	AlarmHighSpecialistFee  = "high_specialist_fee"
	AlarmHighFuel           = "high_fuel"
)

// Alarm is one anomaly flagged for manual review. RowInfo is a snapshot of
// the row's non-zero fields for reviewer context.
type Alarm struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Worker  string            `json:"worker"`
	Order   string            `json:"order"`
	Section string            `json:"section"`
	RowInfo map[string]string `json:"row_info"`
}

// Alarms groups detected anomalies by category.
type Alarms struct {
	HighPayment        []Alarm `json:"high_payment"`
	NonStandardPercent []Alarm `json:"non_standard_percent"`
	HighSpecialistFee  []Alarm `json:"high_specialist_fee"`
	HighFuel           []Alarm `json:"high_fuel"`
}

// GenerateAlarms runs the post-calculation anomaly pass over all non-total
// rows. Each category is independent; a row can trip several.
func GenerateAlarms(rows []order.Calculated, cfg Config) Alarms {
	var alarms Alarms

	for _, row := range rows {
		if row.IsWorkerTotal {
			continue
		}

		section := "основная"
		if row.IsClientBilled {
			section = "оплата клиентом"
		}
		base := Alarm{
			Worker:  worker.StripSuffix(row.Worker),
			Order:   textextract.WorkerOrder(row.RawText),
			Section: section,
			RowInfo: rowInfo(row, section),
		}

		if row.ServicePayment > cfg.AlarmHighPayment {
			a := base
			a.Type = AlarmHighPayment
			a.Message = fmt.Sprintf("Сумма оплаты > %s: %s",
				formatAmount(cfg.AlarmHighPayment), formatAmount(row.ServicePayment))
			alarms.HighPayment = append(alarms.HighPayment, a)
		}

		if row.Percent > 0 && !isStandardPercent(row.Percent, cfg.StandardPercents) &&
			!specialistFeeExempt(row) {
			a := base
			a.Type = AlarmNonStandardPercent
			a.Message = fmt.Sprintf("Нестандартный процент: %.1f%%", row.Percent)
			alarms.NonStandardPercent = append(alarms.NonStandardPercent, a)
		}

		if row.SpecialistFee > cfg.AlarmHighSpecialist {
			a := base
			a.Type = AlarmHighSpecialistFee
			a.Message = fmt.Sprintf("Выручка (выезд) > %s: %s",
				formatAmount(cfg.AlarmHighSpecialist), formatAmount(row.SpecialistFee))
			alarms.HighSpecialistFee = append(alarms.HighSpecialistFee, a)
		}

		if row.FuelPayment > cfg.FuelWarning {
			a := base
			a.Type = AlarmHighFuel
			a.Message = fmt.Sprintf("Оплата бензина > %s: %s",
				formatAmount(cfg.FuelWarning), formatAmount(row.FuelPayment))
			alarms.HighFuel = append(alarms.HighFuel, a)
		}
	}

	return alarms
}

func isStandardPercent(percent float64, standard []float64) bool {
	rounded := math.Round(percent)
	for _, s := range standard {
		if rounded == s {
			return true
		}
	}
	return false
}

// specialistFeeExempt suppresses the percent alarm for a known legitimate
// pattern: the specialist fee already covers at least half the revenue and
// the payout does not exceed it.
func specialistFeeExempt(row order.Calculated) bool {
	if row.RevenueTotal <= 0 {
		return false
	}
	return row.SpecialistFee >= row.RevenueTotal*0.5 && row.Total <= row.RevenueTotal
}

func rowInfo(row order.Calculated, section string) map[string]string {
	info := map[string]string{
		"Монтажник": worker.StripSuffix(row.Worker),
		"Секция":    section,
		"Заказ":     textextract.WorkerOrder(row.RawText),
	}
	numeric := []struct {
		label string
		value float64
	}{
		{"Выручка итого", row.RevenueTotal},
		{"Выручка от услуг", row.RevenueServices},
		{"Диагностика", row.Diagnostic},
		{"Оплата диагностики", row.DiagnosticPayment},
		{"Выручка (выезд)", row.SpecialistFee},
		{"Доп. расходы", row.AdditionalExpenses},
		{"Сумма оплаты", row.ServicePayment},
		{"Процент", row.Percent},
		{"Оплата бензина", row.FuelPayment},
		{"Транспортные", row.Transport},
		{"Итого", row.Total},
		{"Диагностика -50%", row.Diagnostic50},
	}
	for _, f := range numeric {
		if f.value != 0 {
			info[f.label] = formatAmount(f.value)
		}
	}
	return info
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
