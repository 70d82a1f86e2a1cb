package calc_test

import (
	"context"
	"testing"

	"go-fieldpay/internal/calc"
	"go-fieldpay/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOracle struct {
	km map[string]float64
}

func (f *fakeOracle) RoadDistance(_ context.Context, _, toAddr string) (float64, bool) {
	km, ok := f.km[toAddr]
	return km, ok
}

func newService(km map[string]float64) *calc.Service {
	return calc.NewService(zap.NewNop(), &fakeOracle{km: km})
}

func TestCalculateRow_Fuel(t *testing.T) {
	cfg := calc.DefaultConfig()
	ctx := context.Background()

	t.Run("round trip rounded up to hundreds", func(t *testing.T) {
		svc := newService(map[string]float64{"Москва, ул. Ленина 10": 123})
		rec := order.Record{Worker: "Иванов Иван", Address: "Москва, ул. Ленина 10", ServicePayment: 3600}

		out := svc.CalculateRow(ctx, rec, cfg, nil)
		// 123 km * 2 * 7 = 1722 rub, rounded up to 1800.
		assert.InDelta(t, 1800, out.FuelPayment, 0.001)
		assert.InDelta(t, 5400, out.Total, 0.001)
	})

	t.Run("capped at fuel max", func(t *testing.T) {
		svc := newService(map[string]float64{"Москва, МКАД 105 км": 250})
		rec := order.Record{Worker: "Иванов Иван", Address: "Москва, МКАД 105 км", ServicePayment: 1000}

		out := svc.CalculateRow(ctx, rec, cfg, nil)
		assert.InDelta(t, cfg.FuelMax, out.FuelPayment, 0.001)
	})

	t.Run("multi day visit multiplies the trip", func(t *testing.T) {
		svc := newService(map[string]float64{"Москва, Арбат 1": 20})
		rec := order.Record{Worker: "Иванов Иван", Address: "Москва, Арбат 1", DaysOnSite: 3}

		out := svc.CalculateRow(ctx, rec, cfg, nil)
		// 20 * 2 * 7 * 3 = 840, rounded up to 900.
		assert.InDelta(t, 900, out.FuelPayment, 0.001)
	})

	t.Run("days fallback by order text", func(t *testing.T) {
		svc := newService(map[string]float64{"Москва, Арбат 1": 20})
		rec := order.Record{Worker: "Иванов Иван", RawText: "КАУТ-1", Address: "Москва, Арбат 1"}

		out := svc.CalculateRow(ctx, rec, cfg, map[string]int{"КАУТ-1": 2})
		// 20 * 2 * 7 * 2 = 560, rounded up to 600.
		assert.InDelta(t, 600, out.FuelPayment, 0.001)
	})

	t.Run("no fuel outside home region", func(t *testing.T) {
		svc := newService(map[string]float64{"Санкт-Петербург, Невский 1": 700})
		rec := order.Record{Worker: "Иванов Иван", Address: "Санкт-Петербург, Невский 1"}

		out := svc.CalculateRow(ctx, rec, cfg, nil)
		assert.Zero(t, out.FuelPayment)
	})

	t.Run("no fuel when specialist fee paid", func(t *testing.T) {
		svc := newService(map[string]float64{"Москва, Арбат 1": 20})
		rec := order.Record{Worker: "Иванов Иван", Address: "Москва, Арбат 1", SpecialistFee: 1500}

		out := svc.CalculateRow(ctx, rec, cfg, nil)
		assert.Zero(t, out.FuelPayment)
	})

	t.Run("no fuel without address", func(t *testing.T) {
		svc := newService(nil)
		rec := order.Record{Worker: "Иванов Иван", ServicePayment: 2000}

		out := svc.CalculateRow(ctx, rec, cfg, nil)
		assert.Zero(t, out.FuelPayment)
		assert.InDelta(t, 2000, out.Total, 0.001)
	})

	t.Run("unresolvable address yields zero", func(t *testing.T) {
		svc := newService(map[string]float64{})
		rec := order.Record{Worker: "Иванов Иван", Address: "Москва, несуществующая 1"}

		out := svc.CalculateRow(ctx, rec, cfg, nil)
		assert.Zero(t, out.FuelPayment)
	})
}

func TestCalculateRow_Transport(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	cfg := calc.DefaultConfig()
	cfg.CompanyCarWorkers = []string{"Петров Петр"}

	tests := []struct {
		name string
		rec  order.Record
		want float64
	}{
		{
			name: "qualifies",
			rec:  order.Record{Worker: "Иванов Иван", RevenueServices: 12000, Percent: 30},
			want: 1000,
		},
		{
			name: "revenue at threshold does not qualify",
			rec:  order.Record{Worker: "Иванов Иван", RevenueServices: 10000, Percent: 30},
			want: 0,
		},
		{
			name: "percent below band",
			rec:  order.Record{Worker: "Иванов Иван", RevenueServices: 12000, Percent: 15},
			want: 0,
		},
		{
			name: "percent above band",
			rec:  order.Record{Worker: "Иванов Иван", RevenueServices: 12000, Percent: 50},
			want: 0,
		},
		{
			name: "company car worker excluded",
			rec:  order.Record{Worker: "Петров Петр", RevenueServices: 12000, Percent: 30},
			want: 0,
		},
		{
			name: "company car matches client billed section",
			rec:  order.Record{Worker: "Петров Петр (оплата клиентом)", RevenueServices: 12000, Percent: 30},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := svc.CalculateRow(ctx, tt.rec, cfg, nil)
			assert.InDelta(t, tt.want, out.Transport, 0.001)
		})
	}
}

func TestCalculateRow_Diagnostic50(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	cfg := calc.DefaultConfig()

	out := svc.CalculateRow(ctx, order.Record{
		Worker:         "Иванов Иван (оплата клиентом)",
		IsClientBilled: true,
		Diagnostic:     2000,
		ServicePayment: 5000,
	}, cfg, nil)

	assert.InDelta(t, 1000, out.Diagnostic50, 0.001)
	// Not subtracted from the row total; that happens at the worker aggregate.
	assert.InDelta(t, 5000, out.Total, 0.001)

	// Main-section diagnostic never halves.
	out = svc.CalculateRow(ctx, order.Record{
		Worker:     "Иванов Иван",
		Diagnostic: 2000,
	}, cfg, nil)
	assert.Zero(t, out.Diagnostic50)
}

func TestCalculateRow_ShortCircuit(t *testing.T) {
	ctx := context.Background()
	svc := newService(map[string]float64{"Москва, Арбат 1": 100})
	cfg := calc.DefaultConfig()

	t.Run("worker total row", func(t *testing.T) {
		out := svc.CalculateRow(ctx, order.Record{
			Worker:         "Иванов Иван",
			IsWorkerTotal:  true,
			ServicePayment: 42000,
			Address:        "Москва, Арбат 1",
		}, cfg, nil)
		assert.InDelta(t, 42000, out.Total, 0.001)
		assert.Zero(t, out.FuelPayment)
	})

	t.Run("carried over row", func(t *testing.T) {
		out := svc.CalculateRow(ctx, order.Record{
			Worker:         "Иванов Иван",
			RawText:        "В прошлом расчете КАУТ-001000",
			ServicePayment: 1500,
		}, cfg, nil)
		assert.InDelta(t, 1500, out.Total, 0.001)
	})
}

func TestCalculateRow_PriorCalc(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	cfg := calc.DefaultConfig()

	t.Run("restored row keeps previous derived values", func(t *testing.T) {
		out := svc.CalculateRow(ctx, order.Record{
			Worker:         "Иванов Иван",
			ServicePayment: 3000,
			IsRestored:     true,
			PriorCalc:      &order.CalcValues{FuelPayment: 700, Transport: 1000, Total: 4700},
		}, cfg, nil)
		assert.InDelta(t, 700, out.FuelPayment, 0.001)
		assert.InDelta(t, 1000, out.Transport, 0.001)
		assert.InDelta(t, 4700, out.Total, 0.001)
	})

	t.Run("reverted row pins previous totals", func(t *testing.T) {
		out := svc.CalculateRow(ctx, order.Record{
			Worker:         "Иванов Иван",
			ServicePayment: 3000,
			IsReverted:     true,
			PriorCalc:      &order.CalcValues{Total: 3000},
		}, cfg, nil)
		assert.Zero(t, out.FuelPayment)
		assert.InDelta(t, 3000, out.Total, 0.001)
	})

	t.Run("zero prior values do not pin", func(t *testing.T) {
		fueled := newService(map[string]float64{"Москва, Арбат 1": 20})
		out := fueled.CalculateRow(ctx, order.Record{
			Worker:         "Иванов Иван",
			Address:        "Москва, Арбат 1",
			ServicePayment: 3000,
			IsReverted:     true,
			PriorCalc:      &order.CalcValues{},
		}, cfg, nil)
		// 20 * 2 * 7 = 280, rounded up to 300; the empty prior calc is ignored.
		assert.InDelta(t, 300, out.FuelPayment, 0.001)
		assert.InDelta(t, 3300, out.Total, 0.001)
	})
}

func TestGenerateAlarms(t *testing.T) {
	cfg := calc.DefaultConfig()

	rows := []order.Calculated{
		{
			Record:     order.Record{Worker: "Иванов Иван", RawText: "КАУТ-1", ServicePayment: 25000, Percent: 30, RevenueTotal: 80000},
			CalcValues: order.CalcValues{Total: 25000},
		},
		{
			Record:     order.Record{Worker: "Петров Петр", RawText: "КАУТ-2", ServicePayment: 5000, Percent: 37, RevenueTotal: 15000},
			CalcValues: order.CalcValues{Total: 5000},
		},
		{
			Record:     order.Record{Worker: "Сидоров Семен", RawText: "КАУТ-3", SpecialistFee: 4000, ServicePayment: 1000},
			CalcValues: order.CalcValues{Total: 1000},
		},
		{
			Record:     order.Record{Worker: "Иванов Иван", RawText: "КАУТ-4", ServicePayment: 2000},
			CalcValues: order.CalcValues{FuelPayment: 2500, Total: 4500},
		},
		{
			Record:     order.Record{Worker: "Иванов Иван", IsWorkerTotal: true, ServicePayment: 99999},
			CalcValues: order.CalcValues{Total: 99999},
		},
	}

	alarms := calc.GenerateAlarms(rows, cfg)

	require.Len(t, alarms.HighPayment, 1)
	assert.Equal(t, "Иванов Иван", alarms.HighPayment[0].Worker)
	assert.Equal(t, "КАУТ-1", alarms.HighPayment[0].Order)

	require.Len(t, alarms.NonStandardPercent, 1)
	assert.Equal(t, "Петров Петр", alarms.NonStandardPercent[0].Worker)

	require.Len(t, alarms.HighSpecialistFee, 1)
	assert.Equal(t, "Сидоров Семен", alarms.HighSpecialistFee[0].Worker)

	require.Len(t, alarms.HighFuel, 1)
	assert.Equal(t, "КАУТ-4", alarms.HighFuel[0].Order)

	// Snapshot carries only non-zero fields.
	info := alarms.HighFuel[0].RowInfo
	assert.Contains(t, info, "Оплата бензина")
	assert.NotContains(t, info, "Выручка итого")
}

func TestGenerateAlarms_SpecialistFeeExemption(t *testing.T) {
	cfg := calc.DefaultConfig()

	rows := []order.Calculated{{
		Record: order.Record{
			Worker:        "Иванов Иван",
			RawText:       "КАУТ-5",
			Percent:       37,
			RevenueTotal:  6000,
			SpecialistFee: 3400,
		},
		CalcValues: order.CalcValues{Total: 5000},
	}}

	alarms := calc.GenerateAlarms(rows, cfg)
	assert.Empty(t, alarms.NonStandardPercent)
}

func TestConfigMerge(t *testing.T) {
	coef := 10.0
	cfg := calc.DefaultConfig().Merge(calc.Overrides{
		FuelCoefficient:  &coef,
		StandardPercents: []float64{25, 50},
	})
	assert.InDelta(t, 10, cfg.FuelCoefficient, 0.001)
	assert.Equal(t, []float64{25, 50}, cfg.StandardPercents)
	// Untouched fields keep defaults.
	assert.InDelta(t, 3000, cfg.FuelMax, 0.001)
}
