package calc

// Config is the full parameter set for one calculation run. Each run owns its
// effective config: defaults merged with caller overrides, never mutated in
// place.
type Config struct {
	BaseAddress     string  `json:"base_address"`
	FuelCoefficient float64 `json:"fuel_coefficient"`
	FuelMax         float64 `json:"fuel_max"`
	FuelWarning     float64 `json:"fuel_warning"`

	TransportAmount     float64 `json:"transport_amount"`
	TransportMinRevenue float64 `json:"transport_min_revenue"`
	TransportPercentMin float64 `json:"transport_percent_min"`
	TransportPercentMax float64 `json:"transport_percent_max"`

	DiagnosticPercent float64 `json:"diagnostic_percent"`

	AlarmHighPayment    float64   `json:"alarm_high_payment"`
	AlarmHighSpecialist float64   `json:"alarm_high_specialist"`
	StandardPercents    []float64 `json:"standard_percents"`

	// CompanyCarWorkers lose the transport stipend: the vehicle is already
	// provided.
	CompanyCarWorkers []string `json:"company_car_workers"`
}

func DefaultConfig() Config {
	return Config{
		BaseAddress:         "Москва, Сходненский тупик 16с4",
		FuelCoefficient:     7,
		FuelMax:             3000,
		FuelWarning:         2000,
		TransportAmount:     1000,
		TransportMinRevenue: 10000,
		TransportPercentMin: 20,
		TransportPercentMax: 40,
		DiagnosticPercent:   50,
		AlarmHighPayment:    20000,
		AlarmHighSpecialist: 3500,
		StandardPercents:    []float64{30, 50, 100},
	}
}

// Overrides carries per-run parameter changes; nil fields keep the default.
type Overrides struct {
	FuelCoefficient     *float64  `json:"fuel_coefficient,omitempty"`
	FuelMax             *float64  `json:"fuel_max,omitempty"`
	FuelWarning         *float64  `json:"fuel_warning,omitempty"`
	TransportAmount     *float64  `json:"transport_amount,omitempty"`
	TransportMinRevenue *float64  `json:"transport_min_revenue,omitempty"`
	TransportPercentMin *float64  `json:"transport_percent_min,omitempty"`
	TransportPercentMax *float64  `json:"transport_percent_max,omitempty"`
	DiagnosticPercent   *float64  `json:"diagnostic_percent,omitempty"`
	AlarmHighPayment    *float64  `json:"alarm_high_payment,omitempty"`
	AlarmHighSpecialist *float64  `json:"alarm_high_specialist,omitempty"`
	StandardPercents    []float64 `json:"standard_percents,omitempty"`
	CompanyCarWorkers   []string  `json:"company_car_workers,omitempty"`
}

// Merge applies overrides on top of a config and returns the result.
func (c Config) Merge(ov Overrides) Config {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.FuelCoefficient, ov.FuelCoefficient)
	set(&c.FuelMax, ov.FuelMax)
	set(&c.FuelWarning, ov.FuelWarning)
	set(&c.TransportAmount, ov.TransportAmount)
	set(&c.TransportMinRevenue, ov.TransportMinRevenue)
	set(&c.TransportPercentMin, ov.TransportPercentMin)
	set(&c.TransportPercentMax, ov.TransportPercentMax)
	set(&c.DiagnosticPercent, ov.DiagnosticPercent)
	set(&c.AlarmHighPayment, ov.AlarmHighPayment)
	set(&c.AlarmHighSpecialist, ov.AlarmHighSpecialist)
	if ov.StandardPercents != nil {
		c.StandardPercents = ov.StandardPercents
	}
	if ov.CompanyCarWorkers != nil {
		c.CompanyCarWorkers = ov.CompanyCarWorkers
	}
	return c
}
