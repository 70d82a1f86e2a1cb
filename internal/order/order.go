package order

// CommentType classifies a manager's free-text instruction attached to an
// order row.
type CommentType string

const (
	CommentPercent       CommentType = "percent"
	CommentFixed         CommentType = "fixed"
	CommentInformational CommentType = "informational"
)

// ManagerComment is the parsed form of a manager-deduction column note.
type ManagerComment struct {
	Type     CommentType `json:"type"`
	Value    float64     `json:"value"`
	Original string      `json:"original"`
}

// CalcValues are the derived monetary fields produced by the rule engine.
type CalcValues struct {
	FuelPayment  float64 `json:"fuel_payment"`
	Transport    float64 `json:"transport"`
	Diagnostic50 float64 `json:"diagnostic_50"`
	Total        float64 `json:"total"`
}

// Record is one normalized order line emitted by the ingestor. Money fields
// default to zero; Worker is always the canonical spelling.
type Record struct {
	Worker    string `json:"worker"`
	RawText   string `json:"order"`
	OrderCode string `json:"order_code,omitempty"`
	Address   string `json:"address,omitempty"`

	RevenueTotal       float64 `json:"revenue_total"`
	RevenueServices    float64 `json:"revenue_services"`
	Diagnostic         float64 `json:"diagnostic"`
	DiagnosticPayment  float64 `json:"diagnostic_payment"`
	SpecialistFee      float64 `json:"specialist_fee"`
	AdditionalExpenses float64 `json:"additional_expenses"`
	ServicePayment     float64 `json:"service_payment"`
	Percent            float64 `json:"percent"`

	IsOverThreshold bool `json:"is_over_threshold"`
	IsClientBilled  bool `json:"is_client_billed"`
	IsWorkerTotal   bool `json:"is_worker_total"`
	IsExtraRow      bool `json:"is_extra_row,omitempty"`
	IsRestored      bool `json:"is_restored,omitempty"`
	IsReverted      bool `json:"is_reverted,omitempty"`

	// DaysOnSite is the per-order override from the sheet; zero means absent.
	DaysOnSite int `json:"days_on_site,omitempty"`

	ManagerComment *ManagerComment `json:"manager_comment,omitempty"`

	// PriorCalc carries the previous generation's derived values for rows the
	// reviewer restored or reverted. Restored rows keep these verbatim.
	PriorCalc *CalcValues `json:"prior_calc,omitempty"`
}

// Calculated is a Record plus its derived fields.
type Calculated struct {
	Record
	CalcValues
}

// Key identifies one logical order across uploads of the same period.
type Key struct {
	OrderCode string
	Worker    string
}

func (k Key) String() string {
	return k.OrderCode + "_" + k.Worker
}
