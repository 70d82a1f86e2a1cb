package ingest

import "strings"

// Column offsets of the financial block in the base export layout. The first
// column (worker / order text) is always 0.
const (
	baseRevenueTotal       = 4
	baseRevenueServices    = 5
	baseDiagnostic         = 6
	baseDiagnosticPayment  = 7
	baseSpecialistFee      = 8
	baseAdditionalExpenses = 9
	baseServicePayment     = 10
	basePercent            = 11
)

// Sub-header captions that identify the augmented layout variant and the
// optional per-order days column.
const (
	managerDeductionCaption = "Вычет менеджера"
	daysOnSiteCaption       = "Дней"
)

// layout holds the detected column positions for one file. The ERP emits two
// variants: the base one, and one with a manager-deduction column pair
// inserted before the financial block, shifting it right by two.
type layout struct {
	revenueTotal       int
	revenueServices    int
	diagnostic         int
	diagnosticPayment  int
	specialistFee      int
	additionalExpenses int
	servicePayment     int
	percent            int

	managerComment int // -1 when the base layout is in use
	daysOnSite     int // -1 when the export has no days column
}

// detectLayout inspects the sub-header row immediately below the main header.
func detectLayout(subHeader []string) layout {
	l := layout{
		revenueTotal:       baseRevenueTotal,
		revenueServices:    baseRevenueServices,
		diagnostic:         baseDiagnostic,
		diagnosticPayment:  baseDiagnosticPayment,
		specialistFee:      baseSpecialistFee,
		additionalExpenses: baseAdditionalExpenses,
		servicePayment:     baseServicePayment,
		percent:            basePercent,
		managerComment:     -1,
		daysOnSite:         -1,
	}

	for i, caption := range subHeader {
		caption = strings.TrimSpace(caption)
		if strings.Contains(caption, managerDeductionCaption) && l.managerComment < 0 {
			l.managerComment = i
			l.revenueTotal += 2
			l.revenueServices += 2
			l.diagnostic += 2
			l.diagnosticPayment += 2
			l.specialistFee += 2
			l.additionalExpenses += 2
			l.servicePayment += 2
			l.percent += 2
		}
		if strings.Contains(caption, daysOnSiteCaption) && l.daysOnSite < 0 {
			l.daysOnSite = i
		}
	}
	return l
}

// cell safely indexes a row slice; excelize trims trailing empty cells.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
