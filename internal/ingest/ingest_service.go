// Package ingest turns the ERP's semi-structured spreadsheet exports into
// normalized order records. Parsing is a two-pass protocol: the first pass
// only collects worker-name spellings across every file of a batch, the
// second parses each file with the canonical-name map built from the union.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-fieldpay/internal/order"
	"go-fieldpay/internal/textextract"
	"go-fieldpay/internal/worker"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrHeaderNotFound is returned when the worker-column caption is absent from
// the first rows of the sheet: the file is not a recognized export.
var ErrHeaderNotFound = errors.New("заголовок 'Монтажник' не найден")

const (
	workerCaption     = "Монтажник"
	totalCaption      = "Итого"
	orderColonCaption = "Заказ, Комментарий"
	trainingMarker    = "ОБУЧЕНИЕ"
	carriedMarker     = "В прошлом расчете"

	headerScanRows = 10
)

var orderMarkers = []string{"КАУТ-", "ИБУТ-", "ТДУТ-"}

// ManagerComment ties a parsed deduction note to the order it belongs to, for
// the reviewer.
type ManagerComment struct {
	OrderCode string               `json:"order_code"`
	Worker    string               `json:"worker"`
	Order     string               `json:"order"`
	Comment   string               `json:"comment"`
	Parsed    order.ManagerComment `json:"parsed"`
}

// Result is the outcome of parsing a single file.
type Result struct {
	Records         []order.Record
	Names           map[string]struct{}
	ManagerComments []ManagerComment
	Warnings        []string
}

// Batch is the combined outcome of parsing both period files.
type Batch struct {
	Records         []order.Record
	NameMap         map[string]string
	Period          string
	Workers         []string
	ManagerComments []ManagerComment
	Warnings        []string
}

type Service struct {
	log      *zap.Logger
	managers map[string]bool
}

// NewService builds an ingestor. The manager roster is only used to emit
// warnings when a manager shows up as a payroll group.
func NewService(log *zap.Logger, managers map[string]bool) *Service {
	if managers == nil {
		managers = map[string]bool{}
	}
	return &Service{log: log, managers: managers}
}

// CollectNames runs the first pass over one file: worker-name spellings only.
func (s *Service) CollectNames(fileBytes []byte) (map[string]struct{}, error) {
	res, err := s.parse(fileBytes, false, nil, true)
	if err != nil {
		return nil, err
	}
	return res.Names, nil
}

// Parse runs the second pass: emits records with worker names resolved
// through the supplied map.
func (s *Service) Parse(fileBytes []byte, overThreshold bool, nameMap map[string]string) (*Result, error) {
	return s.parse(fileBytes, overThreshold, nameMap, false)
}

// ParseBatch ingests the under- and over-threshold files of one period,
// building the canonical-name map from both before emitting any record. The
// period label comes from the under-threshold file.
func (s *Service) ParseBatch(under, over []byte) (*Batch, error) {
	namesUnder, err := s.CollectNames(under)
	if err != nil {
		return nil, fmt.Errorf("файл до порога: %w", err)
	}
	namesOver, err := s.CollectNames(over)
	if err != nil {
		return nil, fmt.Errorf("файл свыше порога: %w", err)
	}

	allNames := make(map[string]struct{}, len(namesUnder)+len(namesOver))
	for n := range namesUnder {
		allNames[n] = struct{}{}
	}
	for n := range namesOver {
		allNames[n] = struct{}{}
	}
	nameMap := worker.BuildNameMap(allNames)
	if len(nameMap) > 0 {
		s.log.Info("worker names normalized", zap.Int("variants", len(nameMap)))
	}

	resUnder, err := s.Parse(under, false, nameMap)
	if err != nil {
		return nil, err
	}
	resOver, err := s.Parse(over, true, nameMap)
	if err != nil {
		return nil, err
	}

	period, err := periodLabel(under)
	if err != nil {
		return nil, err
	}

	batch := &Batch{
		Records: append(resOver.Records, resUnder.Records...),
		NameMap: nameMap,
		Period:  period,
	}
	batch.ManagerComments = append(resOver.ManagerComments, resUnder.ManagerComments...)
	batch.Warnings = append(resOver.Warnings, resUnder.Warnings...)

	seen := map[string]struct{}{}
	for _, rec := range batch.Records {
		w := worker.StripSuffix(rec.Worker)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; !ok {
			seen[w] = struct{}{}
			batch.Workers = append(batch.Workers, w)
		}
	}
	return batch, nil
}

func (s *Service) parse(fileBytes []byte, overThreshold bool, nameMap map[string]string, namesOnly bool) (*Result, error) {
	rows, err := sheetRows(fileBytes)
	if err != nil {
		return nil, err
	}

	headerRow := -1
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		if cell(rows[i], 0) == workerCaption {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, ErrHeaderNotFound
	}

	lay := layout{}
	if headerRow+1 < len(rows) {
		lay = detectLayout(rows[headerRow+1])
	} else {
		lay = detectLayout(nil)
	}

	res := &Result{Names: map[string]struct{}{}}

	// Row-walk state: the group header above an order row decides its worker
	// and section. An invalid header clears the register so the rows under it
	// are silently dropped.
	currentWorker := ""
	currentIsClient := false
	validGroup := false

	for i := headerRow + 2; i < len(rows); i++ {
		first := cell(rows[i], 0)
		if first == "" || first == totalCaption || first == orderColonCaption {
			continue
		}

		if !isOrderRow(first) {
			// Group header.
			if first == workerCaption {
				continue
			}
			currentIsClient = strings.Contains(first, worker.ClientBilledSuffix)
			name := worker.StripSuffix(first)

			if worker.IsManager(name, s.managers) {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("в данных найден менеджер %q — группа исключена из расчёта", name))
				validGroup = false
				currentWorker = ""
				continue
			}

			validGroup = worker.IsValidName(first)
			if !validGroup {
				currentWorker = ""
				continue
			}
			res.Names[first] = struct{}{}
			currentWorker = worker.Normalize(name, nameMap)
			continue
		}

		if namesOnly || currentWorker == "" || !validGroup {
			continue
		}

		rec := order.Record{
			Worker:             currentWorker,
			RawText:            first,
			OrderCode:          textextract.OrderCode(first),
			Address:            textextract.Address(first),
			RevenueTotal:       textextract.Money(cell(rows[i], lay.revenueTotal)),
			RevenueServices:    textextract.Money(cell(rows[i], lay.revenueServices)),
			Diagnostic:         textextract.Money(cell(rows[i], lay.diagnostic)),
			DiagnosticPayment:  textextract.Money(cell(rows[i], lay.diagnosticPayment)),
			SpecialistFee:      textextract.Money(cell(rows[i], lay.specialistFee)),
			AdditionalExpenses: textextract.Money(cell(rows[i], lay.additionalExpenses)),
			ServicePayment:     textextract.Money(cell(rows[i], lay.servicePayment)),
			Percent:            textextract.Percent(cell(rows[i], lay.percent)),
			IsOverThreshold:    overThreshold,
			IsClientBilled:     currentIsClient,
		}

		if lay.daysOnSite >= 0 {
			if d, err := strconv.Atoi(cell(rows[i], lay.daysOnSite)); err == nil && d > 0 {
				rec.DaysOnSite = d
			}
		}

		if lay.managerComment >= 0 {
			if parsed := ParseManagerComment(cell(rows[i], lay.managerComment)); parsed != nil {
				rec.ManagerComment = parsed
				res.ManagerComments = append(res.ManagerComments, ManagerComment{
					OrderCode: rec.OrderCode,
					Worker:    worker.StripSuffix(rec.Worker),
					Order:     textextract.ShortOrder(first),
					Comment:   parsed.Original,
					Parsed:    *parsed,
				})
			}
		}

		res.Records = append(res.Records, rec)
	}

	return res, nil
}

func isOrderRow(first string) bool {
	if strings.HasPrefix(first, "Заказ") {
		return true
	}
	for _, m := range orderMarkers {
		if strings.Contains(first, m) {
			return true
		}
	}
	return strings.Contains(first, carriedMarker) || strings.Contains(first, trainingMarker)
}

func sheetRows(fileBytes []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать лист %q: %w", sheet, err)
	}
	return rows, nil
}

func periodLabel(fileBytes []byte) (string, error) {
	rows, err := sheetRows(fileBytes)
	if err != nil {
		return "", err
	}
	return textextract.PeriodLabel(rows), nil
}
