package reconcile

import (
	"go-fieldpay/internal/order"
	"go-fieldpay/internal/worker"

	"go.uber.org/zap"
)

// ApplySelections rewrites the freshly parsed record set according to the
// reviewer's decisions. Restored rows come back from the previous generation
// with their derived values pinned; reverted rows take the previous source
// fields but keep the flag so the engine pins their totals; skipped additions
// are dropped.
func (s *Service) ApplySelections(current []order.Record, prev []order.Calculated, sel Selections, nameMap map[string]string) []order.Record {
	restore := toSet(sel.Restore)
	revert := toSet(sel.Revert)
	skip := toSet(sel.SkipAdded)

	prevByKey := indexByKey(prev)

	out := make([]order.Record, 0, len(current)+len(restore))
	for _, rec := range current {
		key := recordKey(rec)

		if skip[key] {
			s.log.Info("added row skipped by reviewer", zap.String("key", key))
			continue
		}

		if revert[key] {
			if prior, ok := prevByKey[key]; ok {
				rec = revertRecord(rec, prior)
			}
		}

		if mc, ok := sel.ManagerComments[key]; ok {
			c := mc
			rec.ManagerComment = &c
		}

		out = append(out, rec)
	}

	for key := range restore {
		prior, ok := prevByKey[key]
		if !ok {
			s.log.Warn("restore key not found in previous generation", zap.String("key", key))
			continue
		}
		rec := prior.Record
		rec.Worker = worker.Normalize(rec.Worker, nameMap)
		rec.IsRestored = true
		rec.IsExtraRow = true
		pc := prior.CalcValues
		rec.PriorCalc = &pc
		out = append(out, rec)
	}

	return out
}

// revertRecord rolls the source fields back to the previous generation while
// tagging the row so the rule engine keeps the previous derived values too.
func revertRecord(rec order.Record, prior order.Calculated) order.Record {
	rec.RevenueTotal = prior.RevenueTotal
	rec.RevenueServices = prior.RevenueServices
	rec.Diagnostic = prior.Diagnostic
	rec.DiagnosticPayment = prior.DiagnosticPayment
	rec.SpecialistFee = prior.SpecialistFee
	rec.AdditionalExpenses = prior.AdditionalExpenses
	rec.ServicePayment = prior.ServicePayment
	rec.Percent = prior.Percent
	rec.IsReverted = true
	pc := prior.CalcValues
	rec.PriorCalc = &pc
	return rec
}

func recordKey(rec order.Record) string {
	code := rec.OrderCode
	if code == "" {
		code = rec.RawText
	}
	return order.Key{OrderCode: code, Worker: rec.Worker}.String()
}

func toSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
