package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"go-fieldpay/internal/order"
)

// The three fixed forms a manager deduction note takes. Anything else that is
// non-empty is informational: shown to the reviewer, never applied.
var (
	commentPercentForm = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	commentFixedForm   = regexp.MustCompile(`(?i)(?:выплатить|зарплата|начислить)\s+(\d+(?:[.,]\d+)?)`)
	commentBareForm    = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)$`)
)

// ParseManagerComment classifies a manager-deduction cell into a percent
// override, a fixed-amount override or an informational note. Empty cells
// yield nil.
func ParseManagerComment(text string) *order.ManagerComment {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if m := commentPercentForm.FindStringSubmatch(text); m != nil {
		return &order.ManagerComment{
			Type:     order.CommentPercent,
			Value:    commentNumber(m[1]),
			Original: text,
		}
	}
	if m := commentFixedForm.FindStringSubmatch(text); m != nil {
		return &order.ManagerComment{
			Type:     order.CommentFixed,
			Value:    commentNumber(m[1]),
			Original: text,
		}
	}
	if m := commentBareForm.FindStringSubmatch(text); m != nil {
		return &order.ManagerComment{
			Type:     order.CommentFixed,
			Value:    commentNumber(m[1]),
			Original: text,
		}
	}
	return &order.ManagerComment{Type: order.CommentInformational, Original: text}
}

func commentNumber(s string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	return v
}
