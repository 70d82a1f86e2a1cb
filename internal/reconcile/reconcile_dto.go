package reconcile

import "go-fieldpay/internal/order"

// FieldChange is one source-field delta between two generations of the same
// order row, already formatted for the reviewer.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Change describes one row-level difference. Type is "modified", "added",
// "deleted" or "extra_row".
type Change struct {
	Type   string            `json:"type"`
	Key    string            `json:"key"`
	Worker string            `json:"worker"`
	Order  string            `json:"order"`
	Fields []FieldChange     `json:"fields,omitempty"`
	Old    *order.Calculated `json:"old,omitempty"`
	New    *order.Calculated `json:"new,omitempty"`
}

// Summary is the reviewer-facing diff between the latest persisted upload of
// a period and a freshly parsed one.
type Summary struct {
	HasPrevious      bool     `json:"has_previous"`
	PreviousVersion  int      `json:"previous_version,omitempty"`
	PreviousUploadID string   `json:"previous_upload_id,omitempty"`
	Added            []Change `json:"added,omitempty"`
	Deleted          []Change `json:"deleted,omitempty"`
	Modified         []Change `json:"modified,omitempty"`
	ExtraRows        []Change `json:"extra_rows,omitempty"`
}

// Empty reports whether the diff found nothing to review.
func (s Summary) Empty() bool {
	return len(s.Added) == 0 && len(s.Deleted) == 0 &&
		len(s.Modified) == 0 && len(s.ExtraRows) == 0
}

// Selections are the reviewer's decisions over a Summary.
type Selections struct {
	// Restore keys re-add deleted rows with their previous derived values.
	Restore []string `json:"restore,omitempty"`
	// Revert keys roll a modified row's source fields back to the previous
	// generation; its derived values are pinned to the previous ones too.
	Revert []string `json:"revert,omitempty"`
	// SkipAdded keys drop newly appeared rows from the run.
	SkipAdded []string `json:"skip_added,omitempty"`
	// ManagerComments maps an order key to a reviewer-approved deduction.
	ManagerComments map[string]order.ManagerComment `json:"manager_comments,omitempty"`
}
