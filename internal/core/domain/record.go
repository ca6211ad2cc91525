package domain

import "strings"

// KeySeparator joins the normalized identity fields of a record.
// It must never occur inside an OU id or account name.
const KeySeparator = "||"

// Record is one unit of input work, loaded from a single spreadsheet row.
// Immutable once loaded.
type Record struct {
	Row         int    // 1-based Excel row, for error reporting
	OUID        string
	AccountName string
}

// Key returns the dedup key used for checkpointing this record.
func (r Record) Key() string {
	return NormalizeKey(r.OUID, r.AccountName)
}

// NormalizeKey derives a stable identity key from the given fields.
// Fields are whitespace-trimmed and case-folded, so two records that differ
// only in spacing or case map to the same key. The key must stay stable
// across runs; it is the sole identity the checkpoint file knows about.
func NormalizeKey(fields ...string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return strings.Join(parts, KeySeparator)
}
