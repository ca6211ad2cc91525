package domain

import (
	"sort"
	"time"
)

// Position is the last attempted (not necessarily succeeded) position inside
// an unfinished record. It is written strictly before each submission, so a
// restart resumes at-or-before the true last attempt.
type Position struct {
	ExcelRow      int       `json:"excel_row"`
	LinkIndex     int       `json:"link_index"`
	ApproverIndex int       `json:"approver_index"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FailureRecord captures the most recent fatal failure with full record
// context. Overwritten on each new fatal failure, retained otherwise.
type FailureRecord struct {
	ExcelRow    int       `json:"excel_row"`
	OUID        string    `json:"ou_id"`
	AccountName string    `json:"account_name"`
	Error       string    `json:"error"`
	Time        time.Time `json:"time"`
}

// Progress is the persisted checkpoint state for a whole run.
type Progress struct {
	CompletedKeys []string            `json:"completed_keys"`
	InProgress    map[string]Position `json:"in_progress"`
	LastError     *FailureRecord      `json:"last_error,omitempty"`
	CompletedAt   time.Time           `json:"completed_at,omitzero"`
}

// NewProgress returns an empty, usable progress state.
func NewProgress() *Progress {
	return &Progress{
		CompletedKeys: []string{},
		InProgress:    make(map[string]Position),
	}
}

// Normalize repairs a state loaded from storage: nil maps and slices become
// empty ones so callers never have to nil-check.
func (p *Progress) Normalize() {
	if p.CompletedKeys == nil {
		p.CompletedKeys = []string{}
	}
	if p.InProgress == nil {
		p.InProgress = make(map[string]Position)
	}
}

// IsCompleted reports whether key has finished. Membership is permanent.
func (p *Progress) IsCompleted(key string) bool {
	for _, k := range p.CompletedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// SetAttempt upserts the in-flight position for key.
func (p *Progress) SetAttempt(key string, excelRow, linkIndex, approverIndex int) {
	p.InProgress[key] = Position{
		ExcelRow:      excelRow,
		LinkIndex:     linkIndex,
		ApproverIndex: approverIndex,
		UpdatedAt:     time.Now(),
	}
}

// SetCompleted removes key from in_progress and adds it to completed_keys,
// keeping the list sorted and unique. A completed key must not also be in
// in_progress.
func (p *Progress) SetCompleted(key string) {
	delete(p.InProgress, key)
	if p.IsCompleted(key) {
		p.CompletedAt = time.Now()
		return
	}
	p.CompletedKeys = append(p.CompletedKeys, key)
	sort.Strings(p.CompletedKeys)
	p.CompletedAt = time.Now()
}

// SetLastError overwrites the fatal failure context for the given record.
func (p *Progress) SetLastError(rec Record, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	p.LastError = &FailureRecord{
		ExcelRow:    rec.Row,
		OUID:        rec.OUID,
		AccountName: rec.AccountName,
		Error:       msg,
		Time:        time.Now(),
	}
}

// Resume returns the saved position for key, defaulting to (0, 0) when the
// record has never been attempted.
func (p *Progress) Resume(key string) (linkIndex, approverIndex int) {
	pos, ok := p.InProgress[key]
	if !ok {
		return 0, 0
	}
	return pos.LinkIndex, pos.ApproverIndex
}
