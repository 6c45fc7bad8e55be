package assemble

import (
	"errors"
	"fmt"
)

// ErrBankUnavailable wraps failures of the authoritative item store. There
// is no fallback for the bank, so these abort the run.
var ErrBankUnavailable = errors.New("item bank unavailable")

// ShortfallError reports a requirement that could not be filled even after
// generation retries and the template fallback. Fatal to the run; carries
// enough context for the caller to retry just the failed slice.
type ShortfallError struct {
	SectionID   string
	Requirement Requirement
	Requested   int
	Got         int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("unrecoverable shortfall in section %s: %s/%s/%s needs %d item(s), produced %d",
		e.SectionID, e.Requirement.Topic, e.Requirement.CognitiveLevel,
		e.Requirement.Difficulty, e.Requested, e.Got)
}

// QuotaMismatch holds one requirement whose accepted count diverged.
type QuotaMismatch struct {
	Requirement Requirement `json:"requirement"`
	Expected    int         `json:"expected"`
	Actual      int         `json:"actual"`
}

// QuotaError reports post-assembly verification failure. The run never
// returns a partial assembly alongside it.
type QuotaError struct {
	ExpectedTotal int
	ActualTotal   int
	Mismatches    []QuotaMismatch
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("assembly quota verification failed: expected %d items, got %d (%d requirement mismatch(es))",
		e.ExpectedTotal, e.ActualTotal, len(e.Mismatches))
}

// LayoutError reports a spec whose sections cannot absorb its requirements
// (or vice versa); detected before any bank traffic.
type LayoutError struct {
	SectionCapacity  int
	RequirementTotal int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("section capacity %d does not match requirement total %d",
		e.SectionCapacity, e.RequirementTotal)
}
