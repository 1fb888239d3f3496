package autoconfig

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ReportEntry is the outcome of one definition.
type ReportEntry struct {
	Definition string `json:"definition" yaml:"definition"`
	Type       string `json:"type" yaml:"type"`
	Condition  string `json:"condition" yaml:"condition"`
	Matched    bool   `json:"matched" yaml:"matched"`
	Message    string `json:"message" yaml:"message"`
	Registered bool   `json:"registered" yaml:"registered"`
}

// Report is the condition evaluation report of one startup pass. Entries
// are in execution order.
type Report struct {
	ID        string        `json:"id" yaml:"id"`
	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	Entries   []ReportEntry `json:"entries" yaml:"entries"`
}

func newReport() *Report {
	return &Report{
		ID:        ulid.Make().String(),
		StartedAt: time.Now(),
	}
}

// Matched returns the entries whose condition matched.
func (r *Report) Matched() []ReportEntry {
	var out []ReportEntry
	for _, e := range r.Entries {
		if e.Matched {
			out = append(out, e)
		}
	}
	return out
}

// Skipped returns the entries whose condition did not match.
func (r *Report) Skipped() []ReportEntry {
	var out []ReportEntry
	for _, e := range r.Entries {
		if !e.Matched {
			out = append(out, e)
		}
	}
	return out
}

// Entry returns the entry of the named definition.
func (r *Report) Entry(definition string) (ReportEntry, bool) {
	for _, e := range r.Entries {
		if e.Definition == definition {
			return e, true
		}
	}
	return ReportEntry{}, false
}
