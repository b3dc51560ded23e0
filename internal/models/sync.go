package models

import "time"

// SyncKind names the entity a run synchronizes.
type SyncKind string

const (
	SyncSymbols        SyncKind = "symbols"
	SyncDigitalSymbols SyncKind = "digital_symbols"
	SyncOverviews      SyncKind = "overviews"
	SyncIntraday       SyncKind = "intraday"
	SyncDaily          SyncKind = "daily"
	SyncTopMovers      SyncKind = "top_movers"
	SyncNews           SyncKind = "news"
)

// ParseSyncKind accepts the kind names plus the dashed route spelling ("top-movers").
func ParseSyncKind(s string) (SyncKind, bool) {
	switch s {
	case "top-movers":
		return SyncTopMovers, true
	case "digital-symbols":
		return SyncDigitalSymbols, true
	}
	for _, k := range []SyncKind{SyncSymbols, SyncDigitalSymbols, SyncOverviews, SyncIntraday, SyncDaily, SyncTopMovers, SyncNews} {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// RunState is the orchestrator state last reached by a run.
type RunState string

const (
	StateIdle       RunState = "idle"
	StateRequesting RunState = "requesting"
	StateParsing    RunState = "parsing"
	StateFiltering  RunState = "filtering"
	StatePersisting RunState = "persisting"
	StateAborted    RunState = "aborted"

	// StateRunning is only written to the run ledger while a run is in flight.
	StateRunning RunState = "running"
)

// SyncResult summarizes one run. It is returned by the admin API and stored
// in the proc_runs ledger.
type SyncResult struct {
	RunID      string     `json:"run_id"`
	Kind       SyncKind   `json:"kind"`
	State      RunState   `json:"state"`
	Items      int        `json:"items"`
	Fetched    int        `json:"fetched"`
	NoData     int        `json:"no_data"`
	Created    int        `json:"created"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	ErrorCount int        `json:"error_count"`
	Errors     []string   `json:"errors,omitempty"`
	Warnings   []Warning  `json:"warnings,omitempty"`
	Started    time.Time  `json:"started"`
	Finished   *time.Time `json:"finished,omitempty"`
	DurationMs int64      `json:"duration_ms"`
}

// Aborted reports whether the run stopped before visiting every item.
func (r *SyncResult) Aborted() bool {
	return r.State == StateAborted
}
