package models

// WarningCode categorizes warnings by stage.
// W1xxx = provider payloads, W2xxx = filtering, W3xxx = persistence.
type WarningCode string

const (
	WarnNoData           WarningCode = "W1001" // provider answered without the expected marker
	WarnRowDropped       WarningCode = "W1002" // row could not be parsed and was dropped
	WarnUpToDate         WarningCode = "W2001" // nothing newer than the watermark can exist yet
	WarnUnchanged        WarningCode = "W2002" // snapshot fingerprint matches the stored one
	WarnUnresolvedTicker WarningCode = "W2003" // ticker has no sid in the symbols table
	WarnRowSkipped       WarningCode = "W3001" // row-level store failure, remaining rows continued
	WarnFlagNotSet       WarningCode = "W3002" // row stored but the symbol flag update failed
)

// Warning represents a non-fatal issue encountered during a sync.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}
