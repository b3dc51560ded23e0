package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SyncSymbolsRequest is the JSON body of POST /admin/sync/symbols.
// Either Keywords or Source must be set; Source "listing" pulls the active
// listing from the provider.
type SyncSymbolsRequest struct {
	Keywords []string `json:"keywords"`
	Source   string   `json:"source"`
}

// SyncSelection narrows the symbols an overview/intraday/daily/news sync visits.
type SyncSelection struct {
	Region   string   `json:"region" form:"region" yaml:"region"`
	SecTypes []string `json:"sec_types" form:"sec_types" yaml:"sec_types"`
	Symbols  []string `json:"symbols" form:"symbols" yaml:"symbols"`
	Limit    int      `json:"limit" form:"limit" yaml:"limit"`
}
