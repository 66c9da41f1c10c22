package domain

import "encoding/json"

// BankingRoute identifies one Bafoka API call.
type BankingRoute struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`
}

// BankingAction is a fully resolved request against the Bafoka backend.
type BankingAction struct {
	Endpoint   string            `json:"endpoint"`
	Method     string            `json:"method"`
	Parameters map[string]string `json:"parameters"`
}

// ExecutionResult is the backend's answer. Status-level failures come back as
// Success=false with Error filled in; transport failures surface as Go errors
// from the banking port instead.
type ExecutionResult struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"status_code,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// APIClient is an authenticated caller of this service (e.g. the WhatsApp
// gateway), not an end user. End users are identified by phone number only.
type APIClient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}
