package domain

// IntentUnknown marks an utterance the NLU could not map to a banking action.
// Unknown turns never merge with or clear a pending intent.
const IntentUnknown = "unknown"

// Canonical banking intents (French names, as exposed by the Bafoka API).
const (
	IntentTransfer       = "faire_virement"
	IntentBalance        = "consulter_solde"
	IntentPayBill        = "payer_facture"
	IntentAddBeneficiary = "ajouter_beneficiaire"
	IntentCreateAccount  = "creer_compte"
)

// intentSchemas lists the required parameters per intent. Parameters are a
// closed set of string-valued slots; anything else the NLU returns is carried
// along but never counted as required.
var intentSchemas = map[string][]string{
	IntentTransfer:       {"senderPhone", "recipientPhone", "amount"},
	IntentBalance:        {"phoneNumber"},
	IntentPayBill:        {"phoneNumber", "billReference", "amount"},
	IntentAddBeneficiary: {"senderPhone", "recipientPhone", "beneficiaryName"},
	IntentCreateAccount:  {"phoneNumber", "name", "age", "sex"},
}

// intentEndpoints maps each intent to its default Bafoka API call.
var intentEndpoints = map[string]BankingRoute{
	IntentTransfer:       {Endpoint: "/api/transfer", Method: "POST"},
	IntentBalance:        {Endpoint: "/api/get-balance", Method: "POST"},
	IntentPayBill:        {Endpoint: "/api/pay-bill", Method: "POST"},
	IntentAddBeneficiary: {Endpoint: "/api/recipient-info", Method: "POST"},
	IntentCreateAccount:  {Endpoint: "/api/account-creation", Method: "POST"},
}

// RequiredParams returns the required parameter names for an intent, or nil
// for unknown/unschematized intents.
func RequiredParams(intent string) []string {
	return intentSchemas[intent]
}

// KnownIntent reports whether the intent has a banking schema.
func KnownIntent(intent string) bool {
	_, ok := intentSchemas[intent]
	return ok
}

// RouteFor returns the default API route for an intent.
func RouteFor(intent string) (BankingRoute, bool) {
	r, ok := intentEndpoints[intent]
	return r, ok
}

// Transcription is the STT collaborator's output for one audio payload.
type Transcription struct {
	Text       string  `json:"text"`
	RawText    string  `json:"raw_text,omitempty"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// NLUResult is the NLU collaborator's analysis of one utterance. The core
// treats Language as opaque; detection strategy belongs to the collaborator.
type NLUResult struct {
	Intent           string            `json:"intent"`
	Parameters       map[string]string `json:"parameters"`
	MissingParams    []string          `json:"missing_parameters"`
	ValidationErrors []string          `json:"validation_errors"`
	Response         string            `json:"response_text"`
	Suggestions      []string          `json:"suggestions,omitempty"`
	Confidence       float64           `json:"confidence"`
	SecurityAlert    bool              `json:"security_alert"`
	APIEndpoint      string            `json:"api_endpoint"`
	APIMethod        string            `json:"api_method"`
	Language         string            `json:"language"`
	Text             string            `json:"transcription_text,omitempty"`
}

// AssistantReply is the request layer's view of one processed turn, mirroring
// the session state the turn produced plus any execution outcome.
type AssistantReply struct {
	Success          bool              `json:"success"`
	TurnID           string            `json:"turn_id"`
	Intent           string            `json:"intent"`
	Parameters       map[string]string `json:"parameters"`
	MissingParams    []string          `json:"missing_parameters"`
	ValidationErrors []string          `json:"validation_errors,omitempty"`
	APIEndpoint      string            `json:"api_endpoint,omitempty"`
	APIMethod        string            `json:"api_method,omitempty"`
	Transcription    string            `json:"transcription_text,omitempty"`
	ResponseText     string            `json:"response_text"`
	Suggestions      []string          `json:"suggestions,omitempty"`
	Confidence       float64           `json:"confidence"`
	SecurityAlert    bool              `json:"security_alert"`
	SecurityLevel    string            `json:"security_level"`
	IsComplete       bool              `json:"is_complete"`
	ExecutionReady   bool              `json:"execution_ready"`
	Language         string            `json:"language,omitempty"`
	Timestamp        string            `json:"timestamp"`
	Execution        *ExecutionResult  `json:"execution,omitempty"`
}
