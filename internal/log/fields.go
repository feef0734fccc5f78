package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldChatID    = "chat_id"
	FieldState     = "state"
	FieldAccountID = "account_id"
	FieldCode      = "code"
	FieldAmount    = "amount"
	FieldCurrency  = "currency"
	FieldCategory  = "category"
	FieldWindow    = "window_days"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentBot     = "bot"
	ComponentStorage = "storage"
	ComponentLedger  = "ledger"
	ComponentSharing = "sharing"
	ComponentTrivia  = "trivia"
	ComponentReport  = "report"
)
