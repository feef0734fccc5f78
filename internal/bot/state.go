package bot

// State identifies where a user is in the conversation. Every user has
// exactly one state at a time, kept in the SessionStore.
type State int

const (
	StateMenu State = iota
	StateAwaitingAmount
	// StateAwaitingCurrency exists in the dialog model but is currently
	// bypassed: amount entry fills the currency from configuration.
	StateAwaitingCurrency
	StateAwaitingCategory
	StateAwaitingComment
	StateAwaitingReportWindow
	StateSettingsMenu
	StateAwaitingJoinCredentials
)

func (s State) String() string {
	switch s {
	case StateMenu:
		return "menu"
	case StateAwaitingAmount:
		return "awaiting_amount"
	case StateAwaitingCurrency:
		return "awaiting_currency"
	case StateAwaitingCategory:
		return "awaiting_category"
	case StateAwaitingComment:
		return "awaiting_comment"
	case StateAwaitingReportWindow:
		return "awaiting_report_window"
	case StateSettingsMenu:
		return "settings_menu"
	case StateAwaitingJoinCredentials:
		return "awaiting_join_credentials"
	default:
		return "unknown"
	}
}

// AcceptsCancel reports whether the cancel trigger is honored in this
// state. Only input-collecting states can be cancelled; Menu and
// SettingsMenu ignore it.
func (s State) AcceptsCancel() bool {
	switch s {
	case StateAwaitingAmount, StateAwaitingCurrency, StateAwaitingCategory,
		StateAwaitingComment, StateAwaitingReportWindow, StateAwaitingJoinCredentials:
		return true
	default:
		return false
	}
}
