package bot

// Trigger keywords. Slash commands work from any state; button labels
// double as plain-text triggers so tapped keyboard buttons and typed
// text behave identically.
const (
	cmdStart    = "start"
	cmdAdd      = "add"
	cmdReport   = "report"
	cmdLast     = "last"
	cmdSettings = "settings"
	cmdCancel   = "cancel"

	btnAddExpense = "Add expense"
	btnReport     = "Get report"
	btnSettings   = "Settings"
	btnLast       = "Last 3 expenses"

	btnCancel = "Cancel"
	btnSkip   = "Skip"

	btnAllTime = "All time"

	btnJoinAccount = "Join an existing account"
	btnNewAccount  = "Create a new account"
	btnLeave       = "Leave the current account"
	btnCredentials = "Get the account code and password"
	btnBack        = "Back to menu"
)

// Keyboards are plain layout data. Only the transport layer turns them
// into Telegram reply markup.
var (
	menuKeyboard = [][]string{
		{btnAddExpense, btnReport},
		{btnSettings, btnLast},
	}

	cancelKeyboard = [][]string{
		{btnCancel},
	}

	categoryKeyboard = [][]string{
		{"Food", "Transport", "Fun"},
		{"Home", "Shopping", btnCancel},
	}

	commentKeyboard = [][]string{
		{btnSkip, btnCancel},
	}

	reportKeyboard = [][]string{
		{"1 day", "7 days", "30 days"},
		{"90 days", btnAllTime, btnCancel},
	}

	settingsKeyboard = [][]string{
		{btnJoinAccount, btnNewAccount},
		{btnLeave, btnCredentials, btnBack},
	}
)
