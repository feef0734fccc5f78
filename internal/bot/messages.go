package bot

const (
	msgGreeting = "Your expenses, all in one place!\n\n" +
		"Commands:\n" +
		"/add - add an expense\n" +
		"/report - get a report\n" +
		"/last - last 3 expenses\n" +
		"/settings - account settings\n" +
		"/cancel - cancel input"

	msgAmountPrompt  = "Adding an expense.\nHow much did you spend?"
	msgAmountInvalid = "Please enter a number."

	msgCurrencyInvalid = "Enter a three-letter currency code, for example USD."

	msgCategoryPrompt = "Now enter a category for the expense:"
	msgCommentPrompt  = "You can add a comment or skip this step:"
	msgExpenseSaved   = "The expense is saved!\n\nFact: %s"

	msgReportPrompt  = "How many days should the report cover?"
	msgReportWait    = "Request accepted. One moment..."
	msgReportInvalid = "Couldn't understand how many days that is. Try entering a number of days."
	msgReportCaption = "Here is your report"
	msgReportFailed  = "Couldn't render the report. Please try again later."

	msgSettingsPrompt = "Pick an option:\n\n" +
		"Join an existing account - your expenses will be counted together with others\n\n" +
		"Create a new account - it starts out as yours alone, but you can share it\n\n" +
		"Leave the current account - detach from the linked account\n\n" +
		"Get the account code and password - to pass on to someone else"
	msgSettingsUnknown = "Unknown option. Please choose from the menu."

	msgJoinPrompt        = "Enter the account code and password separated by a space:"
	msgJoinBadFormat     = "Invalid format. Send two values separated by a space: code password"
	msgJoinNotFound      = "No account with that code. Try again or press Cancel:"
	msgJoinWrongPassword = "Wrong code or password. Try again or press Cancel:"
	msgJoinSuccess       = "You joined the account!"

	msgAccountCreated = "A new account is ready!\n\n" +
		"Code: %s\nPassword: %s\n\n" +
		"Share these with the people you want to track expenses with."
	msgNotConnected    = "You are not connected to any account."
	msgLeftAccount     = "You left the shared account. Your past expenses are kept."
	msgCredentialsSend = "To share the account, have the other person send the next message (code and password) right here:"

	msgNoExpenses    = "You have no expenses yet."
	msgRecentHeader  = "Recent expenses:"
	msgNotUnderstood = "Sorry, I didn't understand that."
	msgInternalError = "Something went wrong. Please try again."
)
