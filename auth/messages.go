package auth

// User facing texts.
const (
	textAuthenticate   = "You need to authenticate to perform this operation. Please click this %s to continue."
	textNoSession      = "This operation requires you to authenticate but could not create a session for you.\nIf you are authorized to inspect the activation logs, check them for details or contact your Commander admin."
	textNotAuthorized  = "You did not authenticate"
	textCouldNotAuth   = "Couldn't authenticate"
	textSessionExpired = "Your session has expired"
	textExchangeFailed = "Failed to exchange code for access_token"
	textMisconfigured  = "API is not properly configured"
	textAuthorized     = "You are authorized to perform the requested operation. Check %s for progress. You may close this browser tab."
	textInvalidRequest = "Invalid request"
	textUnexpected     = "Unexpected error"
	textUnknownCommand = "Unknown command %s"
	textNoProvider     = "Couldn't find provider with name %s, please ensure the name is correct or add it using _auth add_"
)
