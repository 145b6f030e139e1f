package apperr

var (
	ErrUnknown        = New(CodeUnknown, "An error occurred. Please try again")
	ErrMissingFields  = InvalidArg("All fields are required")
	ErrSessionExpired = Unauthorized("invalid or expired session")

	ErrInvalidCredentials     = New(CodeInvalidCredentials, "Invalid email or password")
	ErrEmailAlreadyRegistered = New(CodeEmailAlreadyRegistered, "This email is already registered")
	ErrWeakPassword           = New(CodeWeakPassword, "Password should be at least 6 characters")
	ErrPasswordTooLong        = New(CodeWeakPassword, "Password is too long")
	ErrInvalidEmailFormat     = New(CodeInvalidEmailFormat, "Invalid email address")
	ErrRateLimited            = New(CodeRateLimited, "Too many attempts. Please try again later")

	ErrOperationInProgress = New(CodeOperationInProgress, "A friend request is already being processed")
	ErrPeerNotFound        = New(CodePeerNotFound, "User not found")
	ErrAlreadyFriends      = New(CodeAlreadyFriends, "You are already friends")
	ErrTransient           = New(CodeTransient, "Failed to add friend. Please try again")
	ErrRelationshipUnknown = New(CodeUnknown, "Failed to add friend")
	ErrSelfRelationship    = InvalidArg("You cannot add yourself as a friend")

	ErrEmptyOrOversizeContent = New(CodeEmptyOrOversizeContent, "Message must be between 1 and 500 characters")
	ErrSendFailed             = New(CodeSendFailed, "Failed to send message")
	ErrNotParticipant         = Forbidden("not a participant of this chat")

	ErrLocationPermissionDenied = New(CodePermissionDenied, "Location permission denied")
	ErrLocationUnavailable      = New(CodeUnavailable, "Location unavailable")
)
