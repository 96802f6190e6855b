package errors

var (
	ErrInvalidCredential    = Unauthorized("invalid or expired credential")
	ErrUserNotFound         = NotFound("user not found")
	ErrRequestNotFound      = NotFound("friend request not found")
	ErrSelfRequest          = InvalidArg("cannot send a friend request to yourself")
	ErrAlreadyFriends       = AlreadyExists("already friends")
	ErrRequestPending       = AlreadyExists("friend request already pending")
	ErrRequestIncoming      = AlreadyExists("this user already sent you a friend request")
	ErrNotReceiver          = Forbidden("only the receiver can respond to this request")
	ErrNotSender            = Forbidden("only the sender can cancel this request")
	ErrNotPending           = FailedPrecondition("friend request is no longer pending")
	ErrNotFriends           = Forbidden("you are not friends with this user")
	ErrFriendshipMissing    = NotFound("no friendship exists with this user")
	ErrConversationNotFound = NotFound("conversation not found")
	ErrNotParticipant       = Forbidden("you are not a participant of this conversation")
	ErrMessageNotFound      = NotFound("message not found")
	ErrNotMessageSender     = Forbidden("only the sender can delete this message")
	ErrEmptyMessage         = InvalidArg("message content cannot be empty")
	ErrMessageTooLong       = InvalidArg("message content exceeds the maximum length")
)
