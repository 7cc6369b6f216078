package errors

var (
	ErrUserNotFound          = newException(KindNotFound, "user not found")
	ErrPrincipalUserNotFound = newException(KindNotFound, "principal user not found")
	ErrTargetUserNotFound    = newException(KindNotFound, "target user not found")
)
