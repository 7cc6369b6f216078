package errors

func PermissionDenied(reason, message string) *Exception {
	e := newException(KindPermissionDenied, message)
	e.Reason = reason
	return e
}
