package errors

var ErrTagNotFound = newException(KindNotFound, "tag not found")
