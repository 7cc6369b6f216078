package errors

var ErrTaskNotFound = newException(KindNotFound, "task not found")
