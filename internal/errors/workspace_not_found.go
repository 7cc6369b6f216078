package errors

var ErrWorkspaceNotFound = newException(KindNotFound, "workspace not found")
