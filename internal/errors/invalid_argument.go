package errors

import "fmt"

func InvalidArgument(format string, args ...any) *Exception {
	return newException(KindInvalidArgument, fmt.Sprintf(format, args...))
}

var (
	ErrNegativePage      = newException(KindInvalidArgument, "page number cannot be negative")
	ErrNonPositiveSize   = newException(KindInvalidArgument, "page size must be at least 1")
	ErrNegativeDaysAhead = newException(KindInvalidArgument, "days ahead cannot be negative")
)
