package errors

import "fmt"

func BusinessRule(format string, args ...any) *Exception {
	return newException(KindBusinessRuleViolation, fmt.Sprintf(format, args...))
}
