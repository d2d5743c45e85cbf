package app

import "fmt"

// DomainError is an error the HTTP layer can show as is: brochure and search
// failures become {code,error,details} and contact failures keep the message.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// domainError builds a DomainError, e.g. the 503 when no contact relay is wired.
func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{Status: status, Code: code, Message: message, Details: details}
}
