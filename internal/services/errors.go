package services

import "fmt"

// ErrorKind classifies collaborator failures so handlers can surface a
// structured result instead of a raw exception-style error string.
type ErrorKind string

const (
	// KindConfig means the dependency client was never constructed because
	// required settings were blank.
	KindConfig ErrorKind = "config"
	// KindNotFound means the requested document, index, or file is absent.
	KindNotFound ErrorKind = "not_found"
	// KindTransient covers network, quota, or service errors from collaborators.
	KindTransient ErrorKind = "transient"
	// KindValidation means the input failed a precondition check and no
	// external call was made.
	KindValidation ErrorKind = "validation"
)

// ServiceError is the tagged error result every public service operation
// returns instead of propagating collaborator errors raw.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	// Cause keeps the original diagnostic message; never shown as-is to callers.
	Cause error
	// Available carries alternative document names on not-found outcomes so
	// the caller can self-correct.
	Available []string
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

func configError(message string) *ServiceError {
	return &ServiceError{Kind: KindConfig, Message: message}
}

func notFoundError(message string, available []string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message, Available: available}
}

func transientError(message string, cause error) *ServiceError {
	return &ServiceError{Kind: KindTransient, Message: message, Cause: cause}
}

func validationError(message string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: message}
}
