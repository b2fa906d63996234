package errors

import "errors"

// Failure classes. Every failure is fatal for the whole run and maps to exit
// code 1; the class only drives the diagnostic and the structured log entry.
var (
	ErrSuiteNotFound    = errors.New("suite file not found")
	ErrSuiteInvalid     = errors.New("suite configuration invalid")
	ErrSetupFailed      = errors.New("container setup failed")
	ErrReadinessTimeout = errors.New("service readiness timed out")
	ErrAssertionFailed  = errors.New("scenario assertion failed")
	ErrExtractionFailed = errors.New("log extraction failed")
	ErrRuntimeFailed    = errors.New("runtime operation failed")
	ErrQueryFailed      = errors.New("database query failed")
	ErrFileSystemFailed = errors.New("filesystem operation failed")
)

type HarnessError struct {
	Class       error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *HarnessError) Error() string {
	return e.OriginalErr.Error()
}

func (e *HarnessError) Unwrap() error {
	return e.OriginalErr
}

// Is lets errors.Is(err, ErrSetupFailed) and friends match on the class.
func (e *HarnessError) Is(target error) bool {
	return e.Class == target
}

func NewHarnessError(class error, context, cause, suggestion string, originalErr error) *HarnessError {
	return &HarnessError{
		Class:       class,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewSuiteError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrSuiteNotFound, context, cause, suggestion, originalErr)
}

func NewSuiteInvalidError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrSuiteInvalid, context, cause, suggestion, originalErr)
}

func NewSetupError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrSetupFailed, context, cause, suggestion, originalErr)
}

func NewTimeoutError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrReadinessTimeout, context, cause, suggestion, originalErr)
}

func NewAssertionError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrAssertionFailed, context, cause, suggestion, originalErr)
}

func NewExtractionError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrExtractionFailed, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrRuntimeFailed, context, cause, suggestion, originalErr)
}

func NewQueryError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrQueryFailed, context, cause, suggestion, originalErr)
}

func NewFileSystemError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrFileSystemFailed, context, cause, suggestion, originalErr)
}
