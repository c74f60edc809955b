package field

import "errors"

// ErrorKind is the stable code reported for a failed fill.
type ErrorKind string

const (
	KindNoFormsDetected       ErrorKind = "NoFormsDetected"
	KindNoFieldsDetected      ErrorKind = "NoFieldsDetected"
	KindNoProfileData         ErrorKind = "NoProfileData"
	KindConfigurationError    ErrorKind = "ConfigurationError"
	KindAIServiceUnavailable  ErrorKind = "AIServiceUnavailable"
	KindAIResponseUnparseable ErrorKind = "AIResponseUnparseable"
	KindFillInProgress        ErrorKind = "FillInProgress"
	KindInternal              ErrorKind = "Internal"
)

var (
	ErrNoFormsDetected       = errors.New("no forms detected on this page")
	ErrNoFieldsDetected      = errors.New("no fillable fields detected on this page")
	ErrNoProfileData         = errors.New("no profile data available for filling")
	ErrAIServiceUnavailable  = errors.New("AI service unavailable")
	ErrAIResponseUnparseable = errors.New("could not extract field values from AI response")
	ErrFillInProgress        = errors.New("a fill is already in progress for this page")
)
