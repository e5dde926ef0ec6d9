package models

import "errors"

// Pipeline error taxonomy. Callers classify with errors.Is; job records carry
// the matching code string from ErrorCode.
var (
	ErrDriverUnavailable  = errors.New("browser binary unavailable")
	ErrLaunchFailure      = errors.New("browser launch failed")
	ErrNavigationTimeout  = errors.New("page navigation timed out")
	ErrPageRetryExhausted = errors.New("page retry budget exhausted")
	ErrRunTimeout         = errors.New("run timeout elapsed")
	ErrPersistenceWrite   = errors.New("persistence write failed")
	ErrSettingsValidation = errors.New("invalid settings")
	ErrJobAlreadyRunning  = errors.New("a scrape job is already running")
)

// ErrorCode maps a pipeline error to its taxonomy code. Unclassified errors
// map to "Internal".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDriverUnavailable):
		return "DriverUnavailable"
	case errors.Is(err, ErrLaunchFailure):
		return "LaunchFailure"
	case errors.Is(err, ErrNavigationTimeout):
		return "NavigationTimeout"
	case errors.Is(err, ErrPageRetryExhausted):
		return "PageRetryExhausted"
	case errors.Is(err, ErrRunTimeout):
		return "RunTimeout"
	case errors.Is(err, ErrPersistenceWrite):
		return "PersistenceWriteFailure"
	case errors.Is(err, ErrSettingsValidation):
		return "SettingsValidationError"
	case errors.Is(err, ErrJobAlreadyRunning):
		return "JobAlreadyRunning"
	}
	return "Internal"
}
