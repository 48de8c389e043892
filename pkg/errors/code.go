package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 20000-20999: Grading backend gateway errors
// 21000-21999: Console session errors
// 22000-22999: Preference errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300
	InvalidFormat    ErrorCode = 10301

	// ========== Gateway Errors (20000-20999) ==========

	BackendUnreachable   ErrorCode = 20000
	BackendStatus        ErrorCode = 20001
	ResponseDecodeFailed ErrorCode = 20002

	// ========== Console Session Errors (21000-21999) ==========

	ProblemNotFound  ErrorCode = 21000
	NoProblemOpen    ErrorCode = 21001
	EditorNotReady   ErrorCode = 21002
	WidgetLoadFailed ErrorCode = 21003
	SaveRejected     ErrorCode = 21004
	PushRejected     ErrorCode = 21005
	RunTimeout       ErrorCode = 21006

	// ========== Preference Errors (22000-22999) ==========

	PreferenceStoreError ErrorCode = 22000
	InvalidTheme         ErrorCode = 22001
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	ValidationFailed: "Validation failed",
	InvalidFormat:    "Invalid format",

	BackendUnreachable:   "Grading backend is unreachable",
	BackendStatus:        "Grading backend returned an error status",
	ResponseDecodeFailed: "Failed to decode grading backend response",

	ProblemNotFound:  "Problem not found",
	NoProblemOpen:    "No problem is open",
	EditorNotReady:   "Editor is not ready",
	WidgetLoadFailed: "Failed to load editor widget",
	SaveRejected:     "Save was rejected by the backend",
	PushRejected:     "Push was rejected by the backend",
	RunTimeout:       "Run exceeded the time limit",

	PreferenceStoreError: "Preference store operation failed",
	InvalidTheme:         "Invalid theme",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus maps the error code to an HTTP status used by the console API
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == ProblemNotFound:
		return 404
	case c == NoProblemOpen, c == EditorNotReady:
		return 409
	case c == ServiceUnavailable:
		return 503
	case c == Timeout, c == RunTimeout:
		return 504
	case c >= 20000 && c < 21000: // Gateway errors
		return 502
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == InvalidTheme:
		return 400
	default:
		return 500
	}
}
