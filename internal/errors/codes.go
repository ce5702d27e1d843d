package errors

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Capture errors
const (
	// ErrCodePermissionDenied means the capture device could not be opened.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrCodeInvalidState means a recorder operation was called in the wrong state.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
)

// Upload and history errors
const (
	// ErrCodeNoRecording means an upload was attempted with nothing recorded.
	ErrCodeNoRecording ErrorCode = "NO_RECORDING"
	// ErrCodeServerRejected means the server answered with an error payload.
	ErrCodeServerRejected ErrorCode = "SERVER_REJECTED"
	// ErrCodeNetwork means the request never completed.
	ErrCodeNetwork ErrorCode = "NETWORK"
	// ErrCodeLoadHistory means the initial history fetch failed.
	ErrCodeLoadHistory ErrorCode = "LOAD_HISTORY"
)

// ErrCodeConfig means the configuration could not be loaded or is invalid.
const ErrCodeConfig ErrorCode = "CONFIG"

// userFacing lists the codes whose message is meant to be shown to the user.
// LOAD_HISTORY is logged only.
var userFacing = map[ErrorCode]bool{
	ErrCodePermissionDenied: true,
	ErrCodeNoRecording:      true,
	ErrCodeServerRejected:   true,
	ErrCodeNetwork:          true,
	ErrCodeInvalidState:     false,
	ErrCodeLoadHistory:      false,
	ErrCodeConfig:           true,
}

// IsUserFacingCode reports whether errors with this code surface as an alert.
func IsUserFacingCode(code ErrorCode) bool {
	return userFacing[code]
}
