package app

import (
	"github.com/alexrolguin/voicebox/internal/api"
	"github.com/alexrolguin/voicebox/internal/capture"
	"github.com/google/uuid"
)

// AccessResultMsg carries the outcome of opening the capture device.
type AccessResultMsg struct {
	Err error
}

// CaptureEventMsg wraps one event read from the capture device.
type CaptureEventMsg struct {
	Event capture.Event
}

// CaptureClosedMsg is sent when the device event channel is closed.
type CaptureClosedMsg struct{}

// UploadDoneMsg carries the transcription of an uploaded recording.
type UploadDoneMsg struct {
	RecordingID uuid.UUID
	Record      api.TranscriptionRecord
}

// UploadErrorMsg is sent when an upload fails.
type UploadErrorMsg struct {
	Err error
}

// HistoryLoadedMsg carries the server history, oldest first.
type HistoryLoadedMsg struct {
	Records []api.TranscriptionRecord
}

// HistoryErrorMsg is sent when the history cannot be loaded.
type HistoryErrorMsg struct {
	Err error
}

// ClearAlertMsg clears the alert it was scheduled for.
type ClearAlertMsg struct {
	seq int
}

// ResetStatusMsg restores the ready status unless it changed since.
type ResetStatusMsg struct {
	seq int
}
