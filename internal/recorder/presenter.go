package recorder

// Presenter receives every user-visible effect of the recorder. The TUI
// implements it with app.Panel; tests use a recording fake.
type Presenter interface {
	SetRecordEnabled(enabled bool)
	SetStopEnabled(enabled bool)
	SetStatus(text string)
	SetIndicator(active bool)
	ShowPlayback(url string)
	HidePlayback()
}

// Status texts shown by the recorder.
const (
	StatusReady     = "Ready to record"
	StatusRecording = "Recording..."
	StatusComplete  = "Recording complete"
	StatusRequest   = "Requesting microphone access..."
)
