package app

// Panel is the control surface the recorder drives. It holds what the View
// renders: control enablement, status line, indicator, playback and alert.
type Panel struct {
	recordEnabled bool
	stopEnabled   bool
	uploadEnabled bool

	status    string
	statusSeq int
	indicator bool

	playbackURL     string
	playbackVisible bool

	loading  bool
	alert    string
	alertSeq int
}

// NewPanel returns a panel with upload enabled and nothing else set.
func NewPanel() *Panel {
	return &Panel{uploadEnabled: true}
}

// SetRecordEnabled implements recorder.Presenter.
func (p *Panel) SetRecordEnabled(enabled bool) { p.recordEnabled = enabled }

// SetStopEnabled implements recorder.Presenter.
func (p *Panel) SetStopEnabled(enabled bool) { p.stopEnabled = enabled }

// SetStatus implements recorder.Presenter. Every call bumps the status
// sequence so a pending reset only fires for the text it was scheduled for.
func (p *Panel) SetStatus(text string) {
	p.status = text
	p.statusSeq++
}

// SetIndicator implements recorder.Presenter.
func (p *Panel) SetIndicator(active bool) { p.indicator = active }

// ShowPlayback implements recorder.Presenter.
func (p *Panel) ShowPlayback(url string) {
	p.playbackURL = url
	p.playbackVisible = true
}

// HidePlayback implements recorder.Presenter.
func (p *Panel) HidePlayback() { p.playbackVisible = false }

// resetPlayback hides playback and forgets its source.
func (p *Panel) resetPlayback() {
	p.playbackVisible = false
	p.playbackURL = ""
}

// showAlert sets the alert and returns its sequence number.
func (p *Panel) showAlert(text string) int {
	p.alert = text
	p.alertSeq++
	return p.alertSeq
}

func (p *Panel) clearAlert() { p.alert = "" }

// Status returns the status line.
func (p *Panel) Status() string { return p.status }

// Alert returns the current alert, or "".
func (p *Panel) Alert() string { return p.alert }

// Loading reports whether an upload is in flight.
func (p *Panel) Loading() bool { return p.loading }

// UploadEnabled reports whether the upload control is enabled.
func (p *Panel) UploadEnabled() bool { return p.uploadEnabled }
