package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/alexrolguin/voicebox/internal/api"
	"github.com/alexrolguin/voicebox/internal/capture"
	apperrors "github.com/alexrolguin/voicebox/internal/errors"
	"github.com/alexrolguin/voicebox/internal/logger"
	"github.com/alexrolguin/voicebox/internal/recorder"
	"github.com/alexrolguin/voicebox/internal/transcripts"
	"github.com/alexrolguin/voicebox/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// Status texts of the upload flow.
const (
	StatusUploaded     = "Transcription complete! Ready to record again."
	StatusUploadError  = "Error occurred. Please try again."
	StatusUploadFailed = "Upload failed. Please try again."
)

const (
	statusResetDelay = 3 * time.Second
	alertDelay       = 5 * time.Second
)

// Service is the transcription server as the TUI uses it.
type Service interface {
	Upload(ctx context.Context, rec *recorder.Recording) (api.TranscriptionRecord, error)
	Transcriptions(ctx context.Context) ([]api.TranscriptionRecord, error)
}

// Options wires a Model to its collaborators.
type Options struct {
	Device      capture.Device
	Service     Service
	Log         *logger.Logger
	PlaybackDir string
	ServerURL   string
	DeviceName  string
}

// Model is the root bubbletea model for the voicebox TUI.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	recorder *recorder.Recorder
	service  Service
	panel    *Panel
	list     *transcripts.List
	spinner  spinner.Model
	log      *logger.Logger

	serverURL  string
	deviceName string

	// UI state
	width      int
	height     int
	listScroll int
}

// New creates a Model in the ready state. The capture device is opened on
// the first record request.
func New(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	panel := NewPanel()

	return Model{
		ctx:    ctx,
		cancel: cancel,
		recorder: recorder.New(opts.Device, panel, log, recorder.Options{
			PlaybackDir: opts.PlaybackDir,
		}),
		service: opts.Service,
		panel:   panel,
		list:    transcripts.NewList(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(ui.SpinnerStyle),
		),
		log:        log.WithComponent("tui"),
		serverURL:  opts.ServerURL,
		deviceName: opts.DeviceName,
	}
}

// Init returns the initial command: load the server history.
func (m Model) Init() tea.Cmd {
	return loadHistoryCmd(m.ctx, m.service)
}

// openDeviceCmd opens the capture device off the UI goroutine.
func openDeviceCmd(ctx context.Context, rec *recorder.Recorder) tea.Cmd {
	return func() tea.Msg {
		return AccessResultMsg{Err: rec.OpenDevice(ctx)}
	}
}

// waitForCaptureCmd reads the next event from the capture device.
func waitForCaptureCmd(events <-chan capture.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return CaptureClosedMsg{}
		}
		return CaptureEventMsg{Event: ev}
	}
}

// uploadCmd posts the recording and reports the transcription.
func uploadCmd(ctx context.Context, svc Service, rec *recorder.Recording) tea.Cmd {
	return func() tea.Msg {
		record, err := svc.Upload(ctx, rec)
		if err != nil {
			return UploadErrorMsg{Err: err}
		}
		return UploadDoneMsg{RecordingID: rec.ID, Record: record}
	}
}

// loadHistoryCmd fetches every stored transcription.
func loadHistoryCmd(ctx context.Context, svc Service) tea.Cmd {
	return func() tea.Msg {
		recs, err := svc.Transcriptions(ctx)
		if err != nil {
			return HistoryErrorMsg{Err: err}
		}
		return HistoryLoadedMsg{Records: recs}
	}
}

// clearAlertCmd fires after a delay to clear the alert with sequence seq.
func clearAlertCmd(seq int) tea.Cmd {
	return tea.Tick(alertDelay, func(time.Time) tea.Msg {
		return ClearAlertMsg{seq: seq}
	})
}

// resetStatusCmd fires after a delay to restore the ready status.
func resetStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusResetDelay, func(time.Time) tea.Msg {
		return ResetStatusMsg{seq: seq}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scrollBy(0)
		return m, nil

	case AccessResultMsg:
		if err := m.recorder.CompleteAccess(msg.Err); err != nil {
			return m, m.alertFor(err)
		}
		// One reader stays armed on the event channel from here on.
		cmds := []tea.Cmd{waitForCaptureCmd(m.recorder.Events())}
		if err := m.recorder.Start(); err != nil {
			cmds = append(cmds, m.alertFor(err))
		}
		return m, tea.Batch(cmds...)

	case CaptureEventMsg:
		var cmd tea.Cmd
		if _, err := m.recorder.HandleEvent(msg.Event); err != nil {
			cmd = m.alertFor(err)
		}
		return m, tea.Batch(cmd, waitForCaptureCmd(m.recorder.Events()))

	case CaptureClosedMsg:
		m.log.Debug("capture events closed")
		return m, nil

	case UploadDoneMsg:
		m.finishUpload()
		if cur := m.recorder.Recording(); cur != nil && cur.ID == msg.RecordingID {
			m.recorder.Discard()
			m.panel.resetPlayback()
		}
		m.list.Prepend(msg.Record)
		m.listScroll = 0
		m.panel.SetStatus(StatusUploaded)
		return m, resetStatusCmd(m.panel.statusSeq)

	case UploadErrorMsg:
		m.finishUpload()
		return m, m.uploadFailed(msg.Err)

	case HistoryLoadedMsg:
		m.list.LoadBatch(msg.Records)
		m.log.Info("history loaded", logger.Fields("count", len(msg.Records)))
		return m, nil

	case HistoryErrorMsg:
		m.log.WithError(msg.Err).Warn("history unavailable")
		return m, nil

	case ClearAlertMsg:
		if msg.seq == m.panel.alertSeq {
			m.panel.clearAlert()
		}
		return m, nil

	case ResetStatusMsg:
		if msg.seq == m.panel.statusSeq {
			m.panel.SetStatus(recorder.StatusReady)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.panel.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		m.shutdown()
		return m, tea.Quit

	case KeySpace, KeySpaceName:
		if m.recorder.State() == recorder.StateRecording {
			return m.stopRecording()
		}
		return m.startRecording()

	case KeyRecord:
		return m.startRecording()

	case KeyStop:
		return m.stopRecording()

	case KeyUpload:
		return m.upload()

	case KeyEsc:
		m.panel.clearAlert()

	case KeyJ, KeyDown:
		m.scrollBy(1)

	case KeyK, KeyUp:
		m.scrollBy(-1)

	case KeyHome:
		m.listScroll = 0
	}

	return m, nil
}

func (m Model) startRecording() (tea.Model, tea.Cmd) {
	if !m.panel.recordEnabled {
		return m, nil
	}
	if m.recorder.State() == recorder.StateIdle {
		if !m.recorder.BeginAccess() {
			return m, nil
		}
		return m, openDeviceCmd(m.ctx, m.recorder)
	}
	if err := m.recorder.Start(); err != nil {
		return m, m.alertFor(err)
	}
	return m, nil
}

func (m Model) stopRecording() (tea.Model, tea.Cmd) {
	if !m.panel.stopEnabled {
		return m, nil
	}
	if err := m.recorder.Stop(); err != nil {
		return m, m.alertFor(err)
	}
	return m, nil
}

func (m Model) upload() (tea.Model, tea.Cmd) {
	if !m.panel.uploadEnabled {
		return m, nil
	}
	rec := m.recorder.Recording()
	if rec == nil {
		return m, m.alertFor(apperrors.NoRecording())
	}

	m.panel.uploadEnabled = false
	m.panel.loading = true
	m.panel.HidePlayback()
	m.log.Info("uploading", logger.Fields(
		logger.FieldRecording, rec.ID.String(),
		logger.FieldBytes, rec.Size(),
	))
	return m, tea.Batch(uploadCmd(m.ctx, m.service, rec), m.spinner.Tick)
}

// finishUpload runs on every upload outcome.
func (m *Model) finishUpload() {
	m.panel.loading = false
	m.panel.uploadEnabled = true
}

// uploadFailed sets the status and alert for a failed upload.
func (m *Model) uploadFailed(err error) tea.Cmd {
	m.log.WithError(err).Warn("upload failed")

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		m.panel.SetStatus(StatusUploadFailed)
		return m.alert(apperrors.Network(err).Message)
	}
	switch appErr.Code {
	case apperrors.ErrCodeServerRejected:
		m.panel.SetStatus(StatusUploadError)
		return m.alert("Error: " + appErr.Message)
	case apperrors.ErrCodeNoRecording:
		return m.alert(appErr.Message)
	default:
		m.panel.SetStatus(StatusUploadFailed)
		return m.alert(appErr.Message)
	}
}

// alertFor surfaces err as an alert. Errors that are not meant for the
// user are only logged.
func (m *Model) alertFor(err error) tea.Cmd {
	appErr, ok := apperrors.AsAppError(err)
	switch {
	case ok && appErr.UserFacing():
		return m.alert(appErr.Message)
	case ok:
		m.log.Debug("ignored", logger.Fields("error", err.Error()))
		return nil
	default:
		m.log.WithError(err).Error("operation failed")
		return m.alert(err.Error())
	}
}

func (m *Model) alert(text string) tea.Cmd {
	return clearAlertCmd(m.panel.showAlert(text))
}

func (m *Model) shutdown() {
	m.cancel()
	if err := m.recorder.Close(); err != nil {
		m.log.WithError(err).Warn("close capture device")
	}
}

func (m *Model) scrollBy(delta int) {
	m.listScroll += delta
	if limit := m.maxListScroll(); m.listScroll > limit {
		m.listScroll = limit
	}
	if m.listScroll < 0 {
		m.listScroll = 0
	}
}

func (m Model) maxListScroll() int {
	total := len(m.list.Lines(m.listWidth()))
	visible := m.listVisibleLines()
	if total <= visible {
		return 0
	}
	return total - visible
}

func (m Model) listVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + playback(1) + dividers(2) + title(1) + alert(1) + footer(1)
	reserved := 8
	return max(3, m.height-reserved)
}

func (m Model) listWidth() int {
	if m.width == 0 {
		return 80
	}
	return m.width
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderStatusBar(),
		m.renderPlayback(),
		ui.Divider(m.width),
		m.renderList(),
		ui.Divider(m.width),
	}
	if m.panel.alert != "" {
		sections = append(sections, m.renderAlert())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	header := ui.TitleStyle.Render("VOICEBOX")
	if m.serverURL != "" {
		header += ui.DimStyle.Render(" · " + m.serverURL)
	}
	if m.deviceName != "" {
		header += ui.DimStyle.Render(" · " + m.deviceName)
	}
	return header
}

func (m Model) renderStatusBar() string {
	var dot string
	if m.panel.indicator {
		dot = ui.RecordingDotStyle.Render("● REC")
	} else {
		dot = ui.IdleDotStyle.Render("○ IDLE")
	}

	line := dot + "  " + ui.StatusStyle.Render(m.panel.status)
	if m.panel.loading {
		line += "  " + m.spinner.View() + ui.DimStyle.Render(" Transcribing...")
	}
	return line
}

func (m Model) renderPlayback() string {
	if !m.panel.playbackVisible || m.panel.playbackURL == "" {
		return ""
	}
	label := ui.PlaybackStyle.Render("▶ Playback ")
	return label + ui.DimStyle.Render(ui.Truncate(m.panel.playbackURL, max(10, m.width-11)))
}

func (m Model) renderList() string {
	title := ui.PanelTitleStyle.Render(fmt.Sprintf("TRANSCRIPTIONS (%d)", m.list.Len()))
	if m.listScroll > 0 {
		title += ui.ScrollBadgeStyle.Render(fmt.Sprintf(" +%d", m.listScroll))
	}

	all := m.list.Lines(m.listWidth())
	visible := m.listVisibleLines()
	start := min(m.listScroll, max(0, len(all)-visible))
	end := min(len(all), start+visible)

	lines := []string{title}
	lines = append(lines, all[start:end]...)
	for len(lines) < visible+1 {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderAlert() string {
	return ui.ErrorStyle.Render("! ") + ui.ErrorTextStyle.Render(m.panel.alert) +
		ui.DimStyle.Render("  (esc to dismiss)")
}

func (m Model) renderFooter() string {
	var parts []string

	if m.recorder.State() == recorder.StateRecording {
		parts = append(parts, footerKey("Space", "Stop", m.panel.stopEnabled))
	} else {
		parts = append(parts, footerKey("Space", "Record", m.panel.recordEnabled))
	}
	parts = append(parts, footerKey("u", "Upload", m.panel.uploadEnabled))
	parts = append(parts, footerKey("j/k", "Scroll", m.list.Len() > 0))
	parts = append(parts, footerKey("q", "Quit", true))

	return strings.Join(parts, "  ")
}

func footerKey(key, desc string, enabled bool) string {
	if !enabled {
		return ui.DisabledKeyStyle.Render(key + " " + desc)
	}
	return ui.FooterKeyStyle.Render(key) + ui.FooterDescStyle.Render(" "+desc)
}
