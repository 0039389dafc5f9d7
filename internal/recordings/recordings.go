// Package recordings manages session audio captures: attachment to sessions,
// PIN-gated deletion, and transcription polling.
package recordings

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindcare/internal/faults"
	"mindcare/internal/logging"
	"mindcare/internal/sessions"
	"mindcare/internal/transcriber"
)

// ProcessedFetcher retrieves the server-side processing state of a patient's
// recording. Implemented by the transcription processor locally and by an
// HTTP client when the daemon runs elsewhere.
type ProcessedFetcher interface {
	FetchProcessed(ctx context.Context, patientID int64) (Processed, error)
}

// Processed mirrors the polled payload: the processing stage, the flat text,
// and the diarized segments once available. When segments are present the
// applied transcript is rendered from them; Text is the fallback.
type Processed struct {
	Stage    string
	Text     string
	Segments []transcriber.Segment
}

// ProcessorFetcher adapts the local transcription processor to the poll
// fetcher interface.
type ProcessorFetcher struct {
	Processor *transcriber.Processor
}

func (f ProcessorFetcher) FetchProcessed(ctx context.Context, patientID int64) (Processed, error) {
	payload, err := f.Processor.Load(patientID)
	if err != nil {
		return Processed{}, err
	}
	return Processed{
		Stage:    payload.Stage,
		Text:     payload.Text,
		Segments: payload.DecodeSegments(),
	}, nil
}

// Processing stages reported by the server.
const (
	StageProcessing = "processing"
	StageDone       = "done"
	StageError      = "error"
)

// Manager layers recording operations over the session list. Mutations go
// through the session manager's persistence side-channel. dir is where
// recording files live; it backs CheckExists.
type Manager struct {
	sessions *sessions.Manager
	logger   *slog.Logger
	pin      string
	dir      string
	poller   *Poller

	// guard, when set, serializes the asynchronous poll callbacks with the
	// owner's other session writers. Synchronous methods stay unguarded; the
	// caller already serializes those.
	guard sync.Locker

	now func() time.Time
}

// NewManager builds a recording manager. pin is the configured deletion PIN
// (empty means deletion is not gated); dir is the recordings directory.
func NewManager(sessionManager *sessions.Manager, poller *Poller, pin, dir string, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: sessionManager,
		logger:   logging.NewComponentLogger(logger, "recordings"),
		pin:      pin,
		dir:      dir,
		poller:   poller,
		now:      time.Now,
	}
}

// WithClock overrides the manager clock, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// WithGuard sets the lock taken around poll-driven session mutations.
func (m *Manager) WithGuard(guard sync.Locker) *Manager {
	m.guard = guard
	return m
}

func (m *Manager) lockGuard() {
	if m.guard != nil {
		m.guard.Lock()
	}
}

func (m *Manager) unlockGuard() {
	if m.guard != nil {
		m.guard.Unlock()
	}
}

// AddParams carries caller-supplied fields for AddRecording.
type AddParams struct {
	// Audio is the payload reference: a data URL or a server path.
	Audio string
	// Duracion is the capture length in seconds.
	Duracion int
	// Remote marks payloads stored server-side rather than inline.
	Remote bool
}

// FileName is the canonical stored name of a patient's recording file.
func FileName(patientID int64, ext string) string {
	return "recording-" + strconv.FormatInt(patientID, 10) + ext
}

// CheckExists reports the stored recording filename for a patient, if one
// exists under the recordings directory. One recording per patient, any
// extension.
func (m *Manager) CheckExists(patientID int64) (string, bool) {
	pattern := filepath.Join(m.dir, FileName(patientID, ".*"))
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return filepath.Base(matches[0]), true
}

// AttachToPatient appends the capture to the patient's most recent session,
// creating a session dated today when the patient has none yet.
func (m *Manager) AttachToPatient(patientID int64, params AddParams) (*sessions.Recording, error) {
	list := m.sessions.ByPatient(patientID)
	var target *sessions.Session
	if len(list) > 0 {
		target = list[len(list)-1]
	} else {
		created, err := m.sessions.Create(sessions.CreateParams{
			PacienteID: patientID,
			Fecha:      m.now().Format("2006-01-02"),
		})
		if err != nil {
			return nil, err
		}
		target = created
	}
	return m.AddRecording(target.ID, params)
}

// AddRecording appends a capture to the session's recording list and
// persists. The recording gets a generated identifier and the current
// timestamp.
func (m *Manager) AddRecording(sessionID int64, params AddParams) (*sessions.Recording, error) {
	if params.Audio == "" {
		return nil, faults.Validation("la grabación requiere audio")
	}
	session, err := m.sessions.ByID(sessionID)
	if err != nil {
		return nil, err
	}
	recording := sessions.Recording{
		ID:       uuid.NewString(),
		Fecha:    m.now().UTC(),
		Audio:    params.Audio,
		Duracion: params.Duracion,
		Remote:   params.Remote,
	}
	session.Grabacion = append(session.Grabacion, recording)
	m.sessions.Save()
	return &session.Grabacion[len(session.Grabacion)-1], nil
}

// Patch is a partial update of a recording's processing state.
type Patch struct {
	Processing    *bool
	Transcripcion *string
}

// UpdateRecording applies a patch to one recording of a session.
func (m *Manager) UpdateRecording(sessionID int64, recordingID string, patch Patch) (*sessions.Recording, error) {
	recording, err := m.find(sessionID, recordingID)
	if err != nil {
		return nil, err
	}
	if patch.Processing != nil {
		recording.Processing = *patch.Processing
	}
	if patch.Transcripcion != nil {
		recording.Transcripcion = *patch.Transcripcion
	}
	m.sessions.Save()
	return recording, nil
}

// DeleteRecordings clears the session's recording list. When a PIN is
// configured the supplied pin must match; a mismatch aborts with an
// authorization error and the list is left unchanged. Any transcription poll
// for the session's patient is stopped.
func (m *Manager) DeleteRecordings(sessionID int64, pin string) error {
	if err := m.CheckPIN(pin); err != nil {
		return err
	}
	session, err := m.sessions.ByID(sessionID)
	if err != nil {
		return err
	}
	if m.poller != nil {
		m.poller.Stop(session.PacienteID)
	}
	session.Grabacion = []sessions.Recording{}
	m.sessions.Save()
	return nil
}

// DeleteForPatient clears every recording attached to the patient's sessions,
// PIN-gated the same way DeleteRecordings is. Any active transcription poll
// for the patient is stopped.
func (m *Manager) DeleteForPatient(patientID int64, pin string) error {
	if err := m.CheckPIN(pin); err != nil {
		return err
	}
	if m.poller != nil {
		m.poller.Stop(patientID)
	}
	for _, session := range m.sessions.ByPatient(patientID) {
		session.Grabacion = []sessions.Recording{}
	}
	m.sessions.Save()
	return nil
}

// CheckPIN validates a submitted PIN against the configured one. With no PIN
// configured every submission passes.
func (m *Manager) CheckPIN(pin string) error {
	if m.pin == "" {
		return nil
	}
	if pin != m.pin {
		return faults.Authorization("PIN incorrecto")
	}
	return nil
}

// StartTranscriptionPoll marks the session's recording as processing and
// polls the fetcher until the transcription is ready, attempts run out, or
// the returned token is stopped. Starting while a poll is already active for
// the same patient returns the existing token.
func (m *Manager) StartTranscriptionPoll(ctx context.Context, sessionID int64, recordingID string, fetcher ProcessedFetcher) (*Token, error) {
	session, err := m.sessions.ByID(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := m.find(sessionID, recordingID); err != nil {
		return nil, err
	}

	processing := true
	if _, err := m.UpdateRecording(sessionID, recordingID, Patch{Processing: &processing}); err != nil {
		return nil, err
	}

	patientID := session.PacienteID
	token, started := m.poller.Start(ctx, patientID, func(ctx context.Context) (bool, error) {
		processed, err := fetcher.FetchProcessed(ctx, patientID)
		if err != nil {
			if faults.Is(err, faults.KindNotFound) {
				return false, nil // not ready yet
			}
			return false, err
		}
		switch processed.Stage {
		case StageDone:
			text := processed.Text
			if len(processed.Segments) > 0 {
				text = ExtractProcessedText(processed.Segments)
			}
			m.applyTranscription(sessionID, recordingID, text)
			return true, nil
		case StageError:
			m.clearProcessing(sessionID, recordingID)
			return true, nil
		default:
			return false, nil
		}
	})
	if !started {
		m.logger.Debug("transcription poll already active",
			logging.Int64("patient_id", patientID))
	}
	return token, nil
}

// StartPatientPoll locates the patient's most recent capture and polls the
// fetcher until its transcription is ready.
func (m *Manager) StartPatientPoll(ctx context.Context, patientID int64, fetcher ProcessedFetcher) (*Token, error) {
	sessionID, recordingID, err := m.latestRecording(patientID)
	if err != nil {
		return nil, err
	}
	return m.StartTranscriptionPoll(ctx, sessionID, recordingID, fetcher)
}

func (m *Manager) latestRecording(patientID int64) (int64, string, error) {
	list := m.sessions.ByPatient(patientID)
	for i := len(list) - 1; i >= 0; i-- {
		if n := len(list[i].Grabacion); n > 0 {
			return list[i].ID, list[i].Grabacion[n-1].ID, nil
		}
	}
	return 0, "", faults.NotFound("el paciente %d no tiene grabaciones", patientID)
}

// applyTranscription and clearProcessing run on the poll goroutine, so they
// take the guard before touching the session list.

func (m *Manager) applyTranscription(sessionID int64, recordingID, text string) {
	m.lockGuard()
	defer m.unlockGuard()
	done := false
	if _, err := m.UpdateRecording(sessionID, recordingID, Patch{Processing: &done, Transcripcion: &text}); err != nil {
		m.logger.Error("apply transcription", logging.Error(err))
	}
}

func (m *Manager) clearProcessing(sessionID int64, recordingID string) {
	m.lockGuard()
	defer m.unlockGuard()
	done := false
	if _, err := m.UpdateRecording(sessionID, recordingID, Patch{Processing: &done}); err != nil {
		m.logger.Error("clear processing flag", logging.Error(err))
	}
}

func (m *Manager) find(sessionID int64, recordingID string) (*sessions.Recording, error) {
	session, err := m.sessions.ByID(sessionID)
	if err != nil {
		return nil, err
	}
	for i := range session.Grabacion {
		if session.Grabacion[i].ID == recordingID {
			return &session.Grabacion[i], nil
		}
	}
	return nil, faults.NotFound("grabación %s no encontrada en la sesión %d", recordingID, sessionID)
}
