package sessions

import (
	"encoding/json"
	"log/slog"
	"time"

	"mindcare/internal/faults"
	"mindcare/internal/logging"
	"mindcare/internal/storage"
)

// Manager owns the global session list and its persistence side-channel.
// It is not safe for concurrent use; callers serialize access.
type Manager struct {
	bridge   storage.Bridge
	logger   *slog.Logger
	sessions []*Session
}

// NewManager loads the collection from the bridge. Load failures are logged
// and the collection falls back to the built-in seed list.
func NewManager(bridge storage.Bridge, logger *slog.Logger) *Manager {
	m := &Manager{
		bridge: bridge,
		logger: logging.NewComponentLogger(logger, "sessions"),
	}
	m.loadFromStorage()
	return m
}

// Reload re-reads the list from the bridge, discarding in-memory state.
func (m *Manager) Reload() {
	m.loadFromStorage()
}

// GetAll returns the full global list as a live reference.
func (m *Manager) GetAll() []*Session {
	return m.sessions
}

// ByPatient returns the sessions referencing the given patient, in global
// order.
func (m *Manager) ByPatient(patientID int64) []*Session {
	var matches []*Session
	for _, session := range m.sessions {
		if session.PacienteID == patientID {
			matches = append(matches, session)
		}
	}
	return matches
}

// ByIndex returns the session at a global index. Indices are ephemeral: they
// are only valid until the next structural mutation of the list.
func (m *Manager) ByIndex(index int) (*Session, error) {
	if index < 0 || index >= len(m.sessions) {
		return nil, faults.NotFound("sesión en índice %d no encontrada", index)
	}
	return m.sessions[index], nil
}

// ByID resolves a session by its stable identifier.
func (m *Manager) ByID(id int64) (*Session, error) {
	for _, session := range m.sessions {
		if session.ID == id {
			return session, nil
		}
	}
	return nil, faults.NotFound("sesión con ID %d no encontrada", id)
}

// GlobalIndex returns the position of the session in the global list, -1 when
// absent. Comparison is by identity.
func (m *Manager) GlobalIndex(session *Session) int {
	for i, candidate := range m.sessions {
		if candidate == session {
			return i
		}
	}
	return -1
}

// PatientSessionIndex converts a global index into the session's position
// among only that patient's sessions, by counting matching entries preceding
// the global index.
func (m *Manager) PatientSessionIndex(patientID int64, globalIndex int) int {
	count := 0
	if globalIndex < 0 {
		globalIndex = 0
	}
	if globalIndex > len(m.sessions) {
		globalIndex = len(m.sessions)
	}
	for _, session := range m.sessions[:globalIndex] {
		if session.PacienteID == patientID {
			count++
		}
	}
	return count
}

// ByPatientIndex resolves a patient-relative index to the session itself.
func (m *Manager) ByPatientIndex(patientID int64, relativeIndex int) (*Session, error) {
	matches := m.ByPatient(patientID)
	if relativeIndex < 0 || relativeIndex >= len(matches) {
		return nil, faults.NotFound("sesión %d del paciente %d no encontrada", relativeIndex, patientID)
	}
	return matches[relativeIndex], nil
}

// Create appends a new session to the global list and persists.
func (m *Manager) Create(params CreateParams) (*Session, error) {
	if params.PacienteID <= 0 {
		return nil, faults.Validation("la sesión requiere un paciente")
	}
	fecha := params.Fecha
	if fecha == "" {
		fecha = time.Now().Format("2006-01-02")
	}
	session := &Session{
		ID:            m.nextID(),
		PacienteID:    params.PacienteID,
		Fecha:         fecha,
		Notas:         params.Notas,
		Attachments:   []string{},
		Grabacion:     []Recording{},
		Enfoque:       params.Enfoque,
		Analisis:      params.Analisis,
		Resumen:       params.Resumen,
		Planificacion: params.Planificacion,
	}
	m.sessions = append(m.sessions, session)
	m.saveToStorage()
	return session, nil
}

// Update applies a partial patch and persists. Nested structures such as the
// SOAP note are patched through UpdateSOAP, never merged here.
func (m *Manager) Update(id int64, patch Patch) (*Session, error) {
	session, err := m.ByID(id)
	if err != nil {
		return nil, err
	}
	patch.apply(session)
	m.saveToStorage()
	return session, nil
}

// UpdateSOAP patches the structured note, creating it on first edit.
func (m *Manager) UpdateSOAP(id int64, patch SOAPPatch) (*Session, error) {
	session, err := m.ByID(id)
	if err != nil {
		return nil, err
	}
	if session.SOAP == nil {
		session.SOAP = &SOAP{}
	}
	patch.apply(session.SOAP)
	m.saveToStorage()
	return session, nil
}

// AddAttachment appends an attachment reference and persists.
func (m *Manager) AddAttachment(id int64, attachment string) (*Session, error) {
	session, err := m.ByID(id)
	if err != nil {
		return nil, err
	}
	session.Attachments = append(session.Attachments, attachment)
	m.saveToStorage()
	return session, nil
}

// Delete removes a session by identifier. The list is left unchanged when the
// identifier does not resolve.
func (m *Manager) Delete(id int64) error {
	for i, session := range m.sessions {
		if session.ID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			m.saveToStorage()
			return nil
		}
	}
	return faults.NotFound("sesión con ID %d no encontrada", id)
}

// Save persists the current collection. Exposed for collaborators that
// mutate recordings in place.
func (m *Manager) Save() {
	m.saveToStorage()
}

func (m *Manager) nextID() int64 {
	var max int64
	for _, session := range m.sessions {
		if session.ID > max {
			max = session.ID
		}
	}
	return max + 1
}

func (m *Manager) saveToStorage() {
	payload, err := json.Marshal(m.sessions)
	if err != nil {
		m.logger.Error("marshal sessions", logging.Error(err))
		return
	}
	if err := m.bridge.Set(storage.KeySessions, payload); err != nil {
		m.logger.Error("save sessions", logging.Error(err))
	}
}

func (m *Manager) loadFromStorage() {
	data, ok, err := m.bridge.Get(storage.KeySessions)
	if err != nil {
		m.logger.Error("load sessions", logging.Error(err))
		m.sessions = seedSessions()
		return
	}
	if !ok {
		m.sessions = seedSessions()
		m.saveToStorage()
		return
	}

	var loaded []*Session
	if err := json.Unmarshal(data, &loaded); err != nil {
		m.logger.Error("parse sessions snapshot", logging.Error(err))
		m.sessions = seedSessions()
		return
	}
	m.sessions = normalize(loaded)
}

// normalize backfills fields missing from legacy snapshots: identifiers
// (older snapshots identified sessions by list position) and empty list
// fields.
func normalize(loaded []*Session) []*Session {
	var max int64
	for _, session := range loaded {
		if session.ID > max {
			max = session.ID
		}
	}
	for _, session := range loaded {
		if session.ID == 0 {
			max++
			session.ID = max
		}
		if session.Attachments == nil {
			session.Attachments = []string{}
		}
		if session.Grabacion == nil {
			session.Grabacion = []Recording{}
		}
	}
	return loaded
}

func seedSessions() []*Session {
	return normalize([]*Session{
		{
			ID:         1,
			PacienteID: 1,
			Fecha:      "2025-10-11",
			Notas:      "Primera sesión, evaluación inicial.",
		},
		{
			ID:         2,
			PacienteID: 2,
			Fecha:      "2025-10-15",
			Notas:      "Plan de intervención inicial.",
		},
	})
}
