package patients

import (
	"encoding/json"
	"log/slog"
	"time"

	"mindcare/internal/faults"
	"mindcare/internal/logging"
	"mindcare/internal/storage"
)

// Manager owns the patient collection and its persistence side-channel.
type Manager struct {
	bridge   storage.Bridge
	logger   *slog.Logger
	patients []*Patient
}

// NewManager loads the collection from the bridge. Load failures are logged
// and the collection falls back to the built-in seed roster.
func NewManager(bridge storage.Bridge, logger *slog.Logger) *Manager {
	m := &Manager{
		bridge: bridge,
		logger: logging.NewComponentLogger(logger, "patients"),
	}
	m.loadFromStorage()
	return m
}

// Reload re-reads the collection from the bridge, discarding in-memory
// state. Used after external writes through the document API.
func (m *Manager) Reload() {
	m.loadFromStorage()
}

// GetAll returns the full collection as a live reference; callers must not
// assume immutability.
func (m *Manager) GetAll() []*Patient {
	return m.patients
}

// GetByID resolves a patient by identifier.
func (m *Manager) GetByID(id int64) (*Patient, error) {
	for _, patient := range m.patients {
		if patient.ID == id {
			return patient, nil
		}
	}
	return nil, faults.NotFound("paciente con ID %d no encontrado", id)
}

// Create builds a new patient from the given fields, assigns the next
// identifier, appends it to the collection, and persists.
func (m *Manager) Create(params CreateParams) (*Patient, error) {
	patient := &Patient{
		ID:           m.nextID(),
		Nombre:       params.Nombre,
		Edad:         params.Edad,
		Motivo:       params.Motivo,
		Contacto:     params.Contacto,
		Direccion:    params.Direccion,
		Antecedentes: params.Antecedentes,
	}
	m.patients = append(m.patients, patient)
	m.saveToStorage()
	return patient, nil
}

// Update applies a partial patch to an existing patient and persists.
func (m *Manager) Update(id int64, patch Patch) (*Patient, error) {
	patient, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	patch.apply(patient)
	m.saveToStorage()
	return patient, nil
}

// Delete removes a patient. The collection is left unchanged when the
// identifier does not resolve.
func (m *Manager) Delete(id int64) error {
	for i, patient := range m.patients {
		if patient.ID == id {
			m.patients = append(m.patients[:i], m.patients[i+1:]...)
			m.saveToStorage()
			return nil
		}
	}
	return faults.NotFound("paciente con ID %d no encontrado", id)
}

// SetConsent records a new active consent for the patient. Any previous
// active consent moves to the history log.
func (m *Manager) SetConsent(patientID int64, consent Consent) (*Patient, error) {
	patient, err := m.GetByID(patientID)
	if err != nil {
		return nil, err
	}
	if consent.Tipo == "" {
		consent.Tipo = DefaultConsentType
	}
	if consent.Fecha.IsZero() {
		consent.Fecha = time.Now().UTC()
	}
	if patient.Consent != nil {
		patient.ConsentHistory = append(patient.ConsentHistory, *patient.Consent)
	}
	patient.Consent = &consent
	m.saveToStorage()
	return patient, nil
}

// HasRecordingAuthorization reports whether the patient's active consent
// carries a signed file and authorizes recording.
func (m *Manager) HasRecordingAuthorization(patientID int64) bool {
	patient, err := m.GetByID(patientID)
	if err != nil || patient.Consent == nil {
		return false
	}
	return patient.Consent.File != "" && patient.Consent.GrabacionAutorizada
}

// SaveGenogram stores rendered genogram markup on the patient.
func (m *Manager) SaveGenogram(patientID int64, genogramHTML string) (*Patient, error) {
	patient, err := m.GetByID(patientID)
	if err != nil {
		return nil, err
	}
	patient.GenogramaHTML = genogramHTML
	m.saveToStorage()
	return patient, nil
}

func (m *Manager) nextID() int64 {
	var max int64
	for _, patient := range m.patients {
		if patient.ID > max {
			max = patient.ID
		}
	}
	return max + 1
}

func (m *Manager) saveToStorage() {
	payload, err := json.Marshal(m.patients)
	if err != nil {
		m.logger.Error("marshal patients", logging.Error(err))
		return
	}
	if err := m.bridge.Set(storage.KeyPatients, payload); err != nil {
		m.logger.Error("save patients", logging.Error(err))
	}
}

// patientRecord tolerates legacy snapshots that carried an append-only
// consents array instead of the single active consent.
type patientRecord struct {
	Patient
	LegacyConsents []Consent `json:"consents,omitempty"`
}

func (m *Manager) loadFromStorage() {
	data, ok, err := m.bridge.Get(storage.KeyPatients)
	if err != nil {
		m.logger.Error("load patients", logging.Error(err))
		m.patients = seedPatients()
		return
	}
	if !ok {
		// First run: persist the seed roster so the document API sees it.
		m.patients = seedPatients()
		m.saveToStorage()
		return
	}

	var records []*patientRecord
	if err := json.Unmarshal(data, &records); err != nil {
		m.logger.Error("parse patients snapshot", logging.Error(err))
		m.patients = seedPatients()
		return
	}

	m.patients = make([]*Patient, 0, len(records))
	for _, record := range records {
		patient := record.Patient
		if patient.Consent == nil && len(record.LegacyConsents) > 0 {
			last := record.LegacyConsents[len(record.LegacyConsents)-1]
			patient.Consent = &last
			patient.ConsentHistory = record.LegacyConsents[:len(record.LegacyConsents)-1]
		}
		m.patients = append(m.patients, &patient)
	}
}

func seedPatients() []*Patient {
	return []*Patient{
		{
			ID:           1,
			Nombre:       "Juan Pérez",
			Edad:         32,
			Motivo:       "Ansiedad",
			Contacto:     "juan@example.com",
			Direccion:    "Calle Falsa 123",
			Antecedentes: "No alergias. Antecedentes familiares de ansiedad.",
		},
		{
			ID:           2,
			Nombre:       "María López",
			Edad:         27,
			Motivo:       "Depresión",
			Contacto:     "maria@example.com",
			Direccion:    "Av. Siempreviva 742",
			Antecedentes: "Tratamiento previo con ISRS.",
		},
		{
			ID:           3,
			Nombre:       "Carlos Ruiz",
			Edad:         45,
			Motivo:       "Estrés laboral",
			Contacto:     "carlos@example.com",
			Direccion:    "Paseo del Prado 10",
			Antecedentes: "Hipertensión controlada.",
		},
	}
}
