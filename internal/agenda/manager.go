package agenda

import (
	"encoding/json"
	"log/slog"
	"time"

	"mindcare/internal/faults"
	"mindcare/internal/logging"
	"mindcare/internal/storage"
)

const dateLayout = "2006-01-02"

// Manager owns the appointment list and its persistence side-channel.
// It is not safe for concurrent use; callers serialize access.
type Manager struct {
	bridge       storage.Bridge
	logger       *slog.Logger
	appointments []*Appointment

	// now is the clock used by Today/ThisWeek/ThisMonth; overridable in tests.
	now func() time.Time
}

// NewManager loads the collection from the bridge. Load failures are logged
// and the collection falls back to the built-in seed list.
func NewManager(bridge storage.Bridge, logger *slog.Logger) *Manager {
	m := &Manager{
		bridge: bridge,
		logger: logging.NewComponentLogger(logger, "agenda"),
		now:    time.Now,
	}
	m.loadFromStorage()
	return m
}

// WithClock overrides the manager clock, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Reload re-reads the collection from the bridge, discarding in-memory state.
func (m *Manager) Reload() {
	m.loadFromStorage()
}

// GetAll returns the full collection as a live reference.
func (m *Manager) GetAll() []*Appointment {
	return m.appointments
}

// ByID resolves an appointment by its stable identifier.
func (m *Manager) ByID(id int64) (*Appointment, error) {
	for _, appointment := range m.appointments {
		if appointment.ID == id {
			return appointment, nil
		}
	}
	return nil, faults.NotFound("cita con ID %d no encontrada", id)
}

// ByDate returns appointments on an ISO date.
func (m *Manager) ByDate(date string) []*Appointment {
	var matches []*Appointment
	for _, appointment := range m.appointments {
		if appointment.Fecha == date {
			matches = append(matches, appointment)
		}
	}
	return matches
}

// ByPatient returns appointments for a patient.
func (m *Manager) ByPatient(patientID int64) []*Appointment {
	var matches []*Appointment
	for _, appointment := range m.appointments {
		if appointment.PacienteID == patientID {
			matches = append(matches, appointment)
		}
	}
	return matches
}

// ByStatus returns appointments with the given status.
func (m *Manager) ByStatus(status Status) []*Appointment {
	var matches []*Appointment
	for _, appointment := range m.appointments {
		if appointment.Estado == status {
			matches = append(matches, appointment)
		}
	}
	return matches
}

// Today returns appointments on the current local date.
func (m *Manager) Today() []*Appointment {
	return m.ByDate(m.now().Format(dateLayout))
}

// ThisWeek returns appointments inside the current local week, starting on
// Sunday.
func (m *Manager) ThisWeek() []*Appointment {
	today := m.now()
	weekStart := time.Date(today.Year(), today.Month(), today.Day()-int(today.Weekday()), 0, 0, 0, 0, today.Location())
	weekEnd := weekStart.AddDate(0, 0, 7)

	var matches []*Appointment
	for _, appointment := range m.appointments {
		date, err := time.ParseInLocation(dateLayout, appointment.Fecha, today.Location())
		if err != nil {
			continue
		}
		if !date.Before(weekStart) && date.Before(weekEnd) {
			matches = append(matches, appointment)
		}
	}
	return matches
}

// ThisMonth returns appointments inside the current local month.
func (m *Manager) ThisMonth() []*Appointment {
	today := m.now()
	var matches []*Appointment
	for _, appointment := range m.appointments {
		date, err := time.ParseInLocation(dateLayout, appointment.Fecha, today.Location())
		if err != nil {
			continue
		}
		if date.Month() == today.Month() && date.Year() == today.Year() {
			matches = append(matches, appointment)
		}
	}
	return matches
}

// Create validates required fields, appends the appointment, and persists.
func (m *Manager) Create(params CreateParams) (*Appointment, error) {
	if params.PacienteID <= 0 {
		return nil, faults.Validation("la cita requiere un paciente")
	}
	if params.Fecha == "" || params.Hora == "" {
		return nil, faults.Validation("la cita requiere fecha y hora")
	}
	estado := params.Estado
	if estado == "" {
		estado = StatusPendiente
	}
	if !ValidStatus(estado) {
		return nil, faults.Validation("estado de cita desconocido: %q", estado)
	}

	appointment := &Appointment{
		ID:         m.nextID(),
		PacienteID: params.PacienteID,
		Fecha:      params.Fecha,
		Hora:       params.Hora,
		Estado:     estado,
	}
	m.appointments = append(m.appointments, appointment)
	m.saveToStorage()
	return appointment, nil
}

// Update applies a partial patch and persists.
func (m *Manager) Update(id int64, patch Patch) (*Appointment, error) {
	appointment, err := m.ByID(id)
	if err != nil {
		return nil, err
	}
	if patch.Estado != nil && !ValidStatus(*patch.Estado) {
		return nil, faults.Validation("estado de cita desconocido: %q", *patch.Estado)
	}
	patch.apply(appointment)
	m.saveToStorage()
	return appointment, nil
}

// UpdateStatus transitions an appointment to a new status.
func (m *Manager) UpdateStatus(id int64, status Status) (*Appointment, error) {
	return m.Update(id, Patch{Estado: &status})
}

// Delete removes an appointment. The collection is left unchanged when the
// identifier does not resolve.
func (m *Manager) Delete(id int64) error {
	for i, appointment := range m.appointments {
		if appointment.ID == id {
			m.appointments = append(m.appointments[:i], m.appointments[i+1:]...)
			m.saveToStorage()
			return nil
		}
	}
	return faults.NotFound("cita con ID %d no encontrada", id)
}

// GetStats aggregates counts per status and per period.
func (m *Manager) GetStats() Stats {
	return Stats{
		Total:       len(m.appointments),
		Pendientes:  len(m.ByStatus(StatusPendiente)),
		Confirmadas: len(m.ByStatus(StatusConfirmada)),
		Finalizadas: len(m.ByStatus(StatusFinalizada)),
		Anuladas:    len(m.ByStatus(StatusAnulada)),
		Hoy:         len(m.Today()),
		Semana:      len(m.ThisWeek()),
		Mes:         len(m.ThisMonth()),
	}
}

func (m *Manager) nextID() int64 {
	var max int64
	for _, appointment := range m.appointments {
		if appointment.ID > max {
			max = appointment.ID
		}
	}
	return max + 1
}

func (m *Manager) saveToStorage() {
	payload, err := json.Marshal(m.appointments)
	if err != nil {
		m.logger.Error("marshal agenda", logging.Error(err))
		return
	}
	if err := m.bridge.Set(storage.KeyAgenda, payload); err != nil {
		m.logger.Error("save agenda", logging.Error(err))
	}
}

func (m *Manager) loadFromStorage() {
	data, ok, err := m.bridge.Get(storage.KeyAgenda)
	if err != nil {
		m.logger.Error("load agenda", logging.Error(err))
		m.appointments = seedAppointments()
		return
	}
	if !ok {
		m.appointments = seedAppointments()
		m.saveToStorage()
		return
	}

	var loaded []*Appointment
	if err := json.Unmarshal(data, &loaded); err != nil {
		m.logger.Error("parse agenda snapshot", logging.Error(err))
		m.appointments = seedAppointments()
		return
	}
	m.appointments = normalize(loaded)
}

// normalize backfills identifiers missing from legacy index-identified
// snapshots and defaults unknown statuses to Pendiente.
func normalize(loaded []*Appointment) []*Appointment {
	var max int64
	for _, appointment := range loaded {
		if appointment.ID > max {
			max = appointment.ID
		}
	}
	for _, appointment := range loaded {
		if appointment.ID == 0 {
			max++
			appointment.ID = max
		}
		if !ValidStatus(appointment.Estado) {
			appointment.Estado = StatusPendiente
		}
	}
	return loaded
}

func seedAppointments() []*Appointment {
	return normalize([]*Appointment{
		{ID: 1, PacienteID: 1, Fecha: "2025-11-19", Hora: "10:00", Estado: StatusConfirmada},
		{ID: 2, PacienteID: 2, Fecha: "2025-11-19", Hora: "12:00", Estado: StatusPendiente},
	})
}
