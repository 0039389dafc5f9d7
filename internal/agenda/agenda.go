// Package agenda manages appointment scheduling.
package agenda

// Status enumerates the appointment lifecycle.
type Status string

const (
	StatusPendiente  Status = "Pendiente"
	StatusConfirmada Status = "Confirmada"
	StatusFinalizada Status = "Finalizada"
	StatusAnulada    Status = "Anulada"
)

var allStatuses = []Status{StatusPendiente, StatusConfirmada, StatusFinalizada, StatusAnulada}

// ValidStatus reports whether value is a known appointment status.
func ValidStatus(value Status) bool {
	for _, status := range allStatuses {
		if status == value {
			return true
		}
	}
	return false
}

// Appointment is a scheduled encounter with a patient. Fecha is an ISO date
// (YYYY-MM-DD) and Hora a 24h clock time (HH:MM).
type Appointment struct {
	ID         int64  `json:"id"`
	PacienteID int64  `json:"pacienteId"`
	Fecha      string `json:"fecha"`
	Hora       string `json:"hora"`
	Estado     Status `json:"estado"`
}

// CreateParams carries caller-supplied fields for Create. Estado defaults to
// Pendiente.
type CreateParams struct {
	PacienteID int64
	Fecha      string
	Hora       string
	Estado     Status
}

// Patch is a partial update; nil fields leave the appointment unchanged.
type Patch struct {
	PacienteID *int64
	Fecha      *string
	Hora       *string
	Estado     *Status
}

func (p Patch) apply(appointment *Appointment) {
	if p.PacienteID != nil {
		appointment.PacienteID = *p.PacienteID
	}
	if p.Fecha != nil {
		appointment.Fecha = *p.Fecha
	}
	if p.Hora != nil {
		appointment.Hora = *p.Hora
	}
	if p.Estado != nil {
		appointment.Estado = *p.Estado
	}
}

// Stats aggregates appointment counts for the dashboard and CLI.
type Stats struct {
	Total       int `json:"total"`
	Pendientes  int `json:"pendientes"`
	Confirmadas int `json:"confirmadas"`
	Finalizadas int `json:"finalizadas"`
	Anuladas    int `json:"anuladas"`
	Hoy         int `json:"hoy"`
	Semana      int `json:"semana"`
	Mes         int `json:"mes"`
}
