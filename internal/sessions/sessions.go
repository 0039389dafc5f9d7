// Package sessions manages clinical session records.
//
// Sessions live in one global ordered list. Each carries a stable generated
// identifier; its position in the global list and its position among a single
// patient's sessions are derived values, recomputed on demand, and only valid
// until the next structural mutation of the list.
package sessions

import "time"

// SOAP is the structured note format: Subjective, Objective, Analysis, Plan.
// A session's SOAP note is nil until first edited.
type SOAP struct {
	Subjetivo string `json:"subjetivo"`
	Objetivo  string `json:"objetivo"`
	Analisis  string `json:"analisis"`
	Plan      string `json:"plan"`
}

// Recording is an audio capture attached to a session.
type Recording struct {
	ID            string    `json:"id,omitempty"`
	Fecha         time.Time `json:"fecha"`
	Audio         string    `json:"audio"`
	Duracion      int       `json:"duracion"`
	Remote        bool      `json:"remote,omitempty"`
	Processing    bool      `json:"processing,omitempty"`
	Transcripcion string    `json:"transcripcion,omitempty"`
}

// Session is one clinical encounter. PacienteID is a weak back-reference to
// the patient roster, not ownership.
type Session struct {
	ID            int64       `json:"id"`
	PacienteID    int64       `json:"pacienteId"`
	Fecha         string      `json:"fecha"`
	Notas         string      `json:"notas"`
	SOAP          *SOAP       `json:"soap,omitempty"`
	Attachments   []string    `json:"attachments"`
	Grabacion     []Recording `json:"grabacion"`
	Enfoque       string      `json:"enfoque"`
	Analisis      string      `json:"analisis"`
	Resumen       string      `json:"resumen"`
	Planificacion string      `json:"planificacion"`
}

// CreateParams carries caller-supplied fields for Create.
type CreateParams struct {
	PacienteID    int64
	Fecha         string
	Notas         string
	Enfoque       string
	Analisis      string
	Resumen       string
	Planificacion string
}

// Patch is a partial update; nil fields leave the session unchanged.
type Patch struct {
	Fecha         *string
	Notas         *string
	Enfoque       *string
	Analisis      *string
	Resumen       *string
	Planificacion *string
}

func (p Patch) apply(session *Session) {
	if p.Fecha != nil {
		session.Fecha = *p.Fecha
	}
	if p.Notas != nil {
		session.Notas = *p.Notas
	}
	if p.Enfoque != nil {
		session.Enfoque = *p.Enfoque
	}
	if p.Analisis != nil {
		session.Analisis = *p.Analisis
	}
	if p.Resumen != nil {
		session.Resumen = *p.Resumen
	}
	if p.Planificacion != nil {
		session.Planificacion = *p.Planificacion
	}
}

// SOAPPatch is a partial update of the structured note. Applying any
// non-empty patch to a session without a SOAP note creates one.
type SOAPPatch struct {
	Subjetivo *string
	Objetivo  *string
	Analisis  *string
	Plan      *string
}

func (p SOAPPatch) apply(soap *SOAP) {
	if p.Subjetivo != nil {
		soap.Subjetivo = *p.Subjetivo
	}
	if p.Objetivo != nil {
		soap.Objetivo = *p.Objetivo
	}
	if p.Analisis != nil {
		soap.Analisis = *p.Analisis
	}
	if p.Plan != nil {
		soap.Plan = *p.Plan
	}
}
