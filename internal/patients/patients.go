// Package patients manages the patient roster, the root entity most other
// records reference.
//
// The manager owns one ordered collection loaded from the storage bridge at
// construction and persisted whole after every mutation. It is not safe for
// concurrent use; callers (views, server) serialize access.
package patients

import (
	"time"
)

// Consent is an authorization record, optionally gating recording capability.
type Consent struct {
	Tipo                string    `json:"tipo"`
	File                string    `json:"file,omitempty"`
	GrabacionAutorizada bool      `json:"grabacionAutorizada"`
	Fecha               time.Time `json:"fecha"`
}

// DefaultConsentType is applied when a consent is recorded without a label.
const DefaultConsentType = "Consentimiento informado"

// Patient is a person receiving care.
//
// At most one consent is active at a time; earlier consents are preserved in
// an append-only history for auditability.
type Patient struct {
	ID             int64     `json:"id"`
	Nombre         string    `json:"nombre"`
	Edad           int       `json:"edad"`
	Motivo         string    `json:"motivo"`
	Contacto       string    `json:"contacto"`
	Direccion      string    `json:"direccion"`
	Antecedentes   string    `json:"antecedentes"`
	Consent        *Consent  `json:"consent,omitempty"`
	ConsentHistory []Consent `json:"consentHistory,omitempty"`
	GenogramaHTML  string    `json:"genogramaHtml,omitempty"`
}

// CreateParams carries caller-supplied fields for Create. Zero values fall
// back to the collection defaults (empty strings, no consents).
type CreateParams struct {
	Nombre       string
	Edad         int
	Motivo       string
	Contacto     string
	Direccion    string
	Antecedentes string
}

// Patch is a partial update; nil fields leave the entity unchanged, so an
// empty patch is a no-op.
type Patch struct {
	Nombre       *string
	Edad         *int
	Motivo       *string
	Contacto     *string
	Direccion    *string
	Antecedentes *string
}

func (p Patch) apply(patient *Patient) {
	if p.Nombre != nil {
		patient.Nombre = *p.Nombre
	}
	if p.Edad != nil {
		patient.Edad = *p.Edad
	}
	if p.Motivo != nil {
		patient.Motivo = *p.Motivo
	}
	if p.Contacto != nil {
		patient.Contacto = *p.Contacto
	}
	if p.Direccion != nil {
		patient.Direccion = *p.Direccion
	}
	if p.Antecedentes != nil {
		patient.Antecedentes = *p.Antecedentes
	}
}
