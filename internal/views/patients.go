package views

import (
	"fmt"
	"strings"

	"mindcare/internal/router"
	"mindcare/internal/ui"
)

func (v *Views) renderPatientList(path string, params router.Params) error {
	roster := v.patients.SortedByName()

	var list strings.Builder
	if len(roster) == 0 {
		list.WriteString(ui.EmptyState("No hay pacientes registrados"))
	} else {
		list.WriteString("<ul class=\"list\">")
		for _, patient := range roster {
			list.WriteString(ui.ListItem(
				fmt.Sprintf("/pacientes/%d", patient.ID),
				patient.Nombre,
				patient.Motivo,
			))
		}
		list.WriteString("</ul>")
	}

	v.present(Page{
		Path:   path,
		Title:  "Pacientes",
		Markup: ui.Card("Pacientes", list.String()),
	})
	return nil
}

func (v *Views) renderPatientDetail(path string, params router.Params) error {
	id, err := parseID(params, "id")
	if err != nil {
		return v.fallbackOnNotFound(err, "/pacientes")
	}
	patient, err := v.patients.GetByID(id)
	if err != nil {
		return v.fallbackOnNotFound(err, "/pacientes")
	}

	var detail strings.Builder
	detail.WriteString(ui.Field("Nombre", patient.Nombre))
	detail.WriteString(ui.Field("Edad", fmt.Sprintf("%d", patient.Edad)))
	detail.WriteString(ui.Field("Motivo de consulta", patient.Motivo))
	detail.WriteString(ui.Field("Contacto", patient.Contacto))
	detail.WriteString(ui.Field("Dirección", patient.Direccion))
	detail.WriteString(ui.Field("Antecedentes", patient.Antecedentes))

	var consent strings.Builder
	if patient.Consent == nil {
		consent.WriteString(ui.EmptyState("Sin consentimiento registrado"))
	} else {
		consent.WriteString(ui.Field("Tipo", patient.Consent.Tipo))
		consent.WriteString(ui.Field("Documento", patient.Consent.File))
		authorized := "No"
		if patient.Consent.GrabacionAutorizada {
			authorized = "Sí"
		}
		consent.WriteString(ui.Field("Grabación autorizada", authorized))
		if n := len(patient.ConsentHistory); n > 0 {
			consent.WriteString(ui.Field("Consentimientos previos", fmt.Sprintf("%d", n)))
		}
	}

	var sessionList strings.Builder
	patientSessions := v.sessions.ByPatient(patient.ID)
	if len(patientSessions) == 0 {
		sessionList.WriteString(ui.EmptyState("Sin sesiones"))
	} else {
		sessionList.WriteString("<ul class=\"list\">")
		for i, session := range patientSessions {
			sessionList.WriteString(ui.ListItem(
				fmt.Sprintf("/pacientes/%d/sesiones/%d", patient.ID, i),
				fmt.Sprintf("Sesión %d — %s", i+1, session.Fecha),
				session.Notas,
			))
		}
		sessionList.WriteString("</ul>")
	}

	markup := ui.Card("Ficha del paciente", detail.String()) +
		ui.Card("Consentimiento", consent.String()) +
		ui.Card("Sesiones", sessionList.String())
	if patient.GenogramaHTML != "" {
		// Genogram markup is stored pre-rendered; it is not escaped here.
		markup += ui.Card("Genograma", patient.GenogramaHTML)
	}

	v.present(Page{
		Path:   path,
		Title:  patient.Nombre,
		Markup: markup,
	})
	return nil
}
