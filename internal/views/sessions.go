package views

import (
	"fmt"
	"strings"

	"mindcare/internal/router"
	"mindcare/internal/sessions"
	"mindcare/internal/ui"
)

func (v *Views) renderSessionsList(path string, params router.Params) error {
	all := v.sessions.GetAll()

	var list strings.Builder
	if len(all) == 0 {
		list.WriteString(ui.EmptyState("No hay sesiones registradas"))
	} else {
		list.WriteString("<ul class=\"list\">")
		for globalIndex, session := range all {
			relative := v.sessions.PatientSessionIndex(session.PacienteID, globalIndex)
			list.WriteString(ui.ListItem(
				fmt.Sprintf("/pacientes/%d/sesiones/%d", session.PacienteID, relative),
				fmt.Sprintf("%s — %s", session.Fecha, v.patientName(session.PacienteID)),
				session.Notas,
			))
		}
		list.WriteString("</ul>")
	}

	v.present(Page{
		Path:   path,
		Title:  "Sesiones",
		Markup: ui.Card("Sesiones", list.String()),
	})
	return nil
}

func (v *Views) renderSessionDetail(path string, params router.Params) error {
	patientID, err := parseID(params, "id")
	if err != nil {
		return v.fallbackOnNotFound(err, "/pacientes")
	}
	index, err := parseIndex(params, "index")
	if err != nil {
		return v.fallbackOnNotFound(err, fmt.Sprintf("/pacientes/%d", patientID))
	}
	session, err := v.sessions.ByPatientIndex(patientID, index)
	if err != nil {
		return v.fallbackOnNotFound(err, fmt.Sprintf("/pacientes/%d", patientID))
	}

	var detail strings.Builder
	detail.WriteString(ui.Field("Paciente", v.patientName(patientID)))
	detail.WriteString(ui.Field("Fecha", session.Fecha))
	detail.WriteString(ui.Field("Enfoque", session.Enfoque))
	detail.WriteString(ui.Field("Notas", session.Notas))
	detail.WriteString(ui.Field("Análisis", session.Analisis))
	detail.WriteString(ui.Field("Resumen", session.Resumen))
	detail.WriteString(ui.Field("Planificación", session.Planificacion))

	markup := ui.Card(fmt.Sprintf("Sesión %d", index+1), detail.String()) +
		ui.Card("Nota SOAP", renderSOAP(session.SOAP)) +
		ui.Card("Grabaciones", renderRecordings(session.Grabacion)) +
		ui.Card("Adjuntos", renderAttachments(session.Attachments))

	v.present(Page{
		Path:   path,
		Title:  fmt.Sprintf("Sesión %d — %s", index+1, v.patientName(patientID)),
		Markup: markup,
	})
	return nil
}

func renderSOAP(soap *sessions.SOAP) string {
	if soap == nil {
		return ui.EmptyState("Sin nota SOAP")
	}
	var b strings.Builder
	b.WriteString(ui.Field("Subjetivo", soap.Subjetivo))
	b.WriteString(ui.Field("Objetivo", soap.Objetivo))
	b.WriteString(ui.Field("Análisis", soap.Analisis))
	b.WriteString(ui.Field("Plan", soap.Plan))
	return b.String()
}

func renderRecordings(recordings []sessions.Recording) string {
	if len(recordings) == 0 {
		return ui.EmptyState("Sin grabaciones")
	}
	var b strings.Builder
	b.WriteString("<ul class=\"list\">")
	for _, recording := range recordings {
		status := "Disponible"
		if recording.Processing {
			status = "Procesando"
		} else if recording.Transcripcion != "" {
			status = "Transcrita"
		}
		b.WriteString(ui.ListItem(
			recording.Audio,
			fmt.Sprintf("Grabación %s (%ds)", recording.Fecha.Format("2006-01-02 15:04"), recording.Duracion),
			status,
		))
	}
	b.WriteString("</ul>")
	return b.String()
}

func renderAttachments(attachments []string) string {
	if len(attachments) == 0 {
		return ui.EmptyState("Sin adjuntos")
	}
	var b strings.Builder
	b.WriteString("<ul class=\"list\">")
	for _, attachment := range attachments {
		b.WriteString(ui.ListItem(attachment, attachment, ""))
	}
	b.WriteString("</ul>")
	return b.String()
}
