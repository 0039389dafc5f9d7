package views

import (
	"fmt"
	"strings"

	"mindcare/internal/router"
	"mindcare/internal/ui"
)

func (v *Views) renderDashboard(path string, params router.Params) error {
	stats := v.agenda.GetStats()

	var counters strings.Builder
	counters.WriteString(ui.Field("Pacientes", fmt.Sprintf("%d", len(v.patients.GetAll()))))
	counters.WriteString(ui.Field("Sesiones", fmt.Sprintf("%d", len(v.sessions.GetAll()))))
	counters.WriteString(ui.Field("Citas hoy", fmt.Sprintf("%d", stats.Hoy)))
	counters.WriteString(ui.Field("Esta semana", fmt.Sprintf("%d", stats.Semana)))
	counters.WriteString(ui.Field("Este mes", fmt.Sprintf("%d", stats.Mes)))
	counters.WriteString(ui.Field("Pendientes", fmt.Sprintf("%d", stats.Pendientes)))

	var today strings.Builder
	appointments := v.agenda.Today()
	if len(appointments) == 0 {
		today.WriteString(ui.EmptyState("No hay citas para hoy"))
	} else {
		today.WriteString("<ul class=\"list\">")
		for _, appointment := range appointments {
			name := v.patientName(appointment.PacienteID)
			today.WriteString(ui.ListItem(
				fmt.Sprintf("/pacientes/%d", appointment.PacienteID),
				fmt.Sprintf("%s — %s", appointment.Hora, name),
				string(appointment.Estado),
			))
		}
		today.WriteString("</ul>")
	}

	v.present(Page{
		Path:   path,
		Title:  "Dashboard",
		Markup: ui.Card("Resumen", counters.String()) + ui.Card("Citas de hoy", today.String()),
	})
	return nil
}

func (v *Views) patientName(patientID int64) string {
	patient, err := v.patients.GetByID(patientID)
	if err != nil {
		return fmt.Sprintf("Paciente %d", patientID)
	}
	return patient.Nombre
}
