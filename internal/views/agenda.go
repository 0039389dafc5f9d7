package views

import (
	"fmt"
	"strings"

	"mindcare/internal/router"
	"mindcare/internal/ui"
)

func (v *Views) renderAgenda(path string, params router.Params) error {
	appointments := v.agenda.GetAll()

	var list strings.Builder
	if len(appointments) == 0 {
		list.WriteString(ui.EmptyState("No hay citas registradas"))
	} else {
		list.WriteString("<ul class=\"list\">")
		for _, appointment := range appointments {
			list.WriteString(ui.ListItem(
				fmt.Sprintf("/pacientes/%d", appointment.PacienteID),
				fmt.Sprintf("%s %s — %s", appointment.Fecha, appointment.Hora, v.patientName(appointment.PacienteID)),
				"",
			) + ui.Badge(string(appointment.Estado)))
		}
		list.WriteString("</ul>")
	}

	stats := v.agenda.GetStats()
	var summary strings.Builder
	summary.WriteString(ui.Field("Total", fmt.Sprintf("%d", stats.Total)))
	summary.WriteString(ui.Field("Pendientes", fmt.Sprintf("%d", stats.Pendientes)))
	summary.WriteString(ui.Field("Confirmadas", fmt.Sprintf("%d", stats.Confirmadas)))
	summary.WriteString(ui.Field("Finalizadas", fmt.Sprintf("%d", stats.Finalizadas)))
	summary.WriteString(ui.Field("Anuladas", fmt.Sprintf("%d", stats.Anuladas)))

	v.present(Page{
		Path:   path,
		Title:  "Agenda",
		Markup: ui.Card("Agenda", list.String()) + ui.Card("Resumen", summary.String()),
	})
	return nil
}
