package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mindcare/internal/agenda"
	"mindcare/internal/config"
	"mindcare/internal/logging"
	"mindcare/internal/patients"
	"mindcare/internal/storage"
)

func newAgendaCommand(ctx *commandContext) *cobra.Command {
	agendaCmd := &cobra.Command{
		Use:   "agenda",
		Short: "Appointment scheduling utilities",
	}

	agendaCmd.AddCommand(newAgendaListCommand(ctx))
	agendaCmd.AddCommand(newAgendaAddCommand(ctx))

	return agendaCmd
}

func newAgendaListCommand(ctx *commandContext) *cobra.Command {
	var today bool
	var date string
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(func(cfg *config.Config, bridge storage.Bridge) error {
				logger := logging.NewNop()
				agendaMgr := agenda.NewManager(bridge, logger)
				patientMgr := patients.NewManager(bridge, logger)

				var list []*agenda.Appointment
				switch {
				case today:
					list = agendaMgr.Today()
				case date != "":
					list = agendaMgr.ByDate(date)
				case status != "":
					candidate := agenda.Status(status)
					if !agenda.ValidStatus(candidate) {
						return fmt.Errorf("unknown status %q", status)
					}
					list = agendaMgr.ByStatus(candidate)
				default:
					list = agendaMgr.GetAll()
				}

				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No appointments")
					return nil
				}

				rows := make([][]string, 0, len(list))
				for _, appointment := range list {
					name := fmt.Sprintf("Paciente %d", appointment.PacienteID)
					if patient, err := patientMgr.GetByID(appointment.PacienteID); err == nil {
						name = patient.Nombre
					}
					rows = append(rows, []string{
						strconv.FormatInt(appointment.ID, 10),
						name,
						appointment.Fecha,
						appointment.Hora,
						string(appointment.Estado),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderListing(
					[]listColumn{
						{title: "ID", numeric: true},
						{title: "Paciente"},
						{title: "Fecha"},
						{title: "Hora"},
						{title: "Estado"},
					},
					rows,
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&today, "hoy", false, "Only today's appointments")
	cmd.Flags().StringVar(&date, "fecha", "", "Filter by date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "estado", "", "Filter by status")
	return cmd
}

func newAgendaAddCommand(ctx *commandContext) *cobra.Command {
	var patientID int64
	var date string
	var hour string
	var status string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(func(cfg *config.Config, bridge storage.Bridge) error {
				mgr := agenda.NewManager(bridge, logging.NewNop())
				appointment, err := mgr.Create(agenda.CreateParams{
					PacienteID: patientID,
					Fecha:      date,
					Hora:       hour,
					Estado:     agenda.Status(status),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scheduled appointment %d for %s %s (%s)\n",
					appointment.ID, appointment.Fecha, appointment.Hora, appointment.Estado)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&patientID, "paciente", 0, "Patient ID")
	cmd.Flags().StringVar(&date, "fecha", "", "Appointment date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&hour, "hora", "", "Appointment time (HH:MM)")
	cmd.Flags().StringVar(&status, "estado", "", "Initial status (defaults to Pendiente)")
	_ = cmd.MarkFlagRequired("paciente")
	_ = cmd.MarkFlagRequired("fecha")
	_ = cmd.MarkFlagRequired("hora")
	return cmd
}
