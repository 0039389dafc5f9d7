package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mindcare/internal/config"
	"mindcare/internal/logging"
	"mindcare/internal/patients"
	"mindcare/internal/sessions"
	"mindcare/internal/storage"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Clinical session utilities",
	}

	sessionsCmd.AddCommand(newSessionsListCommand(ctx))

	return sessionsCmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	var patientID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clinical sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(func(cfg *config.Config, bridge storage.Bridge) error {
				logger := logging.NewNop()
				sessionMgr := sessions.NewManager(bridge, logger)
				patientMgr := patients.NewManager(bridge, logger)

				list := sessionMgr.GetAll()
				if patientID > 0 {
					list = sessionMgr.ByPatient(patientID)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
					return nil
				}

				rows := make([][]string, 0, len(list))
				for _, session := range list {
					name := fmt.Sprintf("Paciente %d", session.PacienteID)
					if patient, err := patientMgr.GetByID(session.PacienteID); err == nil {
						name = patient.Nombre
					}
					soap := "—"
					if session.SOAP != nil {
						soap = "sí"
					}
					rows = append(rows, []string{
						strconv.FormatInt(session.ID, 10),
						name,
						session.Fecha,
						truncate(session.Notas, 40),
						soap,
						strconv.Itoa(len(session.Grabacion)),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderListing(
					[]listColumn{
						{title: "ID", numeric: true},
						{title: "Paciente"},
						{title: "Fecha"},
						{title: "Notas"},
						{title: "SOAP"},
						{title: "Grabaciones", numeric: true},
					},
					rows,
				))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&patientID, "paciente", 0, "Filter by patient ID")
	return cmd
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
