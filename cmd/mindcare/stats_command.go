package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mindcare/internal/agenda"
	"mindcare/internal/config"
	"mindcare/internal/logging"
	"mindcare/internal/patients"
	"mindcare/internal/sessions"
	"mindcare/internal/storage"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show practice summary statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(func(cfg *config.Config, bridge storage.Bridge) error {
				logger := logging.NewNop()
				patientMgr := patients.NewManager(bridge, logger)
				sessionMgr := sessions.NewManager(bridge, logger)
				agendaMgr := agenda.NewManager(bridge, logger)

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Práctica", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatLine("Pacientes", strconv.Itoa(len(patientMgr.GetAll()))))
				fmt.Fprintln(out, renderStatLine("Sesiones", strconv.Itoa(len(sessionMgr.GetAll()))))

				stats := agendaMgr.GetStats()
				for _, line := range renderSectionHeader("Agenda", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatLine("Citas totales", strconv.Itoa(stats.Total)))
				fmt.Fprintln(out, renderStatLine("Pendientes", strconv.Itoa(stats.Pendientes)))
				fmt.Fprintln(out, renderStatLine("Confirmadas", strconv.Itoa(stats.Confirmadas)))
				fmt.Fprintln(out, renderStatLine("Finalizadas", strconv.Itoa(stats.Finalizadas)))
				fmt.Fprintln(out, renderStatLine("Anuladas", strconv.Itoa(stats.Anuladas)))
				fmt.Fprintln(out, renderStatLine("Hoy", strconv.Itoa(stats.Hoy)))
				fmt.Fprintln(out, renderStatLine("Esta semana", strconv.Itoa(stats.Semana)))
				fmt.Fprintln(out, renderStatLine("Este mes", strconv.Itoa(stats.Mes)))
				return nil
			})
		},
	}
}
