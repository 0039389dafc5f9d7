package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mindcare/internal/config"
	"mindcare/internal/logging"
	"mindcare/internal/patients"
	"mindcare/internal/storage"
)

func newPatientsCommand(ctx *commandContext) *cobra.Command {
	patientsCmd := &cobra.Command{
		Use:   "patients",
		Short: "Patient roster utilities",
	}

	patientsCmd.AddCommand(newPatientsListCommand(ctx))
	patientsCmd.AddCommand(newPatientsAddCommand(ctx))
	patientsCmd.AddCommand(newPatientsSearchCommand(ctx))

	return patientsCmd
}

func newPatientsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List patients ordered by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(func(cfg *config.Config, bridge storage.Bridge) error {
				mgr := patients.NewManager(bridge, logging.NewNop())
				roster := mgr.SortedByName()
				if len(roster) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No patients registered")
					return nil
				}
				rows := make([][]string, 0, len(roster))
				for _, patient := range roster {
					rows = append(rows, []string{
						strconv.FormatInt(patient.ID, 10),
						patient.Nombre,
						strconv.Itoa(patient.Edad),
						patient.Motivo,
						patient.Contacto,
						yesNo(mgr.HasRecordingAuthorization(patient.ID)),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderListing(
					[]listColumn{
						{title: "ID", numeric: true},
						{title: "Nombre"},
						{title: "Edad", numeric: true},
						{title: "Motivo"},
						{title: "Contacto"},
						{title: "Grabación"},
					},
					rows,
				))
				return nil
			})
		},
	}
}

func newPatientsAddCommand(ctx *commandContext) *cobra.Command {
	var params patients.CreateParams

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(func(cfg *config.Config, bridge storage.Bridge) error {
				mgr := patients.NewManager(bridge, logging.NewNop())
				patient, err := mgr.Create(params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered patient %d: %s\n", patient.ID, patient.Nombre)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&params.Nombre, "nombre", "", "Patient full name")
	cmd.Flags().IntVar(&params.Edad, "edad", 0, "Patient age")
	cmd.Flags().StringVar(&params.Motivo, "motivo", "", "Reason for consultation")
	cmd.Flags().StringVar(&params.Contacto, "contacto", "", "Contact details")
	cmd.Flags().StringVar(&params.Direccion, "direccion", "", "Address")
	cmd.Flags().StringVar(&params.Antecedentes, "antecedentes", "", "Clinical history")
	_ = cmd.MarkFlagRequired("nombre")

	return cmd
}

func newPatientsSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search patients by name, reason, or contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(func(cfg *config.Config, bridge storage.Bridge) error {
				mgr := patients.NewManager(bridge, logging.NewNop())
				matches := mgr.Search(args[0])
				if len(matches) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches")
					return nil
				}
				for _, patient := range matches {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", patient.ID, patient.Nombre, patient.Motivo)
				}
				return nil
			})
		},
	}
}
