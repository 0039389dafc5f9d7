package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mindcare/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check directories and external collaborators",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}

			failed := 0
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				state := "OK"
				if !result.Passed {
					state = "FAIL"
					failed++
				}
				fmt.Fprintln(out, renderStatLine(result.Name, fmt.Sprintf("[%s] %s", state, result.Detail)))
			}
			if failed > 0 {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}
