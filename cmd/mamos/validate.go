package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mamos/internal/core"
)

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <project>",
		Short: "Check a project is configured and its deploy secrets are set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings(cmd.Context())
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			projects, err := core.LoadProjects(s.ConfigPath)
			if err != nil {
				return err
			}

			missing, err := core.Validate(projects, args[0], os.LookupEnv)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range missing {
				fmt.Fprintf(out, "WARNING: secret %s for environment %s is not set; deploying there will fail\n", m.Secret, m.Environment)
			}
			fmt.Fprintf(out, "OK: project %q found in %s\n", args[0], s.ConfigPath)
			return nil
		},
	}
}
