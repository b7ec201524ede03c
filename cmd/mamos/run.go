package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mamos/internal/config"
	"mamos/internal/core"
	"mamos/internal/ledger"
	"mamos/internal/log"
	"mamos/internal/security"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var project, deployEnv string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline for every project, or one with --project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := g.settings(ctx)
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			projects, err := core.LoadProjects(s.ConfigPath)
			if err != nil {
				return err
			}

			runner := core.NewRunner(s)
			runner.Ledger = openRecorder(ctx, s)

			sum, err := runner.Run(ctx, projects, project, deployEnv)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Overall Status: %s\n", statusText(sum.Success))
			for _, line := range sum.Lines {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "Summary report: %s\n", sum.Path)
			if !sum.Success {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "run only this project")
	cmd.Flags().StringVarP(&deployEnv, "deploy-env", "e", "", "deploy to this environment when the project declares it")
	return cmd
}

// openRecorder returns nil when the ledger is disabled or cannot be opened.
func openRecorder(ctx context.Context, s *config.Config) *ledger.Recorder {
	if s.Ledger.Path == "" {
		return nil
	}
	l := log.FromContext(ctx)

	led, err := ledger.Open(s.Ledger.Path)
	if err != nil {
		l.Warn("cannot open ledger", "path", s.Ledger.Path, "err", err)
		return nil
	}
	pub, priv, created, err := security.EnsureKeyPair(s.Ledger.KeyDir)
	if err != nil {
		l.Warn("cannot load ledger keys", "dir", s.Ledger.KeyDir, "err", err)
		return nil
	}
	if created {
		l.Info("generated ledger keys", "dir", s.Ledger.KeyDir)
	}
	return ledger.NewRecorder(led, pub, priv)
}

func statusText(ok bool) string {
	if ok {
		return "SUCCESS"
	}
	return "FAILURE"
}
