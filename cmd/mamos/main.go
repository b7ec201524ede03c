package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"mamos/internal/config"
	"mamos/internal/log"
)

// errRunFailed marks a run that completed with at least one failed project.
var errRunFailed = errors.New("one or more projects failed")

type globalFlags struct {
	configPath string
	reportDir  string
	workDir    string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "mamos",
		Short: "Build, test, health-check and deploy every configured project",
		Long: `mamos runs each project listed in projects.yaml through its build, test and
health-check stages, optionally deploys it to a Render environment, and writes
per-project and summary reports.

Settings are read from MAMOS_* environment variables; flags take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "projects file (default $MAMOS_CONFIG or config/projects.yaml)")
	root.PersistentFlags().StringVar(&g.reportDir, "reports", "", "report directory (default $MAMOS_REPORT_DIR or reports)")
	root.PersistentFlags().StringVar(&g.workDir, "workdir", "", "directory project paths are relative to")

	root.AddCommand(newRunCmd(g), newValidateCmd(g), newLedgerCmd(g))
	return root
}

// settings loads env settings and applies flag overrides.
func (g *globalFlags) settings(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if g.configPath != "" {
		cfg.ConfigPath = g.configPath
	}
	if g.reportDir != "" {
		cfg.ReportDir = g.reportDir
	}
	if g.workDir != "" {
		cfg.WorkDir = g.workDir
	}
	return cfg, nil
}

func main() {
	logger := log.New("mamos")
	ctx := log.IntoContext(context.Background(), logger)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunFailed) {
			logger.Error(err.Error())
		}
		os.Exit(1)
	}
}
