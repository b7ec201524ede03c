package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mamos/internal/config"
	"mamos/internal/deploy"
	"mamos/internal/health"
	"mamos/internal/ledger"
	"mamos/internal/log"
	"mamos/internal/poll"
	"mamos/internal/storage"
)

// SummaryWriter persists the run-level report.
type SummaryWriter interface {
	WriteSummary(s storage.Summary) (string, error)
}

// RunSummary is the terminal artifact of one orchestrator invocation.
type RunSummary struct {
	RunID     string
	Timestamp time.Time
	Success   bool
	Lines     []string
	Outcomes  []*ProjectOutcome
	// Projects is every configured project; each gets a report link.
	Projects []string
	Path     string
}

// Runner ties together Scheduler + Pipeline + report storage + ledger.
type Runner struct {
	Scheduler *Scheduler
	Pipeline  *Pipeline
	Summaries SummaryWriter
	// Ledger is optional; when set every written report is recorded.
	Ledger *ledger.Recorder
	Now    func() time.Time
}

// NewRunner wires the default collaborators from settings.
func NewRunner(s *config.Config) *Runner {
	reports := storage.NewReportStorage(s.ReportDir)
	policy := poll.Policy{Interval: s.Deploy.PollInterval, MaxAttempts: s.Deploy.MaxPolls}
	return &Runner{
		Scheduler: NewScheduler(),
		Pipeline: &Pipeline{
			Commands:      NewExecutor(s.CommandTimeout),
			Prober:        health.NewProber(s.Health.Timeout),
			Deployer:      deploy.NewClient(s.Deploy.RenderAPIURL, policy, s.Deploy.HTTPTimeout),
			Reports:       reports,
			WorkDir:       s.WorkDir,
			HealthBaseURL: s.Health.BaseURL,
			StartupGrace:  s.Health.StartupGrace,
		},
		Summaries: reports,
	}
}

// Run processes the project named filter, or every configured project when
// filter is empty, and persists the summary. Only configuration and summary
// persistence errors are returned; project failures live in the summary.
func (r *Runner) Run(ctx context.Context, cfg *Config, filter, deployEnv string) (*RunSummary, error) {
	l := log.FromContext(ctx)

	projects, err := r.Scheduler.Select(cfg, filter)
	if err != nil {
		return nil, err
	}

	sum := &RunSummary{
		RunID:    uuid.NewString(),
		Success:  true,
		Projects: cfg.Names(),
	}
	l = l.With("run", sum.RunID)
	ctx = log.IntoContext(ctx, l)

	for _, p := range projects {
		l.Info("processing project", "project", p.Name)

		out := r.Pipeline.Run(ctx, p, deployEnv)
		sum.Outcomes = append(sum.Outcomes, out)
		sum.Lines = append(sum.Lines, out.Lines...)
		sum.Success = sum.Success && out.Success
		if out.ReportPath != "" {
			r.record(ctx, sum.RunID, p.Name, "detail", out.ReportPath)
		}
	}

	sum.Timestamp = r.now()
	path, err := r.Summaries.WriteSummary(storage.Summary{
		RunID:     sum.RunID,
		Timestamp: sum.Timestamp,
		Success:   sum.Success,
		Lines:     sum.Lines,
		Projects:  sum.Projects,
	})
	if err != nil {
		return sum, fmt.Errorf("write summary: %w", err)
	}
	sum.Path = path
	r.record(ctx, sum.RunID, "", "summary", path)

	l.Info("run complete", "status", status(sum.Success), "summary", path)
	return sum, nil
}

// record is best-effort; a ledger failure never fails the run.
func (r *Runner) record(ctx context.Context, runID, project, kind, path string) {
	if r.Ledger == nil {
		return
	}
	e, err := r.Ledger.Record(runID, project, kind, path)
	if err != nil {
		log.FromContext(ctx).Warn("cannot record report in ledger", "report", path, "err", err)
		return
	}
	log.FromContext(ctx).Debug("ledger entry appended", "index", e.Index, "hash", e.Hash[:16])
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func status(ok bool) string {
	if ok {
		return "SUCCESS"
	}
	return "FAILURE"
}
