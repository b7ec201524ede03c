package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mamos/internal/deploy"
	"mamos/internal/health"
	"mamos/internal/log"
	"mamos/internal/storage"
)

// State is a position in a project's stage sequence.
type State int

const (
	Pending State = iota
	Building
	Testing
	Starting
	HealthChecking
	Deploying
	Done
	FailedState
)

var stateNames = map[State]string{
	Pending:        "PENDING",
	Building:       "BUILDING",
	Testing:        "TESTING",
	Starting:       "STARTING",
	HealthChecking: "HEALTH_CHECKING",
	Deploying:      "DEPLOYING",
	Done:           "DONE",
	FailedState:    "FAILED",
}

func (s State) String() string { return stateNames[s] }

type Deployer interface {
	Deploy(ctx context.Context, env deploy.Environment) deploy.Outcome
}

type HealthProber interface {
	Probe(ctx context.Context, baseURL string, checks []health.Check) health.Result
}

type DetailWriter interface {
	WriteDetail(d storage.Detail) (string, error)
}

// Pipeline drives one project through build, test, start, health check
// and deploy.
type Pipeline struct {
	Commands      CommandRunner
	Prober        HealthProber
	Deployer      Deployer
	Reports       DetailWriter
	WorkDir       string
	HealthBaseURL string
	StartupGrace  time.Duration
}

// run is the per-project state threaded through the transitions.
type run struct {
	spec      ProjectSpec
	dir       string
	target    deploy.Environment
	hasTarget bool
	deploy    *deploy.Outcome
}

type transition struct {
	state   State
	tag     string
	enabled func(r *run) bool
	exec    func(p *Pipeline, ctx context.Context, r *run) StageResult
	// failLine is the summary text recorded when the stage fails.
	failLine func(r *run) string
	// additive failures are reported next to the success of earlier stages
	// instead of replacing it.
	additive bool
}

func fixed(s string) func(*run) string { return func(*run) string { return s } }

func runsService(r *run) bool {
	return r.spec.StartCommand != "" && len(r.spec.HealthChecks) > 0
}

// transitions is walked in order; a disabled row is skipped and a failed
// row ends the walk in FailedState.
var transitions = []transition{
	{
		state:    Building,
		tag:      "build",
		enabled:  func(r *run) bool { return r.spec.BuildCommand != "" },
		exec:     (*Pipeline).build,
		failLine: fixed("Build FAILED"),
	},
	{
		state:    Testing,
		tag:      "test",
		enabled:  func(r *run) bool { return r.spec.TestCommand != "" },
		exec:     (*Pipeline).test,
		failLine: fixed("Tests FAILED"),
	},
	{
		state:    Starting,
		tag:      "start",
		enabled:  runsService,
		exec:     (*Pipeline).start,
		failLine: fixed("Start command FAILED for health checks"),
	},
	{
		state:    HealthChecking,
		tag:      "health_check",
		enabled:  runsService,
		exec:     (*Pipeline).healthCheck,
		failLine: fixed("Health checks FAILED"),
	},
	{
		state:   Deploying,
		tag:     "deploy",
		enabled: func(r *run) bool { return r.hasTarget },
		exec:    (*Pipeline).deploy,
		failLine: func(r *run) string {
			reason := "unknown error"
			if r.deploy != nil && r.deploy.Error != "" {
				reason = strings.Join(strings.Fields(r.deploy.Error), " ")
			}
			return fmt.Sprintf("Deploy to %s FAILED: %s", r.target.Name, reason)
		},
		additive: true,
	},
}

type StageRecord struct {
	State  State
	Tag    string
	Result StageResult
}

type ProjectOutcome struct {
	Project     string
	Success     bool
	Final       State
	FailedStage string
	Stages      []StageRecord
	Output      string
	Error       string
	Deploy      *deploy.Outcome
	Duration    time.Duration
	// Lines are this project's entries in the run summary.
	Lines      []string
	ReportPath string
}

// Run executes spec's declared stages, writes its detail report and
// returns the outcome. deployEnv selects the deploy environment; empty
// means no deploy.
func (p *Pipeline) Run(ctx context.Context, spec ProjectSpec, deployEnv string) *ProjectOutcome {
	l := log.FromContext(ctx).With("project", spec.Name)
	ctx = log.IntoContext(ctx, l)

	r := &run{spec: spec, dir: p.projectDir(spec)}
	r.target, r.hasTarget = spec.DeployTarget(deployEnv)
	if deployEnv != "" && !r.hasTarget {
		l.Info("no matching deploy environment, skipping deploy", "environment", deployEnv)
	}

	out := &ProjectOutcome{Project: spec.Name, Final: Pending}
	start := time.Now()

	var failed *transition
	for i := range transitions {
		tr := &transitions[i]
		if !tr.enabled(r) {
			out.Stages = append(out.Stages, StageRecord{State: tr.state, Tag: tr.tag, Result: Skip()})
			continue
		}

		out.Final = tr.state
		l.Info("running stage", "stage", tr.tag)
		t0 := time.Now()
		res := tr.exec(p, ctx, r)
		res.Duration = time.Since(t0)
		out.Stages = append(out.Stages, StageRecord{State: tr.state, Tag: tr.tag, Result: res})

		if res.Verdict == Failed {
			l.Error("stage failed", "stage", tr.tag, "duration", res.Duration)
			failed = tr
			break
		}
		l.Info("stage passed", "stage", tr.tag, "duration", res.Duration)
	}

	out.Duration = time.Since(start)
	out.Deploy = r.deploy
	p.settle(out, r, failed)

	l.Info("project finished", "status", out.Final, "duration", out.Duration)
	p.writeDetail(ctx, out)
	return out
}

func (p *Pipeline) settle(out *ProjectOutcome, r *run, failed *transition) {
	if failed == nil {
		out.Success = true
		out.Final = Done
		out.Lines = []string{summaryLine(out.Project, "SUCCESS")}
		out.Output, out.Error = combined(out.Stages)
		return
	}

	out.Final = FailedState
	out.FailedStage = failed.tag
	if failed.additive {
		out.Lines = []string{
			summaryLine(out.Project, "SUCCESS"),
			summaryLine(out.Project, failed.failLine(r)),
		}
		out.Output, out.Error = combined(out.Stages)
		return
	}

	out.Lines = []string{summaryLine(out.Project, failed.failLine(r))}
	last := out.Stages[len(out.Stages)-1].Result
	out.Output, out.Error = last.Stdout, last.Stderr
}

func (p *Pipeline) build(ctx context.Context, r *run) StageResult {
	return p.Commands.Run(ctx, r.spec.BuildCommand, r.dir)
}

func (p *Pipeline) test(ctx context.Context, r *run) StageResult {
	return p.Commands.Run(ctx, r.spec.TestCommand, r.dir)
}

func (p *Pipeline) start(ctx context.Context, r *run) StageResult {
	res := p.Commands.Launch(ctx, r.spec.StartCommand, r.dir)
	if res.Verdict == Failed || p.StartupGrace <= 0 {
		return res
	}
	select {
	case <-ctx.Done():
		return Fail(res.Stdout, ctx.Err().Error())
	case <-time.After(p.StartupGrace):
	}
	return res
}

func (p *Pipeline) healthCheck(ctx context.Context, r *run) StageResult {
	base := r.spec.HealthBaseURL
	if base == "" {
		base = p.HealthBaseURL
	}
	hr := p.Prober.Probe(ctx, base, r.spec.HealthChecks)
	if !hr.OK {
		return Fail(hr.Output, hr.Error)
	}
	return Pass(hr.Output, "")
}

func (p *Pipeline) deploy(ctx context.Context, r *run) StageResult {
	o := p.Deployer.Deploy(ctx, r.target)
	r.deploy = &o
	if !o.Success {
		return Fail("", o.Error)
	}
	return Pass(fmt.Sprintf("Deployed to %s: %s (%s)\n", o.Environment, o.DeployID, o.FinalStatus), "")
}

func (p *Pipeline) projectDir(spec ProjectSpec) string {
	if filepath.IsAbs(spec.Path) {
		return spec.Path
	}
	return filepath.Join(p.WorkDir, spec.Path)
}

func (p *Pipeline) writeDetail(ctx context.Context, out *ProjectOutcome) {
	if p.Reports == nil {
		return
	}
	d := storage.Detail{
		Project:     out.Project,
		Success:     out.Success,
		FailedStage: out.FailedStage,
		Duration:    out.Duration,
		Output:      out.Output,
		Error:       out.Error,
	}
	for _, s := range out.Stages {
		d.Stages = append(d.Stages, storage.StageLine{
			Name:        s.Tag,
			Status:      s.Result.Verdict.String(),
			Duration:    s.Result.Duration,
			OutputBytes: len(s.Result.Stdout) + len(s.Result.Stderr),
		})
	}
	if o := out.Deploy; o != nil {
		d.Deploy = &storage.DeployInfo{
			Environment: o.Environment,
			Success:     o.Success,
			DeployID:    o.DeployID,
			FinalStatus: o.FinalStatus,
			Error:       o.Error,
		}
	}

	path, err := p.Reports.WriteDetail(d)
	if err != nil {
		log.FromContext(ctx).Warn("failed to save detail report", "err", err)
		return
	}
	out.ReportPath = path
}

func summaryLine(project, text string) string {
	return fmt.Sprintf("- **%s**: %s", project, text)
}

func combined(stages []StageRecord) (stdout, stderr string) {
	var o, e strings.Builder
	for _, s := range stages {
		o.WriteString(s.Result.Stdout)
		e.WriteString(s.Result.Stderr)
	}
	return o.String(), e.String()
}
