package core

import "time"

// Verdict tags a StageResult.
type Verdict int

const (
	Skipped Verdict = iota
	Passed
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Passed:
		return "SUCCESS"
	case Failed:
		return "FAILURE"
	default:
		return "SKIPPED"
	}
}

// StageResult is what one stage produced. Only Passed and Failed carry output.
type StageResult struct {
	Verdict  Verdict
	Stdout   string
	Stderr   string
	Duration time.Duration
}

func (r StageResult) Ok() bool { return r.Verdict != Failed }

func Pass(stdout, stderr string) StageResult {
	return StageResult{Verdict: Passed, Stdout: stdout, Stderr: stderr}
}

func Fail(stdout, stderr string) StageResult {
	return StageResult{Verdict: Failed, Stdout: stdout, Stderr: stderr}
}

func Skip() StageResult {
	return StageResult{Verdict: Skipped}
}
