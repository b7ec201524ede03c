package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	detailsDir  = "details"
	summaryFile = "summary.md"
)

// ReportStorage writes run reports under BaseDir. Writes overwrite.
type ReportStorage struct {
	BaseDir string
}

func NewReportStorage(baseDir string) *ReportStorage {
	return &ReportStorage{BaseDir: baseDir}
}

// StageLine is one row of the detail report's stage table.
type StageLine struct {
	Name        string
	Status      string
	Duration    time.Duration
	OutputBytes int
}

type DeployInfo struct {
	Environment string
	Success     bool
	DeployID    string
	FinalStatus string
	Error       string
}

type Detail struct {
	Project     string
	Success     bool
	FailedStage string
	Duration    time.Duration
	Stages      []StageLine
	Output      string
	Error       string
	Deploy      *DeployInfo
}

type Summary struct {
	RunID     string
	Timestamp time.Time
	Success   bool
	Lines     []string
	// Projects lists every configured project, processed or not.
	Projects []string
}

// DetailName is the report file name for project, relative to details/.
func DetailName(project string) string {
	return sanitize(project) + "_report.md"
}

func (rs *ReportStorage) DetailPath(project string) string {
	return filepath.Join(rs.BaseDir, detailsDir, DetailName(project))
}

func (rs *ReportStorage) SummaryPath() string {
	return filepath.Join(rs.BaseDir, summaryFile)
}

// WriteDetail renders d to details/<project>_report.md.
func (rs *ReportStorage) WriteDetail(d Detail) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Project: %s\n\n", d.Project)
	fmt.Fprintf(&b, "## Status: %s\n\n", status(d.Success))
	if d.FailedStage != "" {
		fmt.Fprintf(&b, "**Failed Stage:** %s\n\n", d.FailedStage)
	}
	fmt.Fprintf(&b, "**Duration:** %s\n\n", d.Duration.Round(time.Millisecond))

	b.WriteString("### Stages\n")
	for _, s := range d.Stages {
		fmt.Fprintf(&b, "- %s: %s", s.Name, s.Status)
		if s.Status != "SKIPPED" {
			fmt.Fprintf(&b, " (%s, %s output)", s.Duration.Round(time.Millisecond), humanize.Bytes(uint64(s.OutputBytes)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("### Output\n")
	fmt.Fprintf(&b, "```\n%s\n```\n\n", d.Output)
	if d.Error != "" {
		b.WriteString("### Error\n")
		fmt.Fprintf(&b, "```\n%s\n```\n\n", d.Error)
	}

	if d.Deploy != nil {
		b.WriteString("### Deploy\n")
		fmt.Fprintf(&b, "- Environment: %s\n", d.Deploy.Environment)
		fmt.Fprintf(&b, "- Status: %s\n", status(d.Deploy.Success))
		if d.Deploy.DeployID != "" {
			fmt.Fprintf(&b, "- Deploy ID: %s\n", d.Deploy.DeployID)
		}
		if d.Deploy.FinalStatus != "" {
			fmt.Fprintf(&b, "- Final Status: %s\n", d.Deploy.FinalStatus)
		}
		if d.Deploy.Error != "" {
			fmt.Fprintf(&b, "- Error: %s\n", d.Deploy.Error)
		}
		b.WriteString("\n")
	}

	return rs.write(rs.DetailPath(d.Project), b.String())
}

// WriteSummary renders s to summary.md.
func (rs *ReportStorage) WriteSummary(s Summary) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# MAMOS Test Summary - %s\n\n", s.Timestamp.Format(time.DateTime))
	if s.RunID != "" {
		fmt.Fprintf(&b, "**Run ID:** %s\n\n", s.RunID)
	}
	fmt.Fprintf(&b, "## Overall Status: %s\n\n", status(s.Success))
	b.WriteString("### Project Statuses:\n")
	for _, line := range s.Lines {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n### Detailed Reports:\n")
	for _, p := range s.Projects {
		fmt.Fprintf(&b, "- [%s Report](%s/%s)\n", p, detailsDir, DetailName(p))
	}

	return rs.write(rs.SummaryPath(), b.String())
}

func (rs *ReportStorage) write(path, content string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o775); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func status(ok bool) string {
	if ok {
		return "SUCCESS"
	}
	return "FAILURE"
}

// sanitize keeps project names usable as file names.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "project"
	}
	return b.String()
}
