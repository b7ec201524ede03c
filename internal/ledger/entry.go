package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is a tamper-evident record of one written report.
type Entry struct {
	Index      int    `json:"index"`
	Timestamp  string `json:"timestamp"`
	RunID      string `json:"runId"`
	Project    string `json:"project"`
	Kind       string `json:"kind"`
	ReportPath string `json:"reportPath"`
	ReportHash string `json:"reportHash"`
	PrevHash   string `json:"prevHash"`
	Hash       string `json:"hash"`
	Signature  string `json:"signature"`
	PubKey     string `json:"pubKey"`
}

// canonicalData is the hashed view of the entry. It excludes Hash,
// Signature and PubKey.
func (e *Entry) canonicalData() ([]byte, error) {
	view := struct {
		Index      int    `json:"index"`
		Timestamp  string `json:"timestamp"`
		RunID      string `json:"runId"`
		Project    string `json:"project"`
		Kind       string `json:"kind"`
		ReportPath string `json:"reportPath"`
		ReportHash string `json:"reportHash"`
		PrevHash   string `json:"prevHash"`
	}{
		Index:      e.Index,
		Timestamp:  e.Timestamp,
		RunID:      e.RunID,
		Project:    e.Project,
		Kind:       e.Kind,
		ReportPath: e.ReportPath,
		ReportHash: e.ReportHash,
		PrevHash:   e.PrevHash,
	}
	return json.Marshal(view)
}

func (e *Entry) ComputeHash() (string, error) {
	data, err := e.canonicalData()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NewEntry builds an unsigned entry with its hash set.
func NewEntry(index int, runID, project, kind, reportPath, reportHash, prevHash string) (*Entry, error) {
	e := &Entry{
		Index:      index,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		RunID:      runID,
		Project:    project,
		Kind:       kind,
		ReportPath: reportPath,
		ReportHash: reportHash,
		PrevHash:   prevHash,
	}
	h, err := e.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("compute entry hash: %w", err)
	}
	e.Hash = h
	return e, nil
}
