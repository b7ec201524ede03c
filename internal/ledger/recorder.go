package ledger

import (
	"crypto/ed25519"
	"fmt"

	"mamos/pkg/utils"
)

// Recorder appends an entry for every report the runner writes.
type Recorder struct {
	Ledger *Ledger
	Priv   ed25519.PrivateKey
	Pub    ed25519.PublicKey
}

func NewRecorder(l *Ledger, pub ed25519.PublicKey, priv ed25519.PrivateKey) *Recorder {
	return &Recorder{Ledger: l, Priv: priv, Pub: pub}
}

// Record hashes the report at path and chains it onto the ledger.
func (r *Recorder) Record(runID, project, kind, path string) (*Entry, error) {
	h, err := utils.HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash report: %w", err)
	}
	e, err := NewEntry(r.Ledger.NextIndex(), runID, project, kind, path, h, r.Ledger.LastHash())
	if err != nil {
		return nil, err
	}
	if err := r.Ledger.Append(e, r.Priv, r.Pub); err != nil {
		return nil, err
	}
	return e, nil
}
