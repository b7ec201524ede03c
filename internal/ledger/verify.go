package ledger

import (
	"fmt"

	"mamos/internal/security"
	"mamos/pkg/utils"
)

// VerifyChain recomputes every hash, link and signature.
func (l *Ledger) VerifyChain() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		h, err := e.ComputeHash()
		if err != nil {
			return fmt.Errorf("compute hash for index %d: %w", e.Index, err)
		}
		if h != e.Hash {
			return fmt.Errorf("hash mismatch at index %d", e.Index)
		}
		if i > 0 && e.PrevHash != l.entries[i-1].Hash {
			return fmt.Errorf("prev hash mismatch at index %d", e.Index)
		}
		if e.Index != i {
			return fmt.Errorf("index mismatch: expected %d got %d", i, e.Index)
		}
		ok, err := security.VerifySignatureFromHex(e.PubKey, []byte(e.Hash), e.Signature)
		if err != nil {
			return fmt.Errorf("signature at index %d: %w", e.Index, err)
		}
		if !ok {
			return fmt.Errorf("bad signature at index %d", e.Index)
		}
	}
	return nil
}

// VerifyReports checks that the newest entry for each report path still
// matches the file on disk. Reports are overwritten by reruns, so older
// entries for the same path are not compared.
func (l *Ledger) VerifyReports() error {
	l.mu.Lock()
	latest := make(map[string]*Entry)
	var order []string
	for _, e := range l.entries {
		if _, seen := latest[e.ReportPath]; !seen {
			order = append(order, e.ReportPath)
		}
		latest[e.ReportPath] = e
	}
	l.mu.Unlock()

	for _, path := range order {
		e := latest[path]
		h, err := utils.HashFile(path)
		if err != nil {
			return fmt.Errorf("hash %s: %w", path, err)
		}
		if h != e.ReportHash {
			return fmt.Errorf("report %s changed since entry %d", path, e.Index)
		}
	}
	return nil
}
