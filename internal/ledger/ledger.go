package ledger

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"mamos/internal/security"
)

// Ledger is an append-only JSONL file of hash-chained entries.
type Ledger struct {
	mu      sync.Mutex
	entries []*Entry
	path    string
}

// Open loads the ledger at path, creating an empty file if needed.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		return l, f.Close()
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode ledger entry: %w", err)
		}
		l.entries = append(l.entries, &e)
	}
	return l, nil
}

// Append signs e, persists it and keeps it in memory.
func (l *Ledger) Append(e *Entry, priv ed25519.PrivateKey, pub ed25519.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, err := e.ComputeHash()
	if err != nil {
		return fmt.Errorf("recompute entry hash: %w", err)
	}
	e.Hash = h

	if n := len(l.entries); n > 0 && e.PrevHash != l.entries[n-1].Hash {
		return fmt.Errorf("prevHash mismatch: expected %s, got %s", l.entries[n-1].Hash, e.PrevHash)
	}
	if len(priv) == 0 {
		return errors.New("private key is empty, cannot sign entry")
	}
	e.Signature = security.SignData(priv, []byte(e.Hash))
	e.PubKey = security.EncodePublicKey(pub)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(e); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	l.entries = append(l.entries, e)
	return nil
}

// Entries returns the loaded entries. Callers must not modify them.
func (l *Ledger) Entries() []*Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries
}

func (l *Ledger) NextIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// LastHash returns the hash of the newest entry, or "".
func (l *Ledger) LastHash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return ""
	}
	return l.entries[len(l.entries)-1].Hash
}
