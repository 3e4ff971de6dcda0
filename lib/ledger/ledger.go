package ledger

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/go-errors/errors"
)

// Ledger is the durable set of sale identifiers that have already been
// published. The backing file is an append-only text file with one
// identifier per line; the full set is loaded into memory at Open.
type Ledger struct {
	mu   sync.Mutex
	ids  map[string]struct{}
	file *os.File
}

// Open loads all previously recorded identifiers from path and keeps the
// file open for appending. A missing file is not an error (first run).
func Open(path string) (*Ledger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Errorf("open ledger %s: %w", path, err)
	}
	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, errors.Errorf("read ledger %s: %w", path, err)
	}
	return &Ledger{ids: ids, file: file}, nil
}

// Contains reports whether id has been recorded as published.
func (l *Ledger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[id]
	return ok
}

// Record marks id as published and syncs it to disk before returning, so a
// crash after a successful publish cannot re-publish the sale. Recording an
// id twice is a no-op.
func (l *Ledger) Record(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.ids[id]; ok {
		return nil
	}
	l.ids[id] = struct{}{}
	if _, err := l.file.WriteString(id + "\n"); err != nil {
		return errors.Errorf("append ledger entry %s: %w", id, err)
	}
	if err := l.file.Sync(); err != nil {
		return errors.Errorf("sync ledger: %w", err)
	}
	return nil
}

// Size returns the number of recorded identifiers.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
