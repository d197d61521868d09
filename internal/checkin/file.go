package checkin

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// fileEvent is one line of the JSON-lines log.
type fileEvent struct {
	Op     string    `json:"op"` // "schedule" or "complete"
	Record *Record   `json:"record,omitempty"`
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at,omitzero"`
}

// FileStore persists check-ins as an append-only JSON-lines event log and
// keeps the current state in memory. Thread-safe for concurrent use.
type FileStore struct {
	mu      sync.Mutex
	path    string
	records map[string]*Record
}

// OpenFileStore replays the log at path and returns a store appending to it.
// A missing file is created on first write.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, records: make(map[string]*Record)}
	if err := s.replay(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) replay() error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checkin: open %s: %w", s.path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var ev fileEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return fmt.Errorf("checkin: %s:%d: %w", s.path, line, err)
		}
		switch ev.Op {
		case "schedule":
			if ev.Record != nil {
				r := *ev.Record
				s.records[r.ID] = &r
			}
		case "complete":
			if r, ok := s.records[ev.ID]; ok {
				at := ev.At
				r.CompletedAt = &at
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("checkin: read %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) append(ev fileEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("checkin: marshal: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("checkin: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("checkin: write: %w", err)
	}
	return nil
}

// Schedule implements [Store].
func (s *FileStore) Schedule(_ context.Context, r Record) (Record, error) {
	r = prepare(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.append(fileEvent{Op: "schedule", Record: &r}); err != nil {
		return Record{}, err
	}
	stored := r
	s.records[r.ID] = &stored
	return r, nil
}

// Due implements [Store].
func (s *FileStore) Due(_ context.Context, before time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, r := range s.records {
		if r.Pending() && !r.DueAt.After(before) {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b Record) int { return a.DueAt.Compare(b.DueAt) })
	return out, nil
}

// Complete implements [Store].
func (s *FileStore) Complete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || !r.Pending() {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	at := time.Now().UTC()
	if err := s.append(fileEvent{Op: "complete", ID: id, At: at}); err != nil {
		return err
	}
	r.CompletedAt = &at
	return nil
}
