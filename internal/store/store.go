package store

import (
	"strings"
	"sync"

	"rftrank/internal"
)

// Store holds the canonical process-record table in memory. Reads dominate;
// Load/Append are administrative and expected to run without concurrent
// writers. The RWMutex keeps readers from observing a half-swapped table.
type Store struct {
	mu      sync.RWMutex
	records []internal.ProcessRecord
}

func New() *Store {
	return &Store{}
}

// Load replaces the table with a freshly merged generation.
func (s *Store) Load(records []internal.ProcessRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]internal.ProcessRecord(nil), records...)
}

// Append concatenates new rows onto the table and deduplicates by PO.
// Last occurrence wins: a re-ingested batch supersedes the stored copy for
// the same process order.
func (s *Store) Append(records []internal.ProcessRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	combined := make([]internal.ProcessRecord, 0, len(s.records)+len(records))
	combined = append(combined, s.records...)
	combined = append(combined, records...)

	lastByPO := make(map[string]int, len(combined))
	for i, rec := range combined {
		lastByPO[rec.PO] = i
	}

	out := make([]internal.ProcessRecord, 0, len(lastByPO))
	for i, rec := range combined {
		if lastByPO[rec.PO] == i {
			out = append(out, rec)
		}
	}
	s.records = out
}

// FindByProduct returns all records whose product code matches under
// case-insensitive comparison. No match is an empty slice, not an error.
func (s *Store) FindByProduct(code string) []internal.ProcessRecord {
	want := strings.ToUpper(strings.TrimSpace(code))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []internal.ProcessRecord
	for _, rec := range s.records {
		if strings.ToUpper(rec.Product) == want {
			out = append(out, rec)
		}
	}
	return out
}

// All returns a copy of the current table in original order.
func (s *Store) All() []internal.ProcessRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]internal.ProcessRecord(nil), s.records...)
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
