package store

import (
	"sort"
	"sync"
	"time"

	"github.com/vulnwatch/vulnwatch/pkg/models"
)

// MemoryStore keeps vulnerability records in a keyed map plus an insertion
// sequence, guarded by a single RWMutex. Reads are concurrent; insert and
// delete take the write lock.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	nextSeq uint64
}

type memoryRecord struct {
	vuln models.Vulnerability
	seq  uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Insert(v models.Vulnerability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[v.ID] = memoryRecord{vuln: v, seq: s.nextSeq}
	s.nextSeq++
	return nil
}

func (s *MemoryStore) Query(f Filter, limit, offset int) ([]models.Vulnerability, int, error) {
	s.mu.RLock()
	matched := s.collect(f)
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.vuln.SeverityScore != b.vuln.SeverityScore {
			return a.vuln.SeverityScore > b.vuln.SeverityScore
		}
		if !a.vuln.DetectedAt.Equal(b.vuln.DetectedAt) {
			return a.vuln.DetectedAt.After(b.vuln.DetectedAt)
		}
		return a.seq < b.seq
	})

	total := len(matched)
	return pageOf(matched, limit, offset), total, nil
}

func (s *MemoryStore) GetByID(id string) (models.Vulnerability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return models.Vulnerability{}, ErrNotFound
	}
	return rec.vuln, nil
}

func (s *MemoryStore) DeleteByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) RecentBySeverity(sev models.Severity, limit int) ([]models.Vulnerability, error) {
	s.mu.RLock()
	matched := s.collect(Filter{Severity: sev})
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.vuln.DetectedAt.Equal(b.vuln.DetectedAt) {
			return a.vuln.DetectedAt.After(b.vuln.DetectedAt)
		}
		return a.seq < b.seq
	})

	return pageOf(matched, limit, 0), nil
}

func (s *MemoryStore) DetectedSince(cutoff time.Time) ([]models.Vulnerability, error) {
	s.mu.RLock()
	var matched []memoryRecord
	for _, rec := range s.records {
		if !rec.vuln.DetectedAt.Before(cutoff) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	out := make([]models.Vulnerability, len(matched))
	for i, rec := range matched {
		out[i] = rec.vuln
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// collect gathers matching records; callers must hold at least a read lock.
func (s *MemoryStore) collect(f Filter) []memoryRecord {
	var matched []memoryRecord
	for _, rec := range s.records {
		if f.Matches(rec.vuln) {
			matched = append(matched, rec)
		}
	}
	return matched
}

func pageOf(matched []memoryRecord, limit, offset int) []models.Vulnerability {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []models.Vulnerability{}
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := make([]models.Vulnerability, 0, end-offset)
	for _, rec := range matched[offset:end] {
		page = append(page, rec.vuln)
	}
	return page
}
