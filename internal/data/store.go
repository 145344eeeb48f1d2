package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"gridcast/internal/model"
)

// RunKind labels what a stored run produced.
type RunKind string

const (
	RunForecast RunKind = "forecast"
	RunFlow     RunKind = "flow"
	RunSiting   RunKind = "siting"
)

// RunRecord is one completed run kept for re-fetching through the API.
type RunRecord struct {
	ID        string    `json:"id"`
	Kind      RunKind   `json:"kind"`
	CreatedAt time.Time `json:"created_at"`

	Forecasts   []model.InfeedForecast   `json:"forecasts,omitempty"`
	Calibration *model.CalibrationReport `json:"calibration,omitempty"`
	Flows       []model.FlowResult       `json:"flows,omitempty"`
	Unmapped    []model.CellID           `json:"unmapped,omitempty"`
	Candidates  []model.StorageCandidate `json:"candidates,omitempty"`
}

type storeEntry struct {
	record    *RunRecord
	expiresAt time.Time
}

// RunStore keeps completed runs in memory with a TTL so API clients can
// fetch results by id after the POST that produced them.
type RunStore struct {
	mu    sync.RWMutex
	store map[string]*storeEntry
	ttl   time.Duration
	seq   uint64
}

// DefaultRunTTL is how long run results stay fetchable.
const DefaultRunTTL = time.Hour

// NewRunStore creates a store and starts its cleanup loop.
func NewRunStore(ttl time.Duration) *RunStore {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	s := &RunStore{
		store: map[string]*storeEntry{},
		ttl:   ttl,
	}
	go s.cleanup()
	return s
}

// Put stores a record, assigns it an id and returns that id.
func (s *RunStore) Put(rec *RunRecord) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d-%d-%s", time.Now().UnixNano(), s.seq, rec.Kind)))
	id := hex.EncodeToString(sum[:8])

	rec.ID = id
	rec.CreatedAt = time.Now().UTC()
	s.store[id] = &storeEntry{record: rec, expiresAt: time.Now().Add(s.ttl)}
	return id
}

// Get retrieves a record if present and not expired.
func (s *RunStore) Get(id string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.store[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.record, true
}

// Len reports the number of live entries.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	now := time.Now()
	for _, e := range s.store {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

func (s *RunStore) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		s.mu.Lock()
		for id, e := range s.store {
			if now.After(e.expiresAt) {
				delete(s.store, id)
			}
		}
		s.mu.Unlock()
	}
}
