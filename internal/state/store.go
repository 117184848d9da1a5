package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/meddesk/meddesk/internal/api"
)

// Snapshot represents the latest patient list available to the UI.
type Snapshot struct {
	DoctorID            api.ID
	Patients            []api.Patient
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored patient list for doctorID. When err is non-nil
// the previous data is kept but the error is recorded for visibility. A
// success for a different doctor replaces everything.
func (s *Store) Update(doctorID api.ID, patients []api.Patient, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.DoctorID = doctorID
	s.snapshot.Patients = clonePatients(patients)
	s.snapshot.HasData = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Clear drops everything, as after logout.
func (s *Store) Clear() {
	s.mu.Lock()
	s.snapshot = Snapshot{}
	s.mu.Unlock()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Patients = clonePatients(s.snapshot.Patients)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// Patient returns the cached patient with id.
func (s *Store) Patient(id api.ID) (api.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.snapshot.Patients {
		if p.ID == id {
			return p, true
		}
	}
	return api.Patient{}, false
}

func clonePatients(items []api.Patient) []api.Patient {
	if len(items) == 0 {
		return nil
	}
	dup := make([]api.Patient, len(items))
	copy(dup, items)
	return dup
}
