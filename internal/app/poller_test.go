package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/logging"
	"github.com/meddesk/meddesk/internal/state"
)

type fakeLister struct {
	mu       sync.Mutex
	patients []api.Patient
	err      error
	calls    []api.ID
}

func (f *fakeLister) ListPatients(_ context.Context, doctorID api.ID) ([]api.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, doctorID)
	return f.patients, f.err
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func signedIn(id api.ID) func() (api.ID, bool) {
	return func() (api.ID, bool) { return id, true }
}

func TestPoller_RefreshUpdatesStore(t *testing.T) {
	store := &state.Store{}
	lister := &fakeLister{patients: []api.Patient{{ID: "1", Name: "Alice"}}}
	p := NewPoller(store, lister, signedIn("D1"), logging.Discard())

	p.Refresh(context.Background())

	snap := store.Snapshot()
	if snap.DoctorID != "D1" || len(snap.Patients) != 1 {
		t.Fatalf("snapshot = %#v, want one patient for D1", snap)
	}
	if len(lister.calls) != 1 || lister.calls[0] != "D1" {
		t.Fatalf("calls = %v, want [D1]", lister.calls)
	}
}

func TestPoller_RefreshRecordsErrors(t *testing.T) {
	store := &state.Store{}
	lister := &fakeLister{patients: []api.Patient{{ID: "1"}}}
	p := NewPoller(store, lister, signedIn("D1"), logging.Discard())
	p.Refresh(context.Background())

	lister.err = errors.New("connection refused")
	p.Refresh(context.Background())
	p.Refresh(context.Background())

	snap := store.Snapshot()
	if !snap.IsOffline() || snap.LastError == nil {
		t.Fatalf("snapshot = %#v, want offline with error", snap)
	}
	if len(snap.Patients) != 1 {
		t.Fatalf("patients = %#v, want previous data kept", snap.Patients)
	}
}

func TestPoller_SignedOutClearsStore(t *testing.T) {
	store := &state.Store{}
	store.Update("D1", []api.Patient{{ID: "1"}}, nil)
	lister := &fakeLister{}
	p := NewPoller(store, lister, func() (api.ID, bool) { return "", false }, logging.Discard())

	p.Refresh(context.Background())

	if snap := store.Snapshot(); snap.HasData {
		t.Fatalf("snapshot = %#v, want cleared", snap)
	}
	if lister.callCount() != 0 {
		t.Fatalf("ListPatients called while signed out")
	}
}

func TestPoller_StartTicksUntilCancelled(t *testing.T) {
	store := &state.Store{}
	lister := &fakeLister{}
	p := NewPoller(store, lister, signedIn("D1"), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for lister.callCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("poller made %d calls, want at least 2", lister.callCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	time.Sleep(20 * time.Millisecond)
	after := lister.callCount()
	time.Sleep(30 * time.Millisecond)
	if lister.callCount() != after {
		t.Fatalf("poller kept running after cancel")
	}
}
