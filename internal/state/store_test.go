package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/meddesk/meddesk/internal/api"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	patients := []api.Patient{{ID: "1", Name: "Alice"}, {ID: "2", Name: "Bob"}}

	before := time.Now()
	s.Update("D1", patients, nil)

	snap := s.Snapshot()
	if !snap.HasData || snap.DoctorID != "D1" {
		t.Fatalf("snapshot = %#v, want data for D1", snap)
	}
	if len(snap.Patients) != 2 || snap.Patients[0].ID != "1" {
		t.Fatalf("snapshot patients = %#v, want 2 items", snap.Patients)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Patients[0].Name = "changed"
	if got, _ := s.Patient("1"); got.Name != "Alice" {
		t.Fatalf("Snapshot should clone patients; got name %q want Alice", got.Name)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update("D1", []api.Patient{{ID: "1"}}, nil)
	prev := s.Snapshot()

	before := time.Now()
	origErr := errors.New("boom")
	s.Update("D1", nil, origErr)

	snap := s.Snapshot()
	if snap.HasData != prev.HasData || snap.DoctorID != prev.DoctorID {
		t.Fatalf("snapshot changed on error: got %#v want %#v", snap, prev)
	}
	if len(snap.Patients) != 1 || snap.Patients[0].ID != "1" {
		t.Fatalf("patients changed on error: got %#v want %#v", snap.Patients, prev.Patients)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	for i := 1; i <= 3; i++ {
		s.Update("", nil, errors.New("fail"))
		snap := s.Snapshot()
		if snap.ConsecutiveFailures != i {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i)
		}
		if snap.IsOffline() != (i >= 2) {
			t.Fatalf("IsOffline() = %v after %d failures", snap.IsOffline(), i)
		}
	}

	s.Update("D1", nil, nil)
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("failures = %d offline = %v, want reset after success", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_Clear(t *testing.T) {
	var s Store
	s.Update("D1", []api.Patient{{ID: "1"}}, nil)
	s.Clear()

	snap := s.Snapshot()
	if snap.HasData || snap.DoctorID != "" || len(snap.Patients) != 0 {
		t.Fatalf("snapshot after Clear = %#v, want zero", snap)
	}
	if _, ok := s.Patient("1"); ok {
		t.Fatalf("Patient found after Clear")
	}
}
