package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/meddesk/meddesk/internal/api"
	"github.com/meddesk/meddesk/internal/state"
)

const defaultPollInterval = 15 * time.Second

// PatientLister is what the poller needs from the API.
type PatientLister interface {
	ListPatients(ctx context.Context, doctorID api.ID) ([]api.Patient, error)
}

// Poller refreshes the store with the current doctor's patients.
type Poller struct {
	store  *state.Store
	client PatientLister
	doctor func() (api.ID, bool)
	logger *slog.Logger
}

// NewPoller builds a Poller. doctor reports the signed-in doctor, or false
// when nobody is signed in.
func NewPoller(store *state.Store, client PatientLister, doctor func() (api.ID, bool), logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{store: store, client: client, doctor: doctor, logger: logger}
}

// Start launches a background goroutine that refreshes the store at a
// fixed cadence. It returns immediately.
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Refresh(ctx)
			}
		}
	}()
}

// Refresh fetches once. With nobody signed in the store is cleared.
func (p *Poller) Refresh(ctx context.Context) {
	id, ok := p.doctor()
	if !ok || id == "" {
		p.store.Clear()
		return
	}
	patients, err := p.client.ListPatients(ctx, id)
	if err != nil {
		p.store.Update(id, nil, err)
		p.logger.Warn("patient poll failed", "doctor_id", id.String(), "error", err)
		return
	}
	p.logger.Debug("patient poll", "doctor_id", id.String(), "count", len(patients))
	p.store.Update(id, patients, nil)
}
