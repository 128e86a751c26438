package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/swelljoe/wthr-daily/internal/weather"
)

// Fetcher retrieves daily forecasts. *weather.Client satisfies it.
type Fetcher interface {
	DailyForecast(ctx context.Context, q weather.Query) (*weather.ForecastResult, error)
}

// Session pairs one browser's Store with the forecast fetcher.
type Session struct {
	ID string

	store     *Store
	fetcher   Fetcher
	honorDate bool
	logger    *slog.Logger
	lastSeen  time.Time
}

// Snapshot returns the session's current state.
func (s *Session) Snapshot() Snapshot {
	return s.store.Snapshot()
}

// Subscribe forwards to the session's Store.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	return s.store.Subscribe()
}

// Submit runs one form submission: it issues a token, performs exactly one
// fetch and applies the outcome unless a newer submission already landed.
// The returned snapshot is the state after the attempt.
func (s *Session) Submit(ctx context.Context, form FormState) Snapshot {
	token, _ := s.store.Begin(form)

	if !s.honorDate {
		s.logger.Debug("submitted date is not sent to the forecast API",
			"session", s.ID,
			"date", form.Date,
		)
	}

	result, err := s.fetcher.DailyForecast(ctx, form.Query())
	if err != nil {
		attrs := []any{"session", s.ID, "token", token, "error", err}
		var fe *weather.FetchError
		if errors.As(err, &fe) {
			attrs = append(attrs, "stage", string(fe.Stage), "status", fe.StatusCode)
		}
		s.logger.Warn("forecast fetch failed", attrs...)
	}

	snap, applied := s.store.Complete(token, result, err)
	if !applied {
		s.logger.Info("discarded stale forecast response",
			"session", s.ID,
			"token", token,
			"applied", snap.Applied,
		)
	}
	return snap
}
