// Package dashboard owns per-browser form and forecast state.
//
// A session's state is an immutable Snapshot that is replaced as a whole on
// every transition. Each submission is issued an increasing token and a
// completion is applied only if its token is newer than the last applied
// one, so a slow early response can never overwrite a later submission.
package dashboard

import (
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/swelljoe/wthr-daily/internal/weather"
)

// Phase is the coarse state of a session.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// FormState holds the three submitted inputs, exactly as typed.
type FormState struct {
	Latitude  string `json:"latitude" form:"latitude" validate:"required"`
	Longitude string `json:"longitude" form:"longitude" validate:"required"`
	Date      string `json:"date" form:"date" validate:"required"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// Validate reports empty fields keyed by input name. A nil map means the
// form may be submitted. Only presence is checked, the same as the
// browser's required attribute.
func (f FormState) Validate() map[string]string {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = "This field is required"
	}
	return out
}

// Query converts the form into a forecast query.
func (f FormState) Query() weather.Query {
	return weather.Query{
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		Date:      f.Date,
	}
}

// Snapshot is an immutable view of one session. Result and Error are never
// both set.
type Snapshot struct {
	Form      FormState               `json:"form"`
	Result    *weather.ForecastResult `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Phase     Phase                   `json:"phase"`
	Issued    uint64                  `json:"issued"`
	Applied   uint64                  `json:"applied"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Store guards a session's current Snapshot and fans transitions out to
// subscribers.
type Store struct {
	mu      sync.Mutex
	current Snapshot
	subs    map[int]chan Snapshot
	nextSub int
	now     func() time.Time
}

// NewStore returns a Store in the idle phase.
func NewStore() *Store {
	s := &Store{
		subs: make(map[int]chan Snapshot),
		now:  time.Now,
	}
	s.current = Snapshot{Phase: PhaseIdle, UpdatedAt: s.now()}
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Begin records a submission and issues its token. The previous result or
// error stays in place until a completion replaces it.
func (s *Store) Begin(form FormState) (uint64, Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	next.Form = form
	next.Issued++
	next.Phase = PhasePending
	next.UpdatedAt = s.now()
	s.replace(next)

	return next.Issued, next
}

// Complete applies the outcome of the fetch identified by token. It returns
// false, leaving the state untouched, when a newer submission has already
// been applied.
func (s *Store) Complete(token uint64, result *weather.ForecastResult, fetchErr error) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token <= s.current.Applied || token > s.current.Issued {
		return s.current, false
	}

	next := s.current
	next.Applied = token
	if fetchErr != nil || result == nil {
		next.Result = nil
		next.Error = weather.FetchFailureMessage
	} else {
		next.Result = result
		next.Error = ""
	}
	next.Phase = settledPhase(next)
	next.UpdatedAt = s.now()
	s.replace(next)

	return next, true
}

func settledPhase(s Snapshot) Phase {
	switch {
	case s.Issued > s.Applied:
		return PhasePending
	case s.Error != "":
		return PhaseFailed
	case s.Result != nil:
		return PhaseSuccess
	default:
		return PhaseIdle
	}
}

// Subscribe returns a channel that receives the newest Snapshot after every
// transition. A slow reader only ever sees the latest value. cancel must be
// called to release the subscription; it closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// replace installs next and notifies subscribers. Callers hold s.mu.
func (s *Store) replace(next Snapshot) {
	s.current = next
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}
